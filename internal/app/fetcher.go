package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"lpforge/internal/fetch"
	"lpforge/internal/lperr"
)

type source struct {
	HTML string
	Info string
	// PageURL resolves relative asset references; empty for local files
	// without a base.
	PageURL string
}

func loadSource(ctx context.Context, opts Options, log *zap.Logger) (source, error) {
	if opts.Input != "" {
		data, err := os.ReadFile(opts.Input)
		if err != nil {
			return source{}, lperr.InvalidInput("read input %s: %v", opts.Input, err)
		}
		return source{HTML: string(data), Info: "file"}, nil
	}

	var cache *fetch.PageCache
	if opts.UseCache {
		cache = fetch.NewPageCache("")
		if res, ok := cache.Load(opts.URL); ok {
			log.Debug("Loaded page from cache", zap.String("path", cache.Path(opts.URL)))
			return source{HTML: res.HTML, Info: res.SourceInfo, PageURL: opts.URL}, nil
		}
	}

	res, err := fetchWithRetry(ctx, opts, log)
	if err != nil {
		return source{}, err
	}

	if cache != nil {
		if err := cache.Store(opts.URL, res); err != nil {
			log.Warn("Unable to cache page", zap.Error(err))
		}
	}
	return source{HTML: res.HTML, Info: res.SourceInfo, PageURL: opts.URL}, nil
}

var fetchBackoffs = []time.Duration{0, time.Second, 2 * time.Second}

func fetchWithRetry(ctx context.Context, opts Options, log *zap.Logger) (fetch.Result, error) {
	var (
		result fetch.Result
		err    error
	)
	for attempt, wait := range fetchBackoffs {
		if attempt > 0 {
			log.Warn("Fetch failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
			select {
			case <-ctx.Done():
				return fetch.Result{}, ctx.Err()
			case <-time.After(wait):
			}
		}
		result, err = fetch.Fetch(ctx, buildFetchOptions(opts))
		if err == nil || ctx.Err() != nil || lperr.IsInvalidInput(err) {
			break
		}
	}
	if err != nil {
		return fetch.Result{}, fmt.Errorf("load %s: %w", opts.URL, err)
	}
	return result, nil
}

func buildFetchOptions(opts Options) fetch.Options {
	return fetch.Options{
		URL:             opts.URL,
		Mode:            opts.Mode,
		Timeout:         opts.Timeout,
		UserAgent:       opts.UserAgent,
		WaitForSelector: opts.WaitFor,
		Headless:        opts.Headless,
	}
}
