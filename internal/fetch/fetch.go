// Package fetch retrieves landing pages and the media they reference.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"lpforge/internal/lperr"
)

type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

const (
	DefaultUserAgent = "lpforge/1.0"
	DefaultTimeout   = 45 * time.Second

	// maxPageBytes caps a fetched document.
	maxPageBytes = 16 << 20
	// minStaticChars is the size below which a static response is treated
	// as a client-rendered shell.
	minStaticChars = 2000
)

type Options struct {
	URL             string
	Mode            Mode
	Timeout         time.Duration
	UserAgent       string
	WaitForSelector string
	Headless        bool
}

type Result struct {
	HTML       string
	FinalMode  Mode
	SourceInfo string
}

var staticFetch = fetchStatic
var dynamicFetch = fetchDynamic

// Fetch loads opts.URL. Auto mode keeps the static response unless it
// looks like an empty client-rendered shell, then renders it in a browser.
func Fetch(ctx context.Context, opts Options) (Result, error) {
	if opts.URL == "" {
		return Result{}, lperr.InvalidInput("url is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	switch opts.Mode {
	case ModeStatic:
		return single(ctx, opts, staticFetch, ModeStatic)
	case ModeDynamic:
		return single(ctx, opts, dynamicFetch, ModeDynamic)
	case ModeAuto, "":
		return auto(ctx, opts)
	}
	return Result{}, lperr.InvalidInput("unknown mode: %s", opts.Mode)
}

func single(ctx context.Context, opts Options, fn func(context.Context, Options) (string, error), mode Mode) (Result, error) {
	html, err := fn(ctx, opts)
	if err != nil {
		return Result{}, wrapFetch(opts, err)
	}
	return Result{HTML: html, FinalMode: mode, SourceInfo: string(mode)}, nil
}

func auto(ctx context.Context, opts Options) (Result, error) {
	html, staticErr := staticFetch(ctx, opts)
	if staticErr == nil && !looksDynamic(html) {
		return Result{HTML: html, FinalMode: ModeStatic, SourceInfo: "auto:static"}, nil
	}
	rendered, err := dynamicFetch(ctx, opts)
	switch {
	case err == nil:
		return Result{HTML: rendered, FinalMode: ModeDynamic, SourceInfo: "auto:dynamic"}, nil
	case staticErr != nil:
		return Result{}, wrapFetch(opts, fmt.Errorf("static failed: %v; dynamic failed: %w", staticErr, err))
	}
	return Result{}, wrapFetch(opts, err)
}

func wrapFetch(opts Options, err error) error {
	var e *lperr.Error
	if errors.As(err, &e) {
		return err
	}
	return lperr.NewFetch(opts.URL, err)
}

func fetchStatic(ctx context.Context, opts Options) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := (&http.Client{Timeout: opts.Timeout}).Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", lperr.NewTimeout("static fetch", opts.Timeout.String(), err)
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("http status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); mt != "" && !strings.Contains(mt, "html") && mt != "text/plain" {
			return "", fmt.Errorf("unexpected content type %s", mt)
		}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes+1))
	if err != nil {
		return "", err
	}
	if len(body) > maxPageBytes {
		return "", fmt.Errorf("page exceeds %d bytes", maxPageBytes)
	}
	return string(body), nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

const appMountSelector = "#root, #app, #__next, #__nuxt, [data-reactroot], [ng-app]"

// looksDynamic reports whether a statically fetched page is likely an empty
// client-rendered shell: too small to be a landing page, or an app mount
// point with no media around it.
func looksDynamic(html string) bool {
	if len(strings.TrimSpace(html)) < minStaticChars {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return true
	}
	if doc.Find("img, picture, video").Length() > 0 {
		return false
	}
	return doc.Find(appMountSelector).Length() > 0
}
