package app

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"lpforge/internal/fetch"
	"lpforge/internal/lperr"
)

func normalizeOptions(opts Options) (Options, error) {
	opts.URL = strings.TrimSpace(opts.URL)
	opts.Input = strings.TrimSpace(opts.Input)
	if opts.URL == "" && opts.Input == "" {
		return opts, lperr.InvalidInput("url or input file is required")
	}
	if opts.URL != "" && opts.Input != "" {
		return opts, lperr.InvalidInput("url and input file are mutually exclusive")
	}
	if opts.Mode == "" {
		opts.Mode = fetch.ModeAuto
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSeconds) * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = fetch.DefaultUserAgent
	}
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(DefaultOutputRoot, projectName(opts))
	}
	if opts.Stdout {
		opts.Yes = true
	}
	return opts, nil
}

// projectName derives the default output directory name from the page URL
// host and path, or from the input file name.
func projectName(opts Options) string {
	var name string
	if opts.Input != "" {
		base := filepath.Base(opts.Input)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	} else {
		raw := opts.URL
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		if u, err := url.Parse(raw); err == nil {
			name = u.Hostname() + " " + strings.ReplaceAll(strings.Trim(u.Path, "/"), "/", " ")
		}
	}
	if s := slug.Make(name); s != "" {
		return s
	}
	return "default"
}
