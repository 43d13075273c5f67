package testconfigs

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"lpforge/internal/app"
	"lpforge/internal/config"
	"lpforge/internal/fetch"
	"lpforge/internal/logging"
)

// Run executes the pipeline once per config file in a directory and prints
// one status line per file. A failing config does not stop the batch.
func Run(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	resolvedDir := resolveDir(opts.dir)
	files, err := configFiles(resolvedDir)
	if err != nil {
		return fmt.Errorf("read configs dir: %w", err)
	}

	for _, name := range files {
		path := filepath.Join(resolvedDir, name)
		cfg, err := config.Load(path)
		if err != nil {
			fmt.Printf("%s: INVALID (%v)\n", name, err)
			continue
		}
		if strings.TrimSpace(cfg.URL) == "" && strings.TrimSpace(cfg.Input) == "" {
			fmt.Printf("%s: SKIP (no url or input)\n", name)
			continue
		}

		fmt.Printf("\n=== %s ===\n", name)
		if err := app.Run(context.Background(), optionsFor(cfg, opts)); err != nil {
			fmt.Printf("FAILED: %v\n", err)
		} else {
			fmt.Printf("OK\n")
		}
	}

	return nil
}

type batchOptions struct {
	dir      string
	dryRun   bool
	strict   bool
	timeout  int
	headless bool
}

func parseOptions(args []string) (batchOptions, error) {
	fs := flag.NewFlagSet("test-configs", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var o batchOptions
	fs.StringVar(&o.dir, "dir", config.DefaultConfigDir, "Directory of config files")
	fs.BoolVar(&o.dryRun, "dry-run", true, "Dry-run (no files written)")
	fs.BoolVar(&o.strict, "strict", false, "Fail configs whose build is not dialect compliant")
	fs.IntVar(&o.timeout, "timeout", app.DefaultTimeoutSeconds, "Timeout seconds")
	fs.BoolVar(&o.headless, "headless", true, "Run browser headless")
	err := fs.Parse(args)
	return o, err
}

func optionsFor(cfg config.Config, o batchOptions) app.Options {
	opts := app.Options{
		URL:            cfg.URL,
		Input:          cfg.Input,
		Mode:           fetch.Mode(cfg.Mode),
		OutputDir:      cfg.OutputDir,
		Timeout:        time.Duration(o.timeout) * time.Second,
		UserAgent:      cfg.UserAgent,
		WaitFor:        cfg.WaitForSelector,
		Headless:       o.headless,
		Yes:            true,
		Strict:         o.strict || cfg.Strict,
		DryRun:         o.dryRun,
		UseCache:       cfg.UseCache,
		DownloadAssets: cfg.DownloadAssets,
		StripSelector:  cfg.StripSelector,
		MaxChars:       cfg.MaxChars,
		MaxTokens:      cfg.MaxTokens,
		Logging:        logging.Config{Level: logging.LevelNone},
		Heuristics:     cfg.Heuristics,
		Dialect:        cfg.Dialect,
		Mutation:       cfg.Mutation,
		Build:          cfg.Build,
	}
	if cfg.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.Headless != nil {
		opts.Headless = *cfg.Headless
	}
	return opts
}

func configFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ".json" || config.IsYAML(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func resolveDir(dir string) string {
	if strings.TrimSpace(dir) != "" {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
	}
	for _, candidate := range config.SearchDirs() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return dir
}
