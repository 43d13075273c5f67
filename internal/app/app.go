// Package app runs the lpforge pipeline: load a page, decompose it into
// blocks, mutate, rebuild in the target dialect, validate and write.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"lpforge/internal/builder"
	"lpforge/internal/dialect"
	"lpforge/internal/fetch"
	"lpforge/internal/logging"
	"lpforge/internal/lperr"
	"lpforge/internal/mutate"
)

const (
	DefaultTimeoutSeconds = 45
	DefaultOutputRoot     = "output"
)

type Options struct {
	URL            string
	Input          string
	Mode           fetch.Mode
	OutputDir      string
	Timeout        time.Duration
	UserAgent      string
	WaitFor        string
	Headless       bool
	Yes            bool
	Strict         bool
	DryRun         bool
	Stdout         bool
	UseCache       bool
	DownloadAssets bool
	StripSelector  string
	MaxChars       int
	MaxTokens      int

	Logging    logging.Config
	Heuristics dialect.Heuristics
	Dialect    dialect.Dialect
	Mutation   mutate.Config
	Build      builder.Config

	PipelineHooks []string
	PostCommands  []string
}

// Run executes one pipeline pass. Strict runs whose build output fails
// validation return a not-compliant error and write nothing.
func Run(ctx context.Context, opts Options) error {
	normalized, err := normalizeOptions(opts)
	if err != nil {
		return err
	}
	log, err := logging.New(normalized.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	p, err := newPipeline(normalized, log)
	if err != nil {
		return err
	}

	src, err := loadSource(ctx, normalized, log)
	if err != nil {
		return err
	}
	log.Info("Page loaded", zap.String("source", src.Info), zap.Int("bytes", len(src.HTML)))

	res, err := p.process(ctx, normalized, src)
	if err != nil {
		return err
	}

	if err := p.runBeforeWriteHooks(ctx, normalized, &res); err != nil {
		return err
	}
	if normalized.Strict && !res.Report.Valid {
		return lperr.NewNotCompliant(res.Report.Errors)
	}

	if !normalized.Stdout {
		printSummary(res)
	}
	if !shouldWrite(normalized) {
		return nil
	}

	written, err := p.writeOutputs(normalized, res)
	if err != nil {
		return err
	}
	if normalized.Stdout {
		fmt.Print(res.Build.HTML)
	} else {
		printWritten(written)
	}
	return p.runAfterWriteHooks(ctx, normalized, res, written)
}
