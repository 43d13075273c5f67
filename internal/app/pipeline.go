package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"

	"lpforge/internal/block"
	"lpforge/internal/builder"
	"lpforge/internal/dialect"
	"lpforge/internal/dom"
	"lpforge/internal/fetch"
	"lpforge/internal/lperr"
	"lpforge/internal/markdown"
	"lpforge/internal/mutate"
	"lpforge/internal/validate"
)

// Result is everything one pipeline pass produced.
type Result struct {
	Source   string          `json:"source"`
	Stripped int             `json:"stripped,omitempty"`
	Blocks   []block.Block   `json:"-"`
	Sections []block.Section `json:"-"`
	Mutation mutate.Stats    `json:"mutation"`
	Assets   []fetch.Asset   `json:"assets,omitempty"`
	Build    builder.Result  `json:"build"`
	Report   validate.Report `json:"validation"`
	Markdown []string        `json:"-"`
}

type pipeline struct {
	d     dialect.Compiled
	h     dialect.Heuristics
	cls   *block.Classifier
	eng   *mutate.Engine
	bld   *builder.Builder
	conv  *markdown.Converter
	hooks []Hook
	log   *zap.Logger
}

func newPipeline(opts Options, log *zap.Logger) (*pipeline, error) {
	d, err := opts.Dialect.Compile()
	if err != nil {
		return nil, err
	}
	if sel := strings.TrimSpace(opts.StripSelector); sel != "" {
		if _, err := cascadia.Compile(sel); err != nil {
			return nil, lperr.InvalidInput("strip selector %q: %v", sel, err)
		}
	}
	if err := opts.Mutation.Validate(); err != nil {
		return nil, err
	}
	hooks, err := buildHooks(opts)
	if err != nil {
		return nil, err
	}
	h := opts.Heuristics.WithDefaults()
	cls := block.NewClassifier(h, d, log)
	return &pipeline{
		d:     d,
		h:     h,
		cls:   cls,
		eng:   mutate.NewEngine(cls, log),
		bld:   builder.New(d, h, builder.WithLogger(log)),
		conv:  markdown.NewConverter(d),
		hooks: hooks,
		log:   log.Named("pipeline"),
	}, nil
}

func (p *pipeline) process(ctx context.Context, opts Options, src source) (Result, error) {
	res := Result{Source: src.Info}

	page := src.HTML
	if sel := strings.TrimSpace(opts.StripSelector); sel != "" {
		page, res.Stripped = stripSelector(page, sel)
		p.log.Debug("Stripped elements", zap.String("selector", sel), zap.Int("count", res.Stripped))
	}

	blocks, err := p.cls.ClassifyDocument(page)
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}
	p.log.Info("Page decomposed", zap.Int("blocks", len(blocks)))

	if !opts.Mutation.IsZero() {
		blocks, res.Mutation, err = p.eng.Sequence(blocks, opts.Mutation)
		if err != nil {
			return Result{}, fmt.Errorf("mutate: %w", err)
		}
		p.log.Info("Mutations applied", zap.Int("applied", res.Mutation.Applied), zap.Int("skipped", res.Mutation.Skipped))
	}
	res.Blocks = blocks
	res.Sections = block.DetectSections(blocks, p.h)

	cfg := opts.Build
	if opts.DownloadAssets && !opts.DryRun {
		res.Assets = p.downloadAssets(ctx, opts, src, blocks)
		cfg.ImageMap = mergeImageMap(fetch.ImageMap(res.Assets), opts.Build.ImageMap)
	}

	res.Build = p.bld.Build(block.Flatten(blocks), cfg)
	res.Report = validate.Validate(res.Build.HTML, p.d)
	if !res.Report.Valid {
		p.log.Warn("Build output is not dialect compliant", zap.Strings("errors", res.Report.Errors))
	}

	for _, s := range res.Sections {
		part, err := p.conv.Digest(blocks, []block.Section{s})
		if err != nil {
			return Result{}, fmt.Errorf("markdown: %w", err)
		}
		res.Markdown = append(res.Markdown, part)
	}
	return res, nil
}

func (p *pipeline) downloadAssets(ctx context.Context, opts Options, src source, blocks []block.Block) []fetch.Asset {
	var refs []block.AssetRef
	for _, b := range blocks {
		refs = append(refs, b.Assets...)
	}
	assets, err := fetch.DownloadAssets(ctx, refs, fetch.DownloadOptions{
		PageURL:   src.PageURL,
		OutputDir: opts.OutputDir,
		UserAgent: opts.UserAgent,
		Timeout:   opts.Timeout,
		Log:       p.log,
	})
	if err != nil {
		p.log.Warn("Some assets could not be downloaded", zap.Error(err))
	}
	return assets
}

// mergeImageMap overlays explicit substitutions on downloaded ones.
func mergeImageMap(downloaded, explicit map[string]string) map[string]string {
	out := make(map[string]string, len(downloaded)+len(explicit))
	for k, v := range downloaded {
		out[k] = v
	}
	for k, v := range explicit {
		out[k] = v
	}
	return out
}

func stripSelector(page, selector string) (string, int) {
	doc, full, err := dom.ParseAny(page)
	if err != nil {
		return page, 0
	}
	n := dom.RemoveSelectors(doc, selector)
	if n == 0 {
		return page, 0
	}
	return dom.RenderDocument(doc, full), n
}
