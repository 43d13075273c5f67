// Package builder rebuilds flattened block html into the vendor dialect:
// regenerated part identifiers, substituted images, lazy-load attributes,
// injected head/body fragments and the trailing margin-reset widget.
package builder

import (
	"strings"

	"go.uber.org/zap"

	"lpforge/internal/dialect"
	"lpforge/internal/dom"
	"lpforge/internal/mutate"
)

// Inject holds caller-supplied fragments. They are emitted verbatim apart
// from wrapping bare CSS and scripts in their tags.
type Inject struct {
	Style         string `json:"style,omitempty" yaml:"style,omitempty"`
	NoIndex       bool   `json:"noIndex,omitempty" yaml:"noIndex,omitempty"`
	HeadHTML      string `json:"headHtml,omitempty" yaml:"headHtml,omitempty"`
	HeadScript    string `json:"headScript,omitempty" yaml:"headScript,omitempty"`
	BodyHTML      string `json:"bodyHtml,omitempty" yaml:"bodyHtml,omitempty"`
	BodyScript    string `json:"bodyScript,omitempty" yaml:"bodyScript,omitempty"`
	ExitPopupHTML string `json:"exitPopupHtml,omitempty" yaml:"exitPopupHtml,omitempty"`
}

// Config is the build request.
type Config struct {
	ImageMap      map[string]string `json:"imageMap,omitempty" yaml:"imageMap,omitempty"`
	CTAURL        string            `json:"ctaUrl,omitempty" yaml:"ctaUrl,omitempty"`
	RegenerateIDs bool              `json:"regenerateIds" yaml:"regenerateIds"`
	Inject        Inject            `json:"inject,omitempty" yaml:"inject,omitempty"`
}

// Result is the build output. HTML is always set, even for input the
// validator will reject.
type Result struct {
	HTML           string  `json:"-"`
	Remapped       []Remap `json:"remapped,omitempty"`
	ImagesReplaced int     `json:"imagesReplaced"`
	CTAsRetargeted int     `json:"ctasRetargeted"`
	TrailingAdded  bool    `json:"trailingAdded"`
}

// Builder is safe for concurrent use when its IDSource is.
type Builder struct {
	d   dialect.Compiled
	h   dialect.Heuristics
	ids IDSource
	log *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithIDSource replaces the random identifier source.
func WithIDSource(src IDSource) Option {
	return func(b *Builder) {
		if src != nil {
			b.ids = src
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// New returns a builder for dialect d.
func New(d dialect.Compiled, h dialect.Heuristics, opts ...Option) *Builder {
	b := &Builder{
		d:   d,
		h:   h.WithDefaults(),
		ids: RandomIDs(),
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.Named("builder")
	return b
}

// Build runs the build steps in order: identifier regeneration, image
// substitution, CTA retargeting, lazy-load normalization, wrapper
// stripping, injection and the trailing widget. It never fails; markup the
// parser cannot handle is passed through and left to the validator.
func (b *Builder) Build(htmlText string, cfg Config) Result {
	res := Result{}
	doc, full, err := dom.ParseAny(htmlText)
	if err != nil {
		b.log.Warn("parse failed, passing input through", zap.Error(err))
		res.HTML = b.finish(htmlText, cfg.Inject, newUsedIDs(nil), &res)
		return res
	}

	used := newUsedIDs(doc)
	if cfg.RegenerateIDs {
		res.Remapped = b.regenerate(doc, used)
	}
	if len(cfg.ImageMap) > 0 {
		res.ImagesReplaced = b.substituteImages(doc, cfg.ImageMap)
	}
	if strings.TrimSpace(cfg.CTAURL) != "" {
		res.CTAsRetargeted = mutate.RetargetCTA(doc, cfg.CTAURL, b.h)
	}
	b.normalizeLazy(doc)

	out := StripWrappers(dom.RenderDocument(doc, full))
	res.HTML = b.finish(out, cfg.Inject, used, &res)
	b.log.Debug("built",
		zap.Int("remapped", len(res.Remapped)),
		zap.Int("images", res.ImagesReplaced),
		zap.Int("ctas", res.CTAsRetargeted),
		zap.Bool("trailing", res.TrailingAdded))
	return res
}

func (b *Builder) finish(body string, inj Inject, used usedIDs, res *Result) string {
	out := wrapInjections(body, inj)
	if !strings.Contains(out, dialect.TrailingMarker) {
		out += b.trailingWidget(used)
		res.TrailingAdded = true
	}
	return out
}

// StripWrappers removes document wrappers the parser may have added. Only
// exact prefix/suffix pairs are removed; anything else is left for the
// validator to report.
func StripWrappers(s string) string {
	for changed := true; changed; {
		changed = false
		for _, w := range wrapperPairs {
			if strings.HasPrefix(s, w[0]) && strings.HasSuffix(s, w[1]) && len(s) >= len(w[0])+len(w[1]) {
				s = s[len(w[0]) : len(s)-len(w[1])]
				changed = true
			}
		}
	}
	return s
}

var wrapperPairs = [][2]string{
	{"<html><head></head><body>", "</body></html>"},
	{"<html>", "</html>"},
	{"<body>", "</body>"},
}

func (b *Builder) trailingWidget(used usedIDs) string {
	id := used.fresh(func() string { return b.d.NewPartIDPrefix + itoa(b.ids.PartNumber()) })
	class := used.freshClass(func() string { return b.d.NewPartClassPrefix + b.ids.ClassSuffix() })
	var sb strings.Builder
	sb.WriteString(`<div class="`)
	sb.WriteString(b.d.WidgetClass)
	sb.WriteString(`"><div id="`)
	sb.WriteString(id)
	sb.WriteString(`" class="`)
	sb.WriteString(class)
	sb.WriteString(`"><style>`)
	sb.WriteString(dialect.TrailingCSS)
	sb.WriteString(`</style></div></div>`)
	return sb.String()
}
