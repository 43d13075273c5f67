package mutate

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"lpforge/internal/block"
	"lpforge/internal/dialect"
	"lpforge/internal/dom"
	"lpforge/internal/lperr"
)

// Stats counts replacements that fired and replacements that found nothing
// to replace. Unmatched replacements are never errors.
type Stats struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Applied += o.Applied
	s.Skipped += o.Skipped
}

// Engine applies mutation strategies to block sequences. Every block whose
// html changes is reclassified so its derived fields follow.
type Engine struct {
	c   *block.Classifier
	h   dialect.Heuristics
	log *zap.Logger
}

// NewEngine returns an engine reclassifying with c. A nil logger disables logging.
func NewEngine(c *block.Classifier, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{c: c, h: c.Heuristics(), log: log.Named("mutate")}
}

// Apply runs the single strategy populated in cfg.
func (e *Engine) Apply(blocks []block.Block, cfg Config) ([]block.Block, Stats, error) {
	if err := cfg.Validate(); err != nil {
		return blocks, Stats{}, err
	}
	strategies := cfg.Strategies()
	if len(strategies) != 1 {
		return blocks, Stats{}, lperr.InvalidInput("exactly one mutation strategy per call, got %d %v", len(strategies), strategies)
	}
	return e.run(blocks, cfg, strategies[0])
}

// Sequence runs every populated strategy in order: direct, phrases,
// overwrite, cta. Each step sees the blocks re-derived by the previous one.
func (e *Engine) Sequence(blocks []block.Block, cfg Config) ([]block.Block, Stats, error) {
	if err := cfg.Validate(); err != nil {
		return blocks, Stats{}, err
	}
	total := Stats{}
	for _, s := range cfg.Strategies() {
		next, stats, err := e.run(blocks, cfg, s)
		if err != nil {
			return blocks, total, fmt.Errorf("%s: %w", s, err)
		}
		blocks = next
		total.Add(stats)
	}
	return blocks, total, nil
}

func (e *Engine) run(blocks []block.Block, cfg Config, s Strategy) ([]block.Block, Stats, error) {
	switch s {
	case StrategyDirect:
		return e.ApplyDirect(blocks, cfg.DirectReplacements, cfg.ExcludeSelectors)
	case StrategyPhrases:
		out, stats := e.ApplyPhrases(blocks, cfg.PhraseRewrites)
		return out, stats, nil
	case StrategyOverwrite:
		return e.ApplyOverwrites(blocks, cfg.Overwrites)
	case StrategyCTA:
		out, stats := e.ApplyCTA(blocks, cfg.CTAURL)
		return out, stats, nil
	}
	return blocks, Stats{}, lperr.InvalidInput("unknown strategy %q", s)
}

// ApplyDirect substitutes every pair inside text nodes only, skipping
// script/style and excluded subtrees. Element structure is untouched.
func (e *Engine) ApplyDirect(blocks []block.Block, repl Replacements, exclude []string) ([]block.Block, Stats, error) {
	skip, err := exclusionMatcher(exclude)
	if err != nil {
		return blocks, Stats{}, err
	}
	fired := make([]bool, len(repl))
	out := make([]block.Block, len(blocks))
	for i, b := range blocks {
		out[i] = b
		doc, perr := dom.ParseFragment(b.HTML)
		if perr != nil {
			continue
		}
		if substituteText(dom.Root(doc), repl, skip, fired) {
			out[i] = e.c.Reclassify(block.Block{Index: b.Index, HTML: dom.RenderFragment(doc)})
		}
	}
	stats := firedStats(fired)
	e.log.Debug("direct substitution", zap.Int("applied", stats.Applied), zap.Int("skipped", stats.Skipped))
	return out, stats, nil
}

// ApplyPhrases replaces each phrase as a literal substring of every block's
// serialized html. Matches may cross tag boundaries inside a block.
func (e *Engine) ApplyPhrases(blocks []block.Block, phrases []PhraseRewrite) ([]block.Block, Stats) {
	fired := make([]bool, len(phrases))
	out := make([]block.Block, len(blocks))
	for i, b := range blocks {
		out[i] = b
		rewritten := rewritePhrases(b.HTML, phrases, fired)
		if rewritten != b.HTML {
			out[i] = e.c.Reclassify(block.Block{Index: b.Index, HTML: rewritten})
		}
	}
	stats := firedStats(fired)
	e.log.Debug("phrase rewrite", zap.Int("applied", stats.Applied), zap.Int("skipped", stats.Skipped))
	return out, stats
}

// ApplyOverwrites replaces whole-block text. An index outside the sequence
// is invalid input; an overwrite whose old text is empty, unchanged or not
// found leaves the block byte-identical.
func (e *Engine) ApplyOverwrites(blocks []block.Block, overwrites []Overwrite) ([]block.Block, Stats, error) {
	for _, o := range overwrites {
		if o.Index < 0 || o.Index >= len(blocks) {
			return blocks, Stats{}, lperr.IndexOutOfRange(o.Index, len(blocks))
		}
	}
	out := make([]block.Block, len(blocks))
	copy(out, blocks)
	stats := Stats{}
	for _, o := range overwrites {
		b := out[o.Index]
		rewritten, ok := overwriteText(b, o.NewText)
		if !ok {
			stats.Skipped++
			e.log.Debug("overwrite skipped", zap.Int("index", o.Index))
			continue
		}
		out[o.Index] = e.c.Reclassify(block.Block{Index: b.Index, HTML: rewritten})
		stats.Applied++
	}
	return out, stats, nil
}

// ApplyCTA retargets the CTA links of every block. Applied counts changed hrefs.
func (e *Engine) ApplyCTA(blocks []block.Block, target string) ([]block.Block, Stats) {
	out := make([]block.Block, len(blocks))
	stats := Stats{}
	for i, b := range blocks {
		out[i] = b
		doc, err := dom.ParseFragment(b.HTML)
		if err != nil {
			continue
		}
		if n := RetargetCTA(doc, target, e.h); n > 0 {
			out[i] = e.c.Reclassify(block.Block{Index: b.Index, HTML: dom.RenderFragment(doc)})
			stats.Applied += n
		}
	}
	return out, stats
}

// ApplyDirectHTML is ApplyDirect over a raw document or fragment. Unchanged
// input is returned as is.
func ApplyDirectHTML(htmlText string, repl Replacements, exclude []string) (string, Stats, error) {
	skip, err := exclusionMatcher(exclude)
	if err != nil {
		return htmlText, Stats{}, err
	}
	fired := make([]bool, len(repl))
	if strings.TrimSpace(htmlText) == "" {
		return htmlText, firedStats(fired), nil
	}
	doc, full, err := dom.ParseAny(htmlText)
	if err != nil {
		return htmlText, Stats{}, err
	}
	if !substituteText(dom.Root(doc), repl, skip, fired) {
		return htmlText, firedStats(fired), nil
	}
	return dom.RenderDocument(doc, full), firedStats(fired), nil
}

// ApplyPhrasesHTML is ApplyPhrases over a raw document.
func ApplyPhrasesHTML(htmlText string, phrases []PhraseRewrite) (string, Stats) {
	fired := make([]bool, len(phrases))
	out := rewritePhrases(htmlText, phrases, fired)
	return out, firedStats(fired)
}

func substituteText(root *html.Node, repl Replacements, skip func(*html.Node) bool, fired []bool) bool {
	changed := false
	dom.WalkText(root, skip, func(n *html.Node) {
		data := n.Data
		for j, r := range repl {
			if r.Old == "" || !strings.Contains(data, r.Old) {
				continue
			}
			data = strings.ReplaceAll(data, r.Old, r.New)
			fired[j] = true
		}
		if data != n.Data {
			n.Data = data
			changed = true
		}
	})
	return changed
}

func rewritePhrases(s string, phrases []PhraseRewrite, fired []bool) string {
	for j, p := range phrases {
		if p.Original == "" || !strings.Contains(s, p.Original) {
			continue
		}
		s = strings.ReplaceAll(s, p.Original, p.Rewritten)
		fired[j] = true
	}
	return s
}

// overwriteText returns b's html with its text replaced by newText. A block
// with a single text node has that node rewritten in place, keeping the
// surrounding whitespace; otherwise the first occurrence of the old text in
// the html is replaced.
func overwriteText(b block.Block, newText string) (string, bool) {
	old := b.Text
	if old == "" || old == newText {
		return b.HTML, false
	}
	doc, err := dom.ParseFragment(b.HTML)
	if err != nil {
		return b.HTML, false
	}
	nodes := []*html.Node{}
	for _, n := range dom.TextNodes(dom.Root(doc), nil) {
		if strings.TrimSpace(n.Data) != "" {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) == 1 && strings.TrimSpace(nodes[0].Data) == old {
		n := nodes[0]
		at := strings.Index(n.Data, old)
		n.Data = n.Data[:at] + newText + n.Data[at+len(old):]
		return dom.RenderFragment(doc), true
	}
	if strings.Contains(b.HTML, old) {
		return strings.Replace(b.HTML, old, newText, 1), true
	}
	if escaped := html.EscapeString(old); strings.Contains(b.HTML, escaped) {
		return strings.Replace(b.HTML, escaped, html.EscapeString(newText), 1), true
	}
	return b.HTML, false
}

func exclusionMatcher(selectors []string) (func(*html.Node) bool, error) {
	if len(selectors) == 0 {
		return nil, nil
	}
	compiled := make([]cascadia.Selector, 0, len(selectors))
	for _, s := range selectors {
		sel, err := cascadia.Compile(s)
		if err != nil {
			return nil, &lperr.Error{
				Type:    lperr.TypeInvalidInput,
				Message: fmt.Sprintf("bad exclude selector %q", s),
				Cause:   err,
			}
		}
		compiled = append(compiled, sel)
	}
	return func(n *html.Node) bool {
		for _, sel := range compiled {
			if sel.Match(n) {
				return true
			}
		}
		return false
	}, nil
}

func firedStats(fired []bool) Stats {
	s := Stats{}
	for _, f := range fired {
		if f {
			s.Applied++
		} else {
			s.Skipped++
		}
	}
	return s
}
