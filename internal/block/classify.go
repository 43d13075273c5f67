package block

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"lpforge/internal/dialect"
	"lpforge/internal/dom"
)

// Classifier turns top-level nodes into typed blocks. It holds no mutable
// state and may be shared between goroutines.
type Classifier struct {
	h     dialect.Heuristics
	d     dialect.Compiled
	rules []rule
	log   *zap.Logger
}

// NewClassifier builds a classifier. A nil logger disables logging.
func NewClassifier(h dialect.Heuristics, d dialect.Compiled, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{
		h:     h.WithDefaults(),
		d:     d,
		rules: cascade(),
		log:   log.Named("classify"),
	}
}

// Heuristics returns the thresholds in effect.
func (c *Classifier) Heuristics() dialect.Heuristics { return c.h }

// Dialect returns the dialect in effect.
func (c *Classifier) Dialect() dialect.Compiled { return c.d }

// ClassifyDocument parses markup (a full page or a fragment) and classifies
// every top-level node of its body. Blank nodes are dropped and indices are
// dense.
func (c *Classifier) ClassifyDocument(htmlText string) ([]Block, error) {
	doc, _, err := dom.ParseAny(htmlText)
	if err != nil {
		return nil, err
	}
	return c.ClassifyNodes(dom.Children(doc)), nil
}

// ClassifyNodes classifies nodes in order, assigning dense indices.
func (c *Classifier) ClassifyNodes(nodes []*html.Node) []Block {
	out := []Block{}
	for _, n := range nodes {
		if b := c.ClassifyNode(n, len(out)); b != nil {
			out = append(out, *b)
		}
	}
	c.log.Debug("classified", zap.Int("nodes", len(nodes)), zap.Int("blocks", len(out)))
	return out
}

// ClassifyNode returns the block for one top-level node, or nil for blank
// nodes (whitespace text, comments, doctypes).
func (c *Classifier) ClassifyNode(n *html.Node, index int) *Block {
	if n == nil || dom.IsBlank(n) {
		return nil
	}
	b := c.classify(n, index)
	b.HTML = dom.RenderNode(n)
	return &b
}

// Reclassify re-derives every field of b from b.HTML, keeping its index and
// html. It is run after each mutation so the derived fields never go stale.
func (c *Classifier) Reclassify(b Block) Block {
	doc, err := dom.ParseFragment(b.HTML)
	if err != nil {
		return Block{Index: b.Index, Type: TypeSpacer, HTML: b.HTML}
	}
	root := dom.Root(doc)
	content := []*html.Node{}
	for ch := root.FirstChild; ch != nil; ch = ch.NextSibling {
		if !dom.IsBlank(ch) {
			content = append(content, ch)
		}
	}
	var out Block
	switch len(content) {
	case 0:
		out = Block{Index: b.Index, Type: TypeSpacer}
	case 1:
		out = c.classify(content[0], b.Index)
	default:
		out = c.classify(root, b.Index)
	}
	out.HTML = b.HTML
	return out
}

func (c *Classifier) classify(n *html.Node, index int) Block {
	p := newProbe(n, index, c.h, c.d)
	for _, r := range c.rules {
		if !r.match(p) {
			continue
		}
		b := r.build(p)
		b.Index = index
		b.Text = p.text
		b.Style = p.style()
		b.Assets = ExtractAssets(p.sel, c.d)
		if len(b.Assets) == 0 {
			b.Assets = nil
		}
		return b
	}
	return Block{Index: index, Type: TypeSpacer}
}

// probe caches what the rules ask about a node.
type probe struct {
	node    *html.Node
	sel     *goquery.Selection
	index   int
	text    string
	classes string
	h       dialect.Heuristics
	d       dialect.Compiled
}

func newProbe(n *html.Node, index int, h dialect.Heuristics, d dialect.Compiled) *probe {
	p := &probe{
		node:  n,
		sel:   goquery.NewDocumentFromNode(n).Selection,
		index: index,
		h:     h,
		d:     d,
	}
	if n.Type == html.TextNode {
		p.text = n.Data
	} else {
		p.text = dom.NodeText(n)
	}
	p.text = strings.TrimSpace(p.text)
	p.classes = collectClasses(p.sel)
	return p
}

// all matches selector against the node and its descendants.
func (p *probe) all(selector string) *goquery.Selection {
	return selfAndFind(p.sel, selector)
}

func (p *probe) has(selector string) bool {
	return p.all(selector).Length() > 0
}

func (p *probe) hasImage() bool {
	return p.has("picture, img")
}

func (p *probe) style() string {
	var parts []string
	p.all("style").Each(func(_ int, s *goquery.Selection) {
		if css := strings.TrimSpace(s.Text()); css != "" {
			parts = append(parts, css)
		}
	})
	if len(parts) == 0 && p.node.Type == html.ElementNode {
		if v, ok := dom.Attr(p.node, "style"); ok {
			return strings.TrimSpace(v)
		}
	}
	return strings.Join(parts, "\n")
}

func collectClasses(sel *goquery.Selection) string {
	var parts []string
	selfAndFind(sel, "[class]").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.AttrOr("class", ""))
	})
	return strings.Join(parts, " ")
}
