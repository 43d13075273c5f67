package block

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"lpforge/internal/dialect"
	"lpforge/internal/dom"
)

// rule is one step of the classification cascade. The first rule whose
// match reports true builds the block.
type rule struct {
	name  string
	match func(p *probe) bool
	build func(p *probe) Block
}

// cascade returns the rules in priority order.
func cascade() []rule {
	return []rule{
		{name: "widget", match: isWidget, build: buildWidget},
		{name: "quiz", match: isQuiz, build: typed(TypeQuiz)},
		{name: "review", match: isReview, build: typed(TypeReview)},
		{name: "fv", match: isFirstView, build: typed(TypeFV)},
		{name: "comparison", match: isComparison, build: typed(TypeComparison)},
		{name: "video", match: isVideo, build: buildVideo},
		{name: "image", match: (*probe).hasImage, build: buildImage},
		{name: "spacer", match: isSpacer, build: typed(TypeSpacer)},
		{name: "text", match: hasText, build: buildText},
		{name: "fallback", match: func(*probe) bool { return true }, build: typed(TypeSpacer)},
	}
}

// RuleNames lists the cascade in priority order.
func RuleNames() []string {
	rules := cascade()
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.name
	}
	return out
}

func typed(t Type) func(*probe) Block {
	return func(*probe) Block { return Block{Type: t} }
}

func isWidget(p *probe) bool {
	return p.has(p.d.WidgetSelector)
}

func buildWidget(p *probe) Block {
	b := Block{Type: TypeWidget, WidgetType: guessWidgetType(p)}
	p.all("[id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id := s.AttrOr("id", "")
		if _, ok := p.d.PartIDPrefix(id); !ok {
			return true
		}
		b.VendorPartID = id
		b.VendorClass = p.d.PartClass(s.AttrOr("class", ""))
		return false
	})
	if b.VendorClass == "" {
		p.all("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			b.VendorClass = p.d.PartClass(s.AttrOr("class", ""))
			return b.VendorClass == ""
		})
	}
	return b
}

// guessWidgetType tries class fingerprints, then the margin-reset marker,
// then the short disclaimer list shape.
func guessWidgetType(p *probe) string {
	tokens := map[string]bool{}
	for _, t := range strings.Fields(p.classes) {
		tokens[t] = true
	}
	for _, fp := range p.h.WidgetFingerprints {
		if len(fp.Classes) == 0 {
			continue
		}
		all := true
		for _, c := range fp.Classes {
			if !tokens[c] {
				all = false
				break
			}
		}
		if all {
			return fp.Type
		}
	}
	if strings.Contains(compactCSS(p.style()), compactCSS(dialect.TrailingMarker)) {
		return dialect.WidgetMarginReset
	}
	if lists := p.all("ul, ol"); lists.Length() > 0 {
		items := lists.Find("li").Length()
		if items > 0 && items <= p.h.DisclaimerMaxItems &&
			(utf8.RuneCountInString(p.text) <= p.h.DisclaimerMaxChars || strings.Contains(p.text, "※")) {
			return dialect.WidgetDisclaimer
		}
	}
	return dialect.WidgetCustom
}

func compactCSS(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func isQuiz(p *probe) bool {
	return p.has(`input[type="radio"], input[type="checkbox"]`) ||
		dialect.ContainsAny(p.classes, p.h.QuizKeywords)
}

func isReview(p *probe) bool {
	return dialect.ContainsAny(p.classes, p.h.ReviewClassKeywords) ||
		dialect.ContainsAny(lead(p.text, p.h.ReviewLeadChars), p.h.ReviewTextKeywords)
}

func isFirstView(p *probe) bool {
	return p.index == 0 && p.hasImage()
}

func isComparison(p *probe) bool {
	return p.has("table") ||
		dialect.ContainsAny(p.classes, p.h.ComparisonKeywords) ||
		dialect.ContainsAny(lead(p.text, p.h.ReviewLeadChars), p.h.ComparisonKeywords)
}

func isVideo(p *probe) bool {
	return p.has("video")
}

func buildVideo(p *probe) Block {
	video := p.all("video").First()
	return Block{
		Type:     TypeVideo,
		VideoSrc: VideoSource(p.sel, p.d),
		Width:    intAttr(video, "width"),
		Height:   intAttr(video, "height"),
	}
}

func buildImage(p *probe) Block {
	link := p.all("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
		return a.Find("picture, img").Length() > 0
	}).First()
	if link.Length() > 0 {
		return Block{Type: TypeCTALink, Href: link.AttrOr("href", "")}
	}
	return Block{Type: TypeImage}
}

func isSpacer(p *probe) bool {
	if p.text != "" {
		return false
	}
	return p.has("br") || isEmptyWrapper(p.node)
}

// isEmptyWrapper reports a block-level element with no element children and
// no text.
func isEmptyWrapper(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Div, atom.P, atom.Section, atom.Article, atom.Header, atom.Footer,
		atom.Aside, atom.Main, atom.Nav, atom.Figure, atom.Center, atom.Hr:
	default:
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !dom.IsBlank(c) {
			return false
		}
	}
	return true
}

func hasText(p *probe) bool {
	return p.text != ""
}

func buildText(p *probe) Block {
	b := Block{Type: TypeText}
	if size, ok := dom.MaxFontSizePx(p.sel); ok {
		b.FontSize = size
	}
	b.HasStrong = hasStrong(p)
	colors := dom.Colors(p.sel)
	b.HasColor = len(colors) > 0
	alert := false
	for _, c := range colors {
		if p.h.IsAlertColor(c) {
			alert = true
			break
		}
	}
	if IsHeading(p.text, b.FontSize, b.HasStrong, alert, p.has("h1, h2, h3, h4, h5, h6"), p.h) {
		b.Type = TypeHeading
	}
	return b
}

// IsHeading applies the heading heuristic: short text set large and either
// bold or alert-colored, or any native heading element.
func IsHeading(text string, fontSize float64, strong, alertColor, nativeHeading bool, h dialect.Heuristics) bool {
	if nativeHeading {
		return true
	}
	return utf8.RuneCountInString(text) <= h.HeadingMaxChars &&
		fontSize >= h.HeadingMinFontPx &&
		(strong || alertColor)
}

func hasStrong(p *probe) bool {
	if p.has("b, strong") {
		return true
	}
	found := false
	p.all("[style]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		weight, ok := dom.StyleValue(s.AttrOr("style", ""), "font-weight")
		if !ok {
			return true
		}
		found = isBold(weight)
		return !found
	})
	return found
}

func isBold(weight string) bool {
	w := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(weight), "!important")))
	if w == "bold" || w == "bolder" {
		return true
	}
	n, err := strconv.Atoi(w)
	return err == nil && n >= 600
}

// lead returns the first n runes of s.
func lead(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
