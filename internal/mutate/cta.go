package mutate

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"lpforge/internal/dialect"
	"lpforge/internal/dom"
)

var nonNavigatingSchemes = []string{"mailto:", "tel:", "javascript:"}

// IsCTA judges whether a link is a call to action. Links wrapping an image
// always are. Otherwise footer/legal links, non-navigating links and fine
// print (font-size at or below FinePrintMaxPx) are not.
func IsCTA(a *goquery.Selection, h dialect.Heuristics) bool {
	if a.Find("img, picture").Length() > 0 {
		return true
	}
	href := strings.TrimSpace(a.AttrOr("href", ""))
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	for _, scheme := range nonNavigatingSchemes {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	if dialect.ContainsAny(href, h.FooterKeywords) || dialect.ContainsAny(dom.Text(a), h.FooterKeywords) {
		return false
	}
	if size, ok := linkFontSize(a); ok && size <= h.FinePrintMaxPx {
		return false
	}
	return true
}

// linkFontSize is the largest size declared inside the link, or the size it
// inherits when it declares none.
func linkFontSize(a *goquery.Selection) (float64, bool) {
	if size, ok := dom.MaxFontSizePx(a); ok {
		return size, true
	}
	return dom.InheritedFontSizePx(a)
}

// RetargetCTA points every CTA link in doc at target and returns how many
// hrefs changed.
func RetargetCTA(doc *goquery.Document, target string, h dialect.Heuristics) int {
	if strings.TrimSpace(target) == "" {
		return 0
	}
	changed := 0
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if !IsCTA(a, h) {
			return
		}
		if a.AttrOr("href", "") != target {
			a.SetAttr("href", target)
			changed++
		}
	})
	return changed
}

// Link is a CTA candidate reported by Analyze.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text,omitempty"`
}

// CTALinks lists the links of doc judged to be CTAs, in document order.
func CTALinks(doc *goquery.Document, h dialect.Heuristics) []Link {
	out := []Link{}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if IsCTA(a, h) {
			out = append(out, Link{Href: a.AttrOr("href", ""), Text: dom.Text(a)})
		}
	})
	return out
}
