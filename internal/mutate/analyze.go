package mutate

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/width"

	"lpforge/internal/dialect"
	"lpforge/internal/dom"
)

// priceRe matches "1,980円", "980円", "¥1,980" and bare "1,980" groupings.
var priceRe = regexp.MustCompile(`[¥￥]\s?\d{1,3}(?:,\d{3})+|[¥￥]\s?\d+|\d{1,3}(?:,\d{3})+(?:\s?円)?|\d+\s?円`)

// Candidate is a text string seen Count times across the page.
type Candidate struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// Analysis feeds defaults for a mutation config. It is read-only.
type Analysis struct {
	Candidates []Candidate `json:"candidates"`
	CTALinks   []Link      `json:"ctaLinks"`
	Prices     []string    `json:"prices"`
}

// Analyze tallies text-node strings, lists CTA links and extracts price-like
// strings. Full-width digits and yen signs are folded before matching.
func Analyze(htmlText string, h dialect.Heuristics) (Analysis, error) {
	h = h.WithDefaults()
	out := Analysis{Candidates: []Candidate{}, CTALinks: []Link{}, Prices: []string{}}
	if strings.TrimSpace(htmlText) == "" {
		return out, nil
	}
	doc, _, err := dom.ParseAny(htmlText)
	if err != nil {
		return out, err
	}

	counts := map[string]int{}
	order := []string{}
	var flat strings.Builder
	dom.WalkText(dom.Root(doc), nil, func(n *html.Node) {
		flat.WriteString(n.Data)
		flat.WriteByte('\n')
		s := strings.TrimSpace(n.Data)
		l := utf8.RuneCountInString(s)
		if l < h.CandidateMinChars || l > h.CandidateMaxChars {
			return
		}
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	})
	for _, s := range order {
		out.Candidates = append(out.Candidates, Candidate{Text: s, Count: counts[s]})
	}
	sort.SliceStable(out.Candidates, func(i, j int) bool {
		return out.Candidates[i].Count > out.Candidates[j].Count
	})
	if len(out.Candidates) > h.CandidateLimit {
		out.Candidates = out.Candidates[:h.CandidateLimit]
	}

	out.CTALinks = CTALinks(doc, h)
	out.Prices = Prices(flat.String())
	return out, nil
}

// Prices returns the distinct price-like strings of text in order of appearance.
func Prices(text string) []string {
	folded := width.Fold.String(text)
	seen := map[string]bool{}
	out := []string{}
	for _, m := range priceRe.FindAllString(folded, -1) {
		m = strings.TrimSpace(m)
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
