// Package validate checks build output against the dialect rules.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"lpforge/internal/dialect"
	"lpforge/internal/dom"
)

var wrapperTagRe = regexp.MustCompile(`(?i)<\s*/?\s*(html|head|body)\b`)

// PairCount is a part id/class pair and how often it occurs. Repeats are
// legitimate vendor markup and are reported for information only.
type PairCount struct {
	ID    string `json:"id"`
	Class string `json:"class,omitempty"`
	Count int    `json:"count"`
}

// Report is the validation outcome. Errors break dialect compliance;
// warnings are advisory.
type Report struct {
	Valid          bool        `json:"valid"`
	Errors         []string    `json:"errors"`
	Warnings       []string    `json:"warnings"`
	DuplicatePairs []PairCount `json:"duplicate_pairs,omitempty"`
}

// Validate inspects htmlText. It has no side effects and the same input
// always yields the same report.
func Validate(htmlText string, d dialect.Compiled) Report {
	r := Report{Errors: []string{}, Warnings: []string{}}
	r.Errors = append(r.Errors, wrapperErrors(htmlText)...)

	doc, err := dom.ParseFragment(htmlText)
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("unparseable html: %v", err))
		r.Valid = false
		return r
	}
	r.Warnings = append(r.Warnings, imageWarnings(doc, d)...)
	r.Warnings = append(r.Warnings, videoWarnings(doc, d)...)
	r.DuplicatePairs = findDuplicatePairs(doc, d)
	r.Valid = len(r.Errors) == 0
	return r
}

func wrapperErrors(htmlText string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, m := range wrapperTagRe.FindAllStringSubmatch(htmlText, -1) {
		tag := strings.ToLower(m[1])
		if seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, fmt.Sprintf("wrapper tag <%s> is not allowed in dialect fragments", tag))
	}
	return out
}

func imageWarnings(doc *goquery.Document, d dialect.Compiled) []string {
	out := []string{}
	doc.Find("img").Each(func(i int, img *goquery.Selection) {
		label := describe("img", i, dom.FirstAttr(img, d.LazySrcAttr, "src"))
		if !img.HasClass(d.LazyClass) {
			out = append(out, fmt.Sprintf("%s lacks class %q", label, d.LazyClass))
		}
		if _, ok := img.Attr(d.LazySrcAttr); !ok {
			out = append(out, fmt.Sprintf("%s lacks %s", label, d.LazySrcAttr))
		}
	})
	return out
}

func videoWarnings(doc *goquery.Document, d dialect.Compiled) []string {
	out := []string{}
	doc.Find("video").Each(func(i int, video *goquery.Selection) {
		label := describe("video", i, "")
		if !video.HasClass(d.LazyClass) {
			out = append(out, fmt.Sprintf("%s lacks class %q", label, d.LazyClass))
		}
		video.Find("source").Each(func(j int, src *goquery.Selection) {
			if _, ok := src.Attr(d.LazySrcAttr); !ok {
				out = append(out, fmt.Sprintf("%s source %d (%s) lacks %s", label, j, src.AttrOr("src", ""), d.LazySrcAttr))
			}
		})
	})
	return out
}

func describe(kind string, i int, src string) string {
	if src == "" {
		return fmt.Sprintf("%s %d", kind, i)
	}
	return fmt.Sprintf("%s %d (%s)", kind, i, src)
}

func findDuplicatePairs(doc *goquery.Document, d dialect.Compiled) []PairCount {
	counts := map[[2]string]int{}
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		if _, ok := d.PartIDPrefix(id); !ok {
			return
		}
		counts[[2]string{id, d.PartClass(s.AttrOr("class", ""))}]++
	})
	dups := []PairCount{}
	for pair, n := range counts {
		if n > 1 {
			dups = append(dups, PairCount{ID: pair[0], Class: pair[1], Count: n})
		}
	}
	sort.Slice(dups, func(i, j int) bool {
		if dups[i].ID != dups[j].ID {
			return dups[i].ID < dups[j].ID
		}
		return dups[i].Class < dups[j].Class
	})
	return dups
}
