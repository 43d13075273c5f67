package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RemoveSelectors drops every element matching selector before the page is
// decomposed. Used for site chrome (nav bars, cookie banners) that should
// not become blocks.
func RemoveSelectors(doc *goquery.Document, selector string) int {
	if doc == nil || strings.TrimSpace(selector) == "" {
		return 0
	}
	sel := doc.Find(selector)
	n := sel.Length()
	sel.Remove()
	return n
}
