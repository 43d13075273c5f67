package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// WalkText calls fn for every text node under root, skipping script, style
// and noscript subtrees and any element for which skip returns true.
// fn may rewrite n.Data in place.
func WalkText(root *html.Node, skip func(*html.Node) bool, fn func(n *html.Node)) {
	if root == nil {
		return
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			fn(n)
			return
		case html.ElementNode:
			if isRawText(n) {
				return
			}
			if skip != nil && skip(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

// TextNodes collects the text nodes WalkText would visit.
func TextNodes(root *html.Node, skip func(*html.Node) bool) []*html.Node {
	out := []*html.Node{}
	WalkText(root, skip, func(n *html.Node) {
		out = append(out, n)
	})
	return out
}

// Text returns the visible text of a selection, trimmed. Unlike
// goquery's Text it leaves script and style contents out.
func Text(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	var b strings.Builder
	for _, n := range sel.Nodes {
		WalkText(n, nil, func(t *html.Node) {
			b.WriteString(t.Data)
		})
	}
	return strings.TrimSpace(b.String())
}

// NodeText is Text for a single node.
func NodeText(n *html.Node) string {
	var b strings.Builder
	WalkText(n, nil, func(t *html.Node) {
		b.WriteString(t.Data)
	})
	return strings.TrimSpace(b.String())
}

func isRawText(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

// NodeRawText returns the unescaped text children of a raw-text element
// such as style or script.
func NodeRawText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
