// Package dom is the thin DOM access layer: parsing, serialization,
// text-node iteration and URL resolution over goquery and x/net/html.
package dom

import (
	"bytes"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses a complete page. The HTML5 parser adds html/head/body
// wrappers where the input omits them.
func Parse(htmlText string) (*goquery.Document, error) {
	if strings.TrimSpace(htmlText) == "" {
		return nil, errors.New("empty html")
	}
	return goquery.NewDocumentFromReader(strings.NewReader(htmlText))
}

// ParseFragment parses markup in a body context under a synthetic document
// root. Nothing is hoisted into a head and no wrapper elements are created,
// so RenderFragment reproduces the fragment's own top-level nodes.
func ParseFragment(htmlText string) (*goquery.Document, error) {
	root := &html.Node{Type: html.DocumentNode}
	if strings.TrimSpace(htmlText) != "" {
		context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
		nodes, err := html.ParseFragment(strings.NewReader(htmlText), context)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			root.AppendChild(n)
		}
	}
	return goquery.NewDocumentFromNode(root), nil
}

// IsDocument reports whether markup looks like a whole page rather than a fragment.
func IsDocument(htmlText string) bool {
	head := strings.ToLower(strings.TrimSpace(htmlText))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype") || strings.Contains(head, "<html") || strings.Contains(head, "<body")
}

// ParseAny parses whole pages with Parse and everything else with ParseFragment.
func ParseAny(htmlText string) (*goquery.Document, bool, error) {
	if IsDocument(htmlText) {
		doc, err := Parse(htmlText)
		return doc, true, err
	}
	doc, err := ParseFragment(htmlText)
	return doc, false, err
}

// Root returns the document node backing doc.
func Root(doc *goquery.Document) *html.Node {
	if doc == nil || doc.Selection == nil || len(doc.Nodes) == 0 {
		return nil
	}
	return doc.Nodes[0]
}

// Children returns the top-level nodes of the body for a full document, or
// the top-level nodes of a fragment.
func Children(doc *goquery.Document) []*html.Node {
	root := Root(doc)
	if root == nil {
		return nil
	}
	parent := root
	if body := doc.Find("body").First(); isFullDocument(root) && body.Length() > 0 {
		parent = body.Get(0)
	}
	out := []*html.Node{}
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func isFullDocument(root *html.Node) bool {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Html {
			return true
		}
	}
	return false
}

// RenderNode serializes a node and its subtree.
func RenderNode(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// Render serializes every node of a selection, in order.
func Render(sel *goquery.Selection) string {
	if sel == nil {
		return ""
	}
	var b strings.Builder
	for _, n := range sel.Nodes {
		b.WriteString(RenderNode(n))
	}
	return b.String()
}

// RenderFragment serializes the top-level nodes of a fragment document.
func RenderFragment(doc *goquery.Document) string {
	root := Root(doc)
	if root == nil {
		return ""
	}
	var b strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(RenderNode(c))
	}
	return b.String()
}

// RenderDocument serializes a document parsed by ParseAny the way it was parsed.
func RenderDocument(doc *goquery.Document, full bool) string {
	if !full {
		return RenderFragment(doc)
	}
	out, err := doc.Html()
	if err != nil {
		return ""
	}
	return out
}

// ResolveURL resolves ref against base. ref is returned unchanged when
// either side fails to parse.
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.TrimSpace(base) == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// Attr returns the value of an attribute on a raw node.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// FirstAttr returns the first non-empty value among keys, in order.
func FirstAttr(sel *goquery.Selection, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(sel.AttrOr(k, "")); v != "" {
			return v
		}
	}
	return ""
}

// IsBlank reports whether a node carries no content: whitespace text,
// comments and doctypes.
func IsBlank(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return strings.TrimSpace(n.Data) == ""
	case html.CommentNode, html.DoctypeNode:
		return true
	}
	return false
}
