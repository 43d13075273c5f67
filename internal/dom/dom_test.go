package dom_test

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"lpforge/internal/dom"
)

func TestParse_Empty(t *testing.T) {
	if _, err := dom.Parse("   "); err == nil {
		t.Fatal("expected error for empty html")
	}
}

func TestParseFragment_NoWrappers(t *testing.T) {
	in := `<style>.a{color:red}</style><div class="a">Hello</div>`
	doc, err := dom.ParseFragment(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := dom.RenderFragment(doc)
	if out != in {
		t.Fatalf("expected fragment round trip\nexpected: %s\ngot:      %s", in, out)
	}
	if strings.Contains(out, "<body") || strings.Contains(out, "<head") {
		t.Fatalf("unexpected wrapper in %s", out)
	}
}

func TestChildren_FullDocumentUsesBody(t *testing.T) {
	doc, err := dom.Parse(`<html><head><title>x</title></head><body><div>a</div><p>b</p></body></html>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kids := dom.Children(doc)
	if len(kids) != 2 {
		t.Fatalf("expected 2 body children, got %d", len(kids))
	}
	if kids[0].Data != "div" || kids[1].Data != "p" {
		t.Fatalf("unexpected children: %s, %s", kids[0].Data, kids[1].Data)
	}
}

func TestChildren_Fragment(t *testing.T) {
	doc, err := dom.ParseFragment("<div>a</div>\n<p>b</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(dom.Children(doc)); got != 3 {
		t.Fatalf("expected 3 top-level nodes (with whitespace), got %d", got)
	}
}

func TestWalkText_SkipsScriptsAndSkipped(t *testing.T) {
	doc, err := dom.ParseFragment(`<div>one<script>two()</script><span class="x">three</span><style>p{}</style>four</div>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{}
	dom.WalkText(dom.Root(doc), func(n *html.Node) bool {
		v, _ := dom.Attr(n, "class")
		return v == "x"
	}, func(n *html.Node) {
		got = append(got, n.Data)
	})
	if strings.Join(got, ",") != "one,four" {
		t.Fatalf("expected one,four got %v", got)
	}
}

func TestText_IgnoresScript(t *testing.T) {
	doc, err := dom.ParseFragment(`<div> Buy <script>var x=1</script>Now </div>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := dom.Text(doc.Find("div")); got != "Buy Now" {
		t.Fatalf("expected %q, got %q", "Buy Now", got)
	}
}

func TestResolveURL(t *testing.T) {
	cases := []struct {
		base, ref, want string
	}{
		{"https://example.com/lp/index.html", "img/a.png", "https://example.com/lp/img/a.png"},
		{"https://example.com/lp/", "/b.png", "https://example.com/b.png"},
		{"https://example.com/lp/", "https://cdn.example.com/c.png", "https://cdn.example.com/c.png"},
		{"", "img/a.png", "img/a.png"},
	}
	for _, c := range cases {
		if got := dom.ResolveURL(c.base, c.ref); got != c.want {
			t.Fatalf("ResolveURL(%q, %q): expected %q, got %q", c.base, c.ref, c.want, got)
		}
	}
}

func TestIsDocument(t *testing.T) {
	if !dom.IsDocument("<!DOCTYPE html><html><body></body></html>") {
		t.Fatal("expected doctype input to be a document")
	}
	if dom.IsDocument("<div>x</div>") {
		t.Fatal("expected div to be a fragment")
	}
}
