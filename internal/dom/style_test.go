package dom_test

import (
	"testing"

	"lpforge/internal/dom"
)

func TestDeclarations(t *testing.T) {
	decls := dom.Declarations("font-size: 24px; COLOR: #FF0000; font-weight:bold")
	if len(decls) != 3 {
		t.Fatalf("expected 3 declarations, got %d (%v)", len(decls), decls)
	}
	if decls[1].Property != "color" {
		t.Fatalf("expected lowercased property, got %q", decls[1].Property)
	}
	if decls[0].Value != "24px" {
		t.Fatalf("expected 24px, got %q", decls[0].Value)
	}
}

func TestFontSizePx(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"21px", 21, true},
		{" 12.5px ", 12.5, true},
		{"18pt", 24, true},
		{"1.2rem", 0, false},
		{"large", 0, false},
	}
	for _, c := range cases {
		got, ok := dom.FontSizePx(c.in)
		if ok != c.ok || got != c.want {
			t.Fatalf("FontSizePx(%q): expected (%v, %v), got (%v, %v)", c.in, c.want, c.ok, got, ok)
		}
	}
}

func TestMaxFontSizePx_IncludesDescendants(t *testing.T) {
	doc, err := dom.ParseFragment(`<div style="font-size:14px"><span style="font-size:28px">Big</span></div>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := dom.MaxFontSizePx(doc.Find("div"))
	if !ok || got != 28 {
		t.Fatalf("expected 28px, got %v (%v)", got, ok)
	}
}

func TestInheritedFontSizePx(t *testing.T) {
	doc, err := dom.ParseFragment(`<p style="font-size:10px"><a href="/x">small</a></p>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := dom.InheritedFontSizePx(doc.Find("a"))
	if !ok || got != 10 {
		t.Fatalf("expected inherited 10px, got %v (%v)", got, ok)
	}
}

func TestColors(t *testing.T) {
	doc, err := dom.ParseFragment(`<div><span style="color: red">a</span><font color="#f00">b</font><i style="background-color:blue">c</i></div>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	colors := dom.Colors(doc.Find("div"))
	if len(colors) != 2 {
		t.Fatalf("expected 2 colors, got %v", colors)
	}
}
