package dom

import (
	"strings"
	"testing"
)

func TestRemoveSelectors(t *testing.T) {
	html := `<div><p class="keep">a</p><p class="rm">b</p><div class="rm">c</div></div>`
	doc, err := ParseFragment(html)
	if err != nil {
		t.Fatalf("ParseFragment error: %v", err)
	}
	if n := RemoveSelectors(doc, ".rm"); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	out := RenderFragment(doc)
	if strings.Contains(out, "class=\"rm\"") || strings.Contains(out, ">b<") || strings.Contains(out, ">c<") {
		t.Fatalf("expected removed content, got: %s", out)
	}
	if !strings.Contains(out, "class=\"keep\"") {
		t.Fatalf("expected keep content, got: %s", out)
	}
}

func TestRemoveSelectors_EmptySelector(t *testing.T) {
	doc, err := ParseFragment(`<p>a</p>`)
	if err != nil {
		t.Fatalf("ParseFragment error: %v", err)
	}
	if n := RemoveSelectors(doc, "  "); n != 0 {
		t.Fatalf("expected no removal, got %d", n)
	}
}
