package markdown_test

import (
	"strings"
	"testing"

	"lpforge/internal/block"
	"lpforge/internal/dialect"
	"lpforge/internal/markdown"
)

func TestBlockToMarkdown(t *testing.T) {
	tests := []struct {
		name         string
		block        block.Block
		wantContains []string
		wantMissing  []string
	}{
		{
			name:         "Paragraph",
			block:        block.Block{Type: block.TypeText, HTML: "<p>Hello <strong>world</strong></p>"},
			wantContains: []string{"Hello **world**"},
		},
		{
			name:         "Styled Heading",
			block:        block.Block{Type: block.TypeHeading, HTML: `<p style="font-size:24px"><b>Big claim</b></p>`},
			wantContains: []string{"### **Big claim**"},
		},
		{
			name:         "Native Heading",
			block:        block.Block{Type: block.TypeHeading, HTML: "<h2>Title</h2>"},
			wantContains: []string{"## Title"},
		},
		{
			name:         "Lazy Image",
			block:        block.Block{Type: block.TypeImage, HTML: `<p><img class="lazyload" src="data:image/gif;base64,R0l" data-src="/fv.png" alt="fv"></p>`},
			wantContains: []string{"![fv](/fv.png)"},
			wantMissing:  []string{"data:image"},
		},
		{
			name:         "Video",
			block:        block.Block{Type: block.TypeVideo, HTML: `<video><source data-src="/m.mp4"></video>`},
			wantContains: []string{"[video](/m.mp4)"},
		},
		{
			name:         "Widget Style Dropped",
			block:        block.Block{Type: block.TypeWidget, HTML: `<div class="sb-custom"><style>.x{color:red}</style><p>Limited</p></div>`},
			wantContains: []string{"Limited"},
			wantMissing:  []string{"color:red"},
		},
		{
			name:         "Comparison Table",
			block:        block.Block{Type: block.TypeComparison, HTML: `<table><tr><th rowspan="2">A</th><th>B</th></tr><tr><td>C</td></tr></table>`},
			wantContains: []string{"| A | B |", "| A | C |"},
		},
		{
			name:         "Description List",
			block:        block.Block{Type: block.TypeText, HTML: `<dl><dt>Term</dt><dd>Definition</dd></dl>`},
			wantContains: []string{"**Term**", ": Definition"},
		},
	}

	conv := markdown.NewConverter(dialect.MustDefault())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conv.BlockToMarkdown(tt.block)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q, but got:\n%s", want, got)
				}
			}
			for _, miss := range tt.wantMissing {
				if strings.Contains(got, miss) {
					t.Errorf("expected output without %q, but got:\n%s", miss, got)
				}
			}
		})
	}
}

func TestDigest(t *testing.T) {
	blocks := []block.Block{
		{Index: 0, Type: block.TypeText, HTML: "<p>Intro</p>"},
		{Index: 1, Type: block.TypeHeading, HTML: "<h2>Why</h2>"},
		{Index: 2, Type: block.TypeWidget, WidgetType: "flash", HTML: `<div class="sb-custom"><p>Sale</p></div>`},
	}
	sections := []block.Section{
		{StartIndex: 0, BlockIndices: []int{0}, Label: "intro"},
		{StartIndex: 1, BlockIndices: []int{1, 2}, Label: "section_1"},
	}
	out, err := markdown.NewConverter(dialect.MustDefault()).Digest(blocks, sections)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order := []string{"## intro", "<!-- block 0: text -->", "Intro", "## section_1", "<!-- block 1: heading -->", "## Why", "<!-- block 2: widget flash -->", "Sale"}
	last := -1
	for _, want := range order {
		at := strings.Index(out, want)
		if at <= last {
			t.Fatalf("expected %q after position %d in:\n%s", want, last, out)
		}
		last = at
	}
}
