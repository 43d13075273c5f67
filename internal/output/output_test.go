package output_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lpforge/internal/block"
	"lpforge/internal/output"
)

func TestWriteJSONAndHTML(t *testing.T) {
	dir := t.TempDir()
	blocks := []block.Block{{Index: 0, Type: block.TypeText, HTML: "<p>x</p>", Text: "x"}}

	jsonPath, err := output.WriteJSON(dir, output.BlocksFile, blocks)
	if err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("missing json output: %v", err)
	}
	var back []block.Block
	if err := json.Unmarshal(data, &back); err != nil || len(back) != 1 || back[0].HTML != "<p>x</p>" {
		t.Fatalf("unexpected blocks.json %s (%v)", data, err)
	}

	htmlPath, err := output.WriteHTML(filepath.Join(dir, "nested"), output.BuildFile, "<p>built</p>")
	if err != nil {
		t.Fatalf("WriteHTML error: %v", err)
	}
	if got, _ := os.ReadFile(htmlPath); string(got) != "<p>built</p>" {
		t.Fatalf("expected html written verbatim, got %q", got)
	}
}

func TestWriteMarkdownParts_ProducesIndexAndParts(t *testing.T) {
	dir := t.TempDir()
	parts := []string{
		"## intro\n\n" + strings.Repeat("a", 50) + "\n",
		"## section_1\n\n" + strings.Repeat("b", 50) + "\n",
		"## section_2\n\n" + strings.Repeat("c", 50) + "\n",
	}

	mdPath, err := output.WriteMarkdownParts(dir, output.ContentFile, parts, output.ChunkLimits{MaxBytes: 120})
	if err != nil {
		t.Fatalf("WriteMarkdownParts error: %v", err)
	}
	idx, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("missing content index: %v", err)
	}
	if !strings.Contains(string(idx), "Split into 3 parts") || !strings.Contains(string(idx), "content/part-003.md") {
		t.Fatalf("unexpected index: %s", idx)
	}
	part, err := os.ReadFile(filepath.Join(dir, "content", "part-001.md"))
	if err != nil {
		t.Fatalf("missing content part: %v", err)
	}
	if !strings.HasPrefix(string(part), "## intro") {
		t.Fatalf("part content wrong: %s", part)
	}
}

func TestWriteMarkdownParts_BundlesSmallParts(t *testing.T) {
	dir := t.TempDir()
	parts := []string{"## a\n\nx\n", "## b\n\ny\n", strings.Repeat("z", 300)}

	if _, err := output.WriteMarkdownParts(dir, output.ContentFile, parts, output.ChunkLimits{MaxChars: 100}); err != nil {
		t.Fatalf("WriteMarkdownParts error: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(dir, "content", "part-001.md"))
	if err != nil {
		t.Fatalf("missing part: %v", err)
	}
	if !strings.Contains(string(first), "## a") || !strings.Contains(string(first), "## b") {
		t.Fatalf("expected small parts bundled, got %s", first)
	}
	if _, err := os.Stat(filepath.Join(dir, "content", "part-002.md")); err != nil {
		t.Fatalf("expected oversized part alone: %v", err)
	}
}

func TestWriteMarkdownParts_NoSplitWritesFileOnly(t *testing.T) {
	dir := t.TempDir()
	out, err := output.WriteMarkdownParts(dir, output.ContentFile, []string{"## intro\n\ntext\n"}, output.ChunkLimits{MaxBytes: 1000})
	if err != nil {
		t.Fatalf("WriteMarkdownParts: %v", err)
	}
	if data, _ := os.ReadFile(out); string(data) != "## intro\n\ntext\n" {
		t.Fatalf("unexpected content %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "content")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no content directory, got %v", err)
	}
}
