// Package output writes project artefacts to the output directory.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	BlocksFile  = "blocks.json"
	BuildFile   = "build.html"
	ReportFile  = "report.json"
	ContentFile = "content.md"
)

// ChunkLimits caps the size of one content.md part. Zero fields are off.
type ChunkLimits struct {
	MaxBytes  int
	MaxChars  int
	MaxTokens int
}

func (c ChunkLimits) Enabled() bool {
	return c.MaxBytes > 0 || c.MaxChars > 0 || c.MaxTokens > 0
}

func (c ChunkLimits) exceeds(size chunkSize) bool {
	return (c.MaxBytes > 0 && size.bytes > c.MaxBytes) ||
		(c.MaxChars > 0 && size.chars > c.MaxChars) ||
		(c.MaxTokens > 0 && size.tokens > c.MaxTokens)
}

type chunkSize struct {
	bytes  int
	chars  int
	tokens int
}

func sizeOf(s string) chunkSize {
	chars := len([]rune(s))
	return chunkSize{bytes: len(s), chars: chars, tokens: (chars + 3) / 4}
}

func (s chunkSize) add(o chunkSize) chunkSize {
	return chunkSize{bytes: s.bytes + o.bytes, chars: s.chars + o.chars, tokens: s.tokens + o.tokens}
}

// WriteJSON writes v indented to outputDir/filename.
func WriteJSON(outputDir, filename string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", filename, err)
	}
	return writeFile(outputDir, filename, append(data, '\n'))
}

// WriteHTML writes a built page fragment as-is.
func WriteHTML(outputDir, filename, html string) (string, error) {
	return writeFile(outputDir, filename, []byte(html))
}

func WriteMarkdown(outputDir, filename, markdown string) (string, error) {
	if filename == "" {
		filename = ContentFile
	}
	return writeFile(outputDir, filename, []byte(markdown))
}

// WriteMarkdownParts writes parts joined into filename. When limits are
// set and the parts do not fit in one chunk, consecutive parts are bundled
// into <name>/part-NNN.md and filename becomes an index of those files.
// A single part larger than the limit gets a chunk of its own.
func WriteMarkdownParts(outputDir, filename string, parts []string, limits ChunkLimits) (string, error) {
	if filename == "" {
		filename = ContentFile
	}
	joined := strings.Join(parts, "")
	if !limits.Enabled() {
		return WriteMarkdown(outputDir, filename, joined)
	}
	bundles := bundleParts(parts, limits)
	if len(bundles) <= 1 {
		return WriteMarkdown(outputDir, filename, joined)
	}

	baseName := strings.TrimSuffix(filename, filepath.Ext(filename))
	partDir := filepath.Join(outputDir, baseName)
	for i, bundle := range bundles {
		if _, err := writeFile(partDir, partName(i), []byte(bundle)); err != nil {
			return "", err
		}
	}

	var index strings.Builder
	index.WriteString(fmt.Sprintf("Split into %d parts:\n\n", len(bundles)))
	for i := range bundles {
		index.WriteString(fmt.Sprintf("- %s/%s\n", baseName, partName(i)))
	}
	return WriteMarkdown(outputDir, filename, index.String())
}

func partName(i int) string {
	return fmt.Sprintf("part-%03d.md", i+1)
}

func bundleParts(parts []string, limits ChunkLimits) []string {
	var (
		bundles []string
		cur     strings.Builder
		curSize chunkSize
	)
	flush := func() {
		if out := strings.TrimSpace(cur.String()); out != "" {
			bundles = append(bundles, out+"\n")
		}
		cur.Reset()
		curSize = chunkSize{}
	}
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		if !strings.HasSuffix(part, "\n") {
			part += "\n"
		}
		size := sizeOf(part)
		if curSize.bytes > 0 && limits.exceeds(curSize.add(size)) {
			flush()
		}
		cur.WriteString(part)
		curSize = curSize.add(size)
		if limits.exceeds(curSize) {
			flush()
		}
	}
	flush()
	return bundles
}

func writeFile(dir, filename string, data []byte) (string, error) {
	if dir == "" {
		dir = "output"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return path, nil
}
