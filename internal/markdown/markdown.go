// Package markdown renders a block sequence as a Markdown digest for copy
// review and for prompting text generators.
package markdown

import (
	"fmt"
	"strings"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"

	"lpforge/internal/block"
	"lpforge/internal/dialect"
)

type Converter struct {
	md *htmltomd.Converter
}

func NewConverter(d dialect.Compiled) *Converter {
	conv := htmltomd.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	conv.Use(TablePlugin())
	conv.Use(MediaPlugin(d))
	conv.Remove("style", "script", "noscript")
	return &Converter{md: conv}
}

// BlockToMarkdown converts one block body.
func (c *Converter) BlockToMarkdown(b block.Block) (string, error) {
	body, err := c.md.ConvertString(b.HTML)
	if err != nil {
		return "", fmt.Errorf("block %d: %w", b.Index, err)
	}
	body = strings.TrimSpace(body)
	if b.Type == block.TypeHeading && body != "" && !strings.HasPrefix(body, "#") {
		body = "### " + strings.ReplaceAll(body, "\n", " ")
	}
	return body, nil
}

// Digest renders every section under a level-two label. Each block is
// introduced by a comment naming its index and type so edits can be mapped
// back to overwrite requests.
func (c *Converter) Digest(blocks []block.Block, sections []block.Section) (string, error) {
	var b strings.Builder
	for _, s := range sections {
		b.WriteString("## ")
		b.WriteString(s.Label)
		b.WriteString("\n\n")
		for _, idx := range s.BlockIndices {
			if idx < 0 || idx >= len(blocks) {
				continue
			}
			blk := blocks[idx]
			b.WriteString(marker(blk))
			b.WriteString("\n")
			body, err := c.BlockToMarkdown(blk)
			if err != nil {
				return "", err
			}
			if body != "" {
				b.WriteString(body)
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func marker(b block.Block) string {
	label := string(b.Type)
	if b.WidgetType != "" {
		label += " " + b.WidgetType
	}
	return fmt.Sprintf("<!-- block %d: %s -->", b.Index, label)
}
