package markdown

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"lpforge/internal/block"
	"lpforge/internal/dialect"
)

// MediaPlugin renders lazy-loaded images and videos, which the default
// rules drop or point at placeholders, and keeps definition lists readable.
func MediaPlugin(d dialect.Compiled) md.Plugin {
	return func(conv *md.Converter) []md.Rule {
		return []md.Rule{
			{
				Filter: []string{"img"},
				Replacement: func(_ string, selec *goquery.Selection, _ *md.Options) *string {
					src, ok := selec.Attr(d.LazySrcAttr)
					if !ok || strings.TrimSpace(src) == "" {
						return nil
					}
					res := "![" + selec.AttrOr("alt", "") + "](" + strings.TrimSpace(src) + ")"
					return &res
				},
			},
			{
				Filter: []string{"video"},
				Replacement: func(_ string, selec *goquery.Selection, _ *md.Options) *string {
					src := block.VideoSource(selec, d)
					if src == "" {
						empty := ""
						return &empty
					}
					res := "\n[video](" + src + ")\n"
					return &res
				},
			},
			{
				Filter: []string{"dt"},
				Replacement: func(content string, _ *goquery.Selection, _ *md.Options) *string {
					res := "\n**" + strings.TrimSpace(content) + "**\n"
					return &res
				},
			},
			{
				Filter: []string{"dd"},
				Replacement: func(content string, _ *goquery.Selection, _ *md.Options) *string {
					res := ": " + strings.TrimSpace(content) + "\n"
					return &res
				},
			},
		}
	}
}
