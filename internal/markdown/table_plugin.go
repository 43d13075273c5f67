package markdown

import (
	"html"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// TablePlugin renders comparison and ranking tables as GFM tables. Spanned
// cells are repeated so each row reads on its own, and images inside cells
// collapse to their alt text so product shots do not break the row.
func TablePlugin() md.Plugin {
	return func(conv *md.Converter) []md.Rule {
		return []md.Rule{{
			Filter: []string{"table"},
			Replacement: func(_ string, selec *goquery.Selection, _ *md.Options) *string {
				g := newGrid()
				selec.Find("tr").Each(func(r int, tr *goquery.Selection) {
					g.fillRow(conv, r, tr)
				})
				if len(g.rows) == 0 {
					return nil
				}
				res := g.render()
				return &res
			},
		}}
	}
}

// grid is a row-major table whose cells may be pre-filled by rowspans
// from earlier rows.
type grid struct {
	rows  [][]*string
	width int
}

func newGrid() *grid {
	return &grid{}
}

func (g *grid) fillRow(conv *md.Converter, r int, tr *goquery.Selection) {
	g.ensureRow(r)
	c := 0
	tr.Children().Filter("td, th").Each(func(_ int, td *goquery.Selection) {
		for g.cell(r, c) != nil {
			c++
		}
		text := cellText(conv, td)
		rowSpan, colSpan := span(td, "rowspan"), span(td, "colspan")
		for dr := 0; dr < rowSpan; dr++ {
			for dc := 0; dc < colSpan; dc++ {
				g.set(r+dr, c+dc, text)
			}
		}
		c += colSpan
	})
}

func (g *grid) ensureRow(r int) {
	for len(g.rows) <= r {
		g.rows = append(g.rows, nil)
	}
}

func (g *grid) cell(r, c int) *string {
	if r >= len(g.rows) || c >= len(g.rows[r]) {
		return nil
	}
	return g.rows[r][c]
}

func (g *grid) set(r, c int, text string) {
	g.ensureRow(r)
	for len(g.rows[r]) <= c {
		g.rows[r] = append(g.rows[r], nil)
	}
	v := text
	g.rows[r][c] = &v
	if c+1 > g.width {
		g.width = c + 1
	}
}

func (g *grid) render() string {
	var b strings.Builder
	for r := range g.rows {
		b.WriteString("|")
		for c := 0; c < g.width; c++ {
			b.WriteString(" ")
			if v := g.cell(r, c); v != nil {
				b.WriteString(*v)
			}
			b.WriteString(" |")
		}
		b.WriteString("\n")
		if r == 0 {
			b.WriteString("|")
			b.WriteString(strings.Repeat(" --- |", g.width))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

func span(td *goquery.Selection, attr string) int {
	if v, err := strconv.Atoi(td.AttrOr(attr, "1")); err == nil && v > 1 {
		return v
	}
	return 1
}

func cellText(conv *md.Converter, td *goquery.Selection) string {
	cell := td.Clone()
	cell.Find("img").Each(func(_ int, img *goquery.Selection) {
		img.ReplaceWithHtml(html.EscapeString(img.AttrOr("alt", "")))
	})
	text := strings.TrimSpace(conv.Convert(cell))
	text = strings.ReplaceAll(text, "|", "\\|")
	return strings.Join(strings.Fields(text), " ")
}
