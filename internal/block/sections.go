package block

import (
	"fmt"

	"lpforge/internal/dialect"
)

// Section is a contiguous run of blocks. It is a view over a block
// sequence and must be recomputed after structural edits.
type Section struct {
	StartIndex   int    `json:"startIndex"`
	BlockIndices []int  `json:"blockIndices"`
	Label        string `json:"label"`
}

// DetectSections groups blocks into sections. Headings, CTA links and flash
// widgets open a new section unless the current one is still empty.
func DetectSections(blocks []Block, h dialect.Heuristics) []Section {
	h = h.WithDefaults()
	out := []Section{}
	current := Section{Label: "intro"}
	for _, b := range blocks {
		if isBoundary(b, h) && len(current.BlockIndices) > 0 {
			out = append(out, current)
			current = Section{Label: fmt.Sprintf("section_%d", len(out))}
		}
		if len(current.BlockIndices) == 0 {
			current.StartIndex = b.Index
		}
		current.BlockIndices = append(current.BlockIndices, b.Index)
	}
	if len(current.BlockIndices) > 0 {
		out = append(out, current)
	}
	return out
}

func isBoundary(b Block, h dialect.Heuristics) bool {
	switch b.Type {
	case TypeHeading, TypeCTALink:
		return true
	case TypeWidget:
		return h.IsFlashWidget(b.WidgetType)
	}
	return false
}
