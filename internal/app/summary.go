package app

import (
	"fmt"
	"sort"

	"github.com/dustin/go-humanize"

	"lpforge/internal/block"
)

func printSummary(res Result) {
	fmt.Printf("Source: %s\n", res.Source)
	if res.Stripped > 0 {
		fmt.Printf("Stripped elements: %d\n", res.Stripped)
	}
	fmt.Printf("Blocks: %d in %d sections\n", len(res.Blocks), len(res.Sections))
	for _, tc := range typeCounts(res.Blocks) {
		fmt.Printf("  - %s: %d\n", tc.name, tc.count)
	}

	fmt.Printf("Mutations: %d applied, %d skipped\n", res.Mutation.Applied, res.Mutation.Skipped)
	if len(res.Assets) > 0 {
		var total uint64
		for _, a := range res.Assets {
			total += uint64(a.Size)
		}
		fmt.Printf("Assets downloaded: %d (%s)\n", len(res.Assets), humanize.Bytes(total))
	}
	fmt.Printf("Build: %s, %d part pair(s) remapped, %d image(s) replaced, %d CTA(s) retargeted\n",
		humanize.Bytes(uint64(len(res.Build.HTML))), len(res.Build.Remapped), res.Build.ImagesReplaced, res.Build.CTAsRetargeted)

	status := "valid"
	if !res.Report.Valid {
		status = "INVALID"
	}
	fmt.Printf("Validation: %s (%d error(s), %d warning(s))\n", status, len(res.Report.Errors), len(res.Report.Warnings))
	printList("errors", res.Report.Errors)
	printList("warnings", res.Report.Warnings)
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("  %s:\n", label)
	for _, item := range items {
		fmt.Printf("    - %s\n", item)
	}
}

func printWritten(w WriteResult) {
	fmt.Printf("\nWrote blocks: %s\n", w.BlocksPath)
	fmt.Printf("Wrote build: %s\n", w.BuildPath)
	fmt.Printf("Wrote report: %s\n", w.ReportPath)
	fmt.Printf("Wrote markdown: %s\n", w.MarkdownPath)
}

type typeCount struct {
	name  string
	count int
}

func typeCounts(blocks []block.Block) []typeCount {
	counts := map[block.Type]int{}
	for _, b := range blocks {
		counts[b.Type]++
	}
	out := make([]typeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, typeCount{name: string(t), count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}
