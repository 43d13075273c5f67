package app

import (
	"go.uber.org/multierr"

	"lpforge/internal/block"
	"lpforge/internal/output"
)

type blocksDoc struct {
	Blocks   []block.Block   `json:"blocks"`
	Sections []block.Section `json:"sections"`
}

// writeOutputs writes every artefact, continuing past failures so one bad
// file does not hide the others.
func (p *pipeline) writeOutputs(opts Options, res Result) (WriteResult, error) {
	written := WriteResult{OutputDir: opts.OutputDir}
	var errs, err error

	written.BlocksPath, err = output.WriteJSON(opts.OutputDir, output.BlocksFile, blocksDoc{Blocks: res.Blocks, Sections: res.Sections})
	errs = multierr.Append(errs, err)

	written.BuildPath, err = output.WriteHTML(opts.OutputDir, output.BuildFile, res.Build.HTML)
	errs = multierr.Append(errs, err)

	written.ReportPath, err = output.WriteJSON(opts.OutputDir, output.ReportFile, res)
	errs = multierr.Append(errs, err)

	limits := output.ChunkLimits{MaxChars: opts.MaxChars, MaxTokens: opts.MaxTokens}
	written.MarkdownPath, err = output.WriteMarkdownParts(opts.OutputDir, output.ContentFile, res.Markdown, limits)
	errs = multierr.Append(errs, err)

	return written, errs
}
