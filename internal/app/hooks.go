package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// WriteResult lists the artefact paths of a run.
type WriteResult struct {
	OutputDir    string
	BlocksPath   string
	BuildPath    string
	ReportPath   string
	MarkdownPath string
}

// Hook is a named pipeline extension. A hook takes part in a stage by
// also implementing BeforeWriter or AfterWriter.
type Hook interface {
	Name() string
}

// BeforeWriter inspects or adjusts the result before anything is written.
// An error aborts the run with nothing on disk.
type BeforeWriter interface {
	BeforeWrite(ctx context.Context, opts Options, res *Result) error
}

// AfterWriter runs once every artefact is on disk.
type AfterWriter interface {
	AfterWrite(ctx context.Context, opts Options, res Result, written WriteResult) error
}

var hookRegistry = map[string]func() Hook{
	"strict-report": func() Hook { return strictReportHook{} },
	"require-cta":   func() Hook { return requireCTAHook{} },
	"exec":          func() Hook { return execHook{} },
}

func buildHooks(opts Options) ([]Hook, error) {
	var hooks []Hook
	for _, name := range dedupePreserveOrder(opts.PipelineHooks) {
		factory, ok := hookRegistry[name]
		if !ok {
			return nil, fmt.Errorf("unknown pipeline hook %q (available: %s)", name, strings.Join(hookNames(), ", "))
		}
		hooks = append(hooks, factory())
	}
	return hooks, nil
}

func (p *pipeline) runBeforeWriteHooks(ctx context.Context, opts Options, res *Result) error {
	for _, h := range p.hooks {
		bw, ok := h.(BeforeWriter)
		if !ok {
			continue
		}
		if err := bw.BeforeWrite(ctx, opts, res); err != nil {
			return fmt.Errorf("hook %q failed (before write): %w", h.Name(), err)
		}
	}
	return nil
}

func (p *pipeline) runAfterWriteHooks(ctx context.Context, opts Options, res Result, written WriteResult) error {
	for _, h := range p.hooks {
		aw, ok := h.(AfterWriter)
		if !ok {
			continue
		}
		if err := aw.AfterWrite(ctx, opts, res, written); err != nil {
			return fmt.Errorf("hook %q failed (after write): %w", h.Name(), err)
		}
	}
	return nil
}

// dedupePreserveOrder trims items and drops blanks and repeats.
func dedupePreserveOrder(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, raw := range items {
		v := strings.TrimSpace(raw)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func hookNames() []string {
	names := make([]string, 0, len(hookRegistry))
	for name := range hookRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// strictReportHook refuses to write output that carries any validator
// finding, warnings included.
type strictReportHook struct{}

func (strictReportHook) Name() string { return "strict-report" }

func (strictReportHook) BeforeWrite(_ context.Context, _ Options, res *Result) error {
	if n := len(res.Report.Errors) + len(res.Report.Warnings); n > 0 {
		return fmt.Errorf("validation reported %d finding(s)", n)
	}
	return nil
}

// requireCTAHook fails a run that was given a CTA URL but found no link
// to point at it.
type requireCTAHook struct{}

func (requireCTAHook) Name() string { return "require-cta" }

func (requireCTAHook) BeforeWrite(_ context.Context, opts Options, res *Result) error {
	if opts.Build.CTAURL == "" {
		return errors.New("no CTA URL configured")
	}
	if res.Build.CTAsRetargeted == 0 {
		return fmt.Errorf("no call-to-action link found for %s", opts.Build.CTAURL)
	}
	return nil
}

// execHook runs PostCommands through the shell inside the output directory.
type execHook struct{}

func (execHook) Name() string { return "exec" }

func (execHook) AfterWrite(ctx context.Context, opts Options, res Result, written WriteResult) error {
	env := append(os.Environ(), hookEnv(opts, res, written)...)
	for _, line := range opts.PostCommands {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd := shellCommand(ctx, line)
		cmd.Env = env
		cmd.Dir = written.OutputDir
		if opts.Stdout {
			// stdout carries the built page
			cmd.Stdout = os.Stderr
			cmd.Stderr = os.Stderr
		}
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("post command failed %q: %w", line, err)
		}
	}
	return nil
}

func hookEnv(opts Options, res Result, written WriteResult) []string {
	src := opts.URL
	if src == "" {
		src = opts.Input
	}
	return []string{
		"LPFORGE_SOURCE=" + src,
		"LPFORGE_OUTPUT_DIR=" + written.OutputDir,
		"LPFORGE_BLOCKS_PATH=" + written.BlocksPath,
		"LPFORGE_BUILD_PATH=" + written.BuildPath,
		"LPFORGE_REPORT_PATH=" + written.ReportPath,
		"LPFORGE_MARKDOWN_PATH=" + written.MarkdownPath,
		"LPFORGE_VALID=" + strconv.FormatBool(res.Report.Valid),
	}
}

func shellCommand(ctx context.Context, line string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", line)
	}
	return exec.CommandContext(ctx, "sh", "-c", line)
}
