package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lpforge/internal/app"
	"lpforge/internal/builder"
	"lpforge/internal/fetch"
	"lpforge/internal/logging"
	"lpforge/internal/lperr"
	"lpforge/internal/mutate"
	"lpforge/internal/output"
)

const page = `<!doctype html><html><head><title>LP</title></head><body>` +
	`<h2>Spring sale</h2>` +
	`<p>Buy the old product today.</p>` +
	`<p><img src="/hero.png"></p>` +
	`<a href="/buy">Order now</a>` +
	`</body></html>`

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "landing.html")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func quiet(opts app.Options) app.Options {
	opts.Yes = true
	opts.Logging = logging.Config{Level: logging.LevelNone}
	return opts
}

func TestRun_InputFileWritesOutputs(t *testing.T) {
	outDir := t.TempDir()
	err := app.Run(context.Background(), quiet(app.Options{
		Input:     writeInput(t, page),
		OutputDir: outDir,
		Mutation: mutate.Config{
			DirectReplacements: mutate.Replacements{{Old: "old product", New: "new product"}},
		},
		Build: builder.Config{CTAURL: "https://shop.example.com/"},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	built, err := os.ReadFile(filepath.Join(outDir, output.BuildFile))
	if err != nil {
		t.Fatalf("read build: %v", err)
	}
	html := string(built)
	if !strings.Contains(html, "new product") || strings.Contains(html, "old product") {
		t.Fatalf("expected replacement applied, got %s", html)
	}
	if !strings.Contains(html, `href="https://shop.example.com/"`) {
		t.Fatalf("expected retargeted CTA, got %s", html)
	}
	if strings.Contains(strings.ToLower(html), "<body") {
		t.Fatalf("expected wrappers stripped, got %s", html)
	}

	data, err := os.ReadFile(filepath.Join(outDir, output.BlocksFile))
	if err != nil {
		t.Fatalf("read blocks: %v", err)
	}
	var doc struct {
		Blocks []struct {
			Type string `json:"type"`
		} `json:"blocks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode blocks: %v", err)
	}
	if len(doc.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(doc.Blocks))
	}

	for _, name := range []string{output.ReportFile, output.ContentFile} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("expected %s written: %v", name, err)
		}
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	err := app.Run(context.Background(), quiet(app.Options{
		Input:     writeInput(t, page),
		OutputDir: outDir,
		DryRun:    true,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Fatalf("expected no output dir, got %v", err)
	}
}

func TestRun_StrictFailsOnWrapperTags(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	err := app.Run(context.Background(), quiet(app.Options{
		Input:     writeInput(t, page),
		OutputDir: outDir,
		Strict:    true,
		Build:     builder.Config{Inject: builder.Inject{BodyHTML: "</body>"}},
	}))
	if !lperr.IsNotCompliant(err) {
		t.Fatalf("expected not-compliant error, got %v", err)
	}
	if _, statErr := os.Stat(outDir); !os.IsNotExist(statErr) {
		t.Fatalf("expected nothing written, got %v", statErr)
	}
}

func TestRun_StrictReportHookRejectsWarnings(t *testing.T) {
	err := app.Run(context.Background(), quiet(app.Options{
		Input:         writeInput(t, page),
		OutputDir:     t.TempDir(),
		PipelineHooks: []string{"strict-report"},
		Build:         builder.Config{Inject: builder.Inject{BodyHTML: `<img src="/late.png">`}},
	}))
	if err == nil || !strings.Contains(err.Error(), "strict-report") {
		t.Fatalf("expected strict-report failure, got %v", err)
	}
}

func TestRun_RequireCTAHook(t *testing.T) {
	err := app.Run(context.Background(), quiet(app.Options{
		Input:         writeInput(t, page),
		OutputDir:     t.TempDir(),
		PipelineHooks: []string{"require-cta"},
		Build:         builder.Config{CTAURL: "https://shop.example.com/"},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outDir := filepath.Join(t.TempDir(), "none")
	err = app.Run(context.Background(), quiet(app.Options{
		Input:         writeInput(t, page),
		OutputDir:     outDir,
		PipelineHooks: []string{"require-cta"},
	}))
	if err == nil || !strings.Contains(err.Error(), "no CTA URL configured") {
		t.Fatalf("expected require-cta failure, got %v", err)
	}
	if _, statErr := os.Stat(outDir); !os.IsNotExist(statErr) {
		t.Fatalf("expected nothing written, got %v", statErr)
	}
}

func TestRun_UnknownHook(t *testing.T) {
	err := app.Run(context.Background(), quiet(app.Options{
		Input:         writeInput(t, page),
		OutputDir:     t.TempDir(),
		PipelineHooks: []string{"nope"},
	}))
	if err == nil || !strings.Contains(err.Error(), "unknown pipeline hook") {
		t.Fatalf("expected unknown hook error, got %v", err)
	}
}

func TestRun_ExecHookSeesOutputs(t *testing.T) {
	outDir := t.TempDir()
	err := app.Run(context.Background(), quiet(app.Options{
		Input:         writeInput(t, page),
		OutputDir:     outDir,
		PipelineHooks: []string{"exec"},
		PostCommands: []string{
			"# comment lines are skipped",
			`test -f "$LPFORGE_BUILD_PATH" && echo "$LPFORGE_VALID" > hook.txt`,
		},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "hook.txt"))
	if err != nil {
		t.Fatalf("expected hook output: %v", err)
	}
	if strings.TrimSpace(string(data)) != "true" {
		t.Fatalf("expected valid=true, got %q", data)
	}
}

func TestRun_StripSelector(t *testing.T) {
	outDir := t.TempDir()
	err := app.Run(context.Background(), quiet(app.Options{
		Input:         writeInput(t, `<p>keep</p><div class="banner">drop</div>`),
		OutputDir:     outDir,
		StripSelector: ".banner",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	built, _ := os.ReadFile(filepath.Join(outDir, output.BuildFile))
	if strings.Contains(string(built), "drop") || !strings.Contains(string(built), "keep") {
		t.Fatalf("expected banner stripped, got %s", built)
	}
}

func TestRun_BadStripSelector(t *testing.T) {
	err := app.Run(context.Background(), quiet(app.Options{
		Input:         writeInput(t, page),
		OutputDir:     t.TempDir(),
		StripSelector: "div[",
	}))
	if !lperr.IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRun_MissingInput(t *testing.T) {
	err := app.Run(context.Background(), quiet(app.Options{
		Input: filepath.Join(t.TempDir(), "missing.html"),
	}))
	if !lperr.IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRun_StaticURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	outDir := t.TempDir()
	err := app.Run(context.Background(), quiet(app.Options{
		URL:       srv.URL + "/lp",
		Mode:      fetch.ModeStatic,
		OutputDir: outDir,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, output.ReportFile))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var report struct {
		Source     string `json:"source"`
		Validation struct {
			Valid bool `json:"valid"`
		} `json:"validation"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Source != "static" || !report.Validation.Valid {
		t.Fatalf("unexpected report %+v", report)
	}
}
