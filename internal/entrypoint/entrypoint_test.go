package entrypoint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExecute_FlagErrors(t *testing.T) {
	code, err := Execute([]string{"lpforge", "--mode", "auto"})
	if err == nil || code != 2 {
		t.Fatalf("expected exit 2 for missing source, got %d (%v)", code, err)
	}
}

func TestExecute_ValidateSubcommand(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.html")
	if err := os.WriteFile(bad, []byte("<body><p>x</p></body>"), 0o600); err != nil {
		t.Fatal(err)
	}
	code, err := Execute([]string{"lpforge", "validate", "--quiet", bad})
	if err == nil || code != ExitNotCompliant {
		t.Fatalf("expected exit %d, got %d (%v)", ExitNotCompliant, code, err)
	}
}

func TestExecute_RunInputDryRun(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "lp.html")
	if err := os.WriteFile(page, []byte("<p>x</p>"), 0o600); err != nil {
		t.Fatal(err)
	}
	code, err := Execute([]string{"lpforge", "--input", page, "--dry-run", "--log-level", "none", "--output-dir", filepath.Join(dir, "out")})
	if err != nil || code != 0 {
		t.Fatalf("expected success, got %d (%v)", code, err)
	}
}

func TestExitCode(t *testing.T) {
	if code, err := exitCode(nil); code != 0 || err != nil {
		t.Fatalf("expected 0, got %d (%v)", code, err)
	}
}
