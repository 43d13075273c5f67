package tui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateIntString(t *testing.T) {
	v := validateIntString(1, 3600)
	if err := v("45"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, bad := range []string{"0", "3601", "soon", ""} {
		if err := v(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestValidateFloatString(t *testing.T) {
	v := validateFloatString(0, 200)
	if err := v("21.5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v(""); err != nil {
		t.Fatalf("expected empty to mean zero, got %v", err)
	}
	if err := v("-1"); err == nil {
		t.Fatal("expected out of range error")
	}
	if err := v("big"); err == nil {
		t.Fatal("expected type error")
	}
}

func TestValidateNewFilename(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()

	if err := os.WriteFile(filepath.Join(dir, "taken.json"), []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := validateNewFilename("fresh"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "a/b", "taken"} {
		if err := validateNewFilename(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" .legal, ,footer ")
	if len(got) != 2 || got[0] != ".legal" || got[1] != "footer" {
		t.Fatalf("unexpected list %v", got)
	}
}
