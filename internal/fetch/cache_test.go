package fetch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPageCache_Path(t *testing.T) {
	c := NewPageCache("")
	path := c.Path("https://example.com/lp")
	if filepath.Dir(path) != DefaultCacheDir || !strings.HasSuffix(path, ".json") {
		t.Fatalf("unexpected cache path: %s", path)
	}
	if path == c.Path("https://example.com/lp2") {
		t.Fatal("expected distinct paths per url")
	}
}

func TestPageCache_StoreAndLoad(t *testing.T) {
	c := NewPageCache(filepath.Join(t.TempDir(), "nested"))
	if _, ok := c.Load("https://example.com/lp"); ok {
		t.Fatal("expected cache miss")
	}
	if err := c.Store("https://example.com/lp", Result{HTML: "<p>hit</p>", FinalMode: ModeDynamic}); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	got, ok := c.Load("https://example.com/lp")
	if !ok || got.HTML != "<p>hit</p>" {
		t.Fatalf("expected cache hit, got %+v %v", got, ok)
	}
	if got.FinalMode != ModeDynamic || got.SourceInfo != "cache:dynamic" {
		t.Fatalf("expected recorded mode, got %+v", got)
	}
}

func TestPageCache_Expired(t *testing.T) {
	c := NewPageCache(t.TempDir())
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }
	if err := c.Store("https://example.com/lp", Result{HTML: "<p>old</p>", FinalMode: ModeStatic}); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	c.now = func() time.Time { return start.Add(DefaultCacheTTL + time.Minute) }
	if _, ok := c.Load("https://example.com/lp"); ok {
		t.Fatal("expected expired entry to miss")
	}
	c.TTL = 0
	if _, ok := c.Load("https://example.com/lp"); !ok {
		t.Fatal("expected hit when ttl is disabled")
	}
}

func TestPageCache_CorruptEntry(t *testing.T) {
	c := NewPageCache(t.TempDir())
	if err := os.WriteFile(c.Path("https://example.com/lp"), []byte("{"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, ok := c.Load("https://example.com/lp"); ok {
		t.Fatal("expected corrupt entry to miss")
	}
}
