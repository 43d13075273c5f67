package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"lpforge/internal/config"
	"lpforge/internal/mutate"
)

func TestLoadConfig(t *testing.T) {
	data := []byte(`{
  "url": "https://example.com/lp",
  "mode": "dynamic",
  "output_dir": "output/test",
  "timeout_seconds": 42,
  "user_agent": "test-agent",
  "wait_for": "main",
  "headless": true,
  "strict": true,
  "logging": {"level": "debug"},
  "heuristics": {"heading_max_chars": 40},
  "dialect": {"lazy_class": "lazy"},
  "mutation": {"directReplacements": {"b": "B", "a": "A"}, "ctaUrl": "https://shop.example.com/"},
  "build": {"regenerateIds": true, "inject": {"noIndex": true}},
  "pipeline_hooks": ["strict-report"]
}`)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.URL != "https://example.com/lp" || cfg.Mode != "dynamic" || cfg.TimeoutSeconds != 42 {
		t.Fatalf("unexpected page fields: %#v", cfg)
	}
	if cfg.Headless == nil || !*cfg.Headless || !cfg.Strict {
		t.Fatalf("expected headless and strict, got %#v", cfg)
	}
	if cfg.Logging.Level != "debug" || cfg.Heuristics.HeadingMaxChars != 40 || cfg.Dialect.LazyClass != "lazy" {
		t.Fatalf("unexpected nested sections: %#v", cfg)
	}
	want := mutate.Replacements{{Old: "b", New: "B"}, {Old: "a", New: "A"}}
	if !reflect.DeepEqual(cfg.Mutation.DirectReplacements, want) {
		t.Fatalf("expected ordered replacements %v, got %v", want, cfg.Mutation.DirectReplacements)
	}
	if !cfg.Build.RegenerateIDs || !cfg.Build.Inject.NoIndex {
		t.Fatalf("unexpected build section: %#v", cfg.Build)
	}
	if !reflect.DeepEqual(cfg.PipelineHooks, []string{"strict-report"}) {
		t.Fatalf("unexpected hooks: %v", cfg.PipelineHooks)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	data := []byte(`input: page.html
mutation:
  directReplacements:
    旧商品: 新商品
    初回: 初めて
  overwrites:
    - index: 3
      newText: hello
build:
  ctaUrl: https://shop.example.com/
`)
	path := filepath.Join(t.TempDir(), "lp.yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Input != "page.html" || cfg.Build.CTAURL != "https://shop.example.com/" {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	want := mutate.Replacements{{Old: "旧商品", New: "新商品"}, {Old: "初回", New: "初めて"}}
	if !reflect.DeepEqual(cfg.Mutation.DirectReplacements, want) {
		t.Fatalf("expected %v, got %v", want, cfg.Mutation.DirectReplacements)
	}
	if len(cfg.Mutation.Overwrites) != 1 || cfg.Mutation.Overwrites[0].Index != 3 {
		t.Fatalf("unexpected overwrites: %v", cfg.Mutation.Overwrites)
	}
}

func TestMarshalConfig(t *testing.T) {
	headless := true
	cfg := config.Config{
		URL:            "https://example.com",
		Mode:           "auto",
		OutputDir:      "output/x",
		TimeoutSeconds: 10,
		Headless:       &headless,
		Mutation:       mutate.Config{DirectReplacements: mutate.Replacements{{Old: "x", New: "y"}}},
	}

	for _, name := range []string{"c.json", "c.yaml"} {
		data, err := config.MarshalFor(name, cfg)
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}
		path := filepath.Join(t.TempDir(), name)
		if err := os.WriteFile(path, data, 0600); err != nil {
			t.Fatalf("write: %v", err)
		}
		back, err := config.Load(path)
		if err != nil {
			t.Fatalf("reload %s: %v", name, err)
		}
		if back.URL != cfg.URL || !reflect.DeepEqual(back.Mutation.DirectReplacements, cfg.Mutation.DirectReplacements) {
			t.Fatalf("%s: expected %#v, got %#v", name, cfg, back)
		}
	}
}

func TestFind(t *testing.T) {
	exists := func(p string) bool { return p == filepath.Join(config.DefaultConfigDir, "lp.json") }
	got, ok := config.Find("lp.json", exists)
	if !ok || got != filepath.Join(config.DefaultConfigDir, "lp.json") {
		t.Fatalf("expected configs/lp.json, got %q %v", got, ok)
	}
	if _, ok := config.Find("missing.json", exists); ok {
		t.Fatal("expected missing file not found")
	}
}

func TestFind_EnvDirFirst(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(config.DirEnv, dir)
	want := filepath.Join(dir, "lp.json")
	exists := func(p string) bool {
		return p == want || p == filepath.Join(config.DefaultConfigDir, "lp.json")
	}
	got, ok := config.Find("lp.json", exists)
	if !ok || got != want {
		t.Fatalf("expected %s, got %q %v", want, got, ok)
	}
	if dirs := config.SearchDirs(); dirs[0] != dir {
		t.Fatalf("expected env dir first, got %v", dirs)
	}
}
