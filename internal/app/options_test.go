package app

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"lpforge/internal/fetch"
	"lpforge/internal/lperr"
)

func TestNormalizeOptions_Defaults(t *testing.T) {
	opts, err := normalizeOptions(Options{URL: " https://example.com/lp/spring ", Stdout: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.URL != "https://example.com/lp/spring" {
		t.Fatalf("expected trimmed url, got %q", opts.URL)
	}
	if opts.Mode != fetch.ModeAuto || opts.Timeout != 45*time.Second || opts.UserAgent != fetch.DefaultUserAgent {
		t.Fatalf("unexpected defaults %+v", opts)
	}
	if want := filepath.Join("output", "example-com-lp-spring"); opts.OutputDir != want {
		t.Fatalf("expected output dir %q, got %q", want, opts.OutputDir)
	}
	if !opts.Yes {
		t.Fatal("expected stdout to imply yes")
	}
}

func TestNormalizeOptions_SourceRules(t *testing.T) {
	if _, err := normalizeOptions(Options{}); !lperr.IsInvalidInput(err) {
		t.Fatalf("expected invalid input for no source, got %v", err)
	}
	if _, err := normalizeOptions(Options{URL: "https://a.test", Input: "a.html"}); !lperr.IsInvalidInput(err) {
		t.Fatalf("expected invalid input for two sources, got %v", err)
	}
}

func TestProjectName(t *testing.T) {
	cases := []struct {
		opts Options
		want string
	}{
		{Options{Input: "pages/Spring Sale.html"}, "spring-sale"},
		{Options{URL: "example.com"}, "example-com"},
		{Options{URL: "https://shop.example.com/a/b/"}, "shop-example-com-a-b"},
		{Options{Input: "/"}, "default"},
	}
	for _, tc := range cases {
		if got := projectName(tc.opts); got != tc.want {
			t.Fatalf("projectName(%+v): expected %q, got %q", tc.opts, tc.want, got)
		}
	}
}

func TestDedupePreserveOrder(t *testing.T) {
	got := dedupePreserveOrder([]string{" exec", "strict-report", "", "exec "})
	want := []string{"exec", "strict-report"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMergeImageMap_ExplicitWins(t *testing.T) {
	got := mergeImageMap(
		map[string]string{"/a.png": "assets/a.png", "/b.png": "assets/b.png"},
		map[string]string{"/a.png": "https://cdn.test/a.png"},
	)
	if got["/a.png"] != "https://cdn.test/a.png" || got["/b.png"] != "assets/b.png" {
		t.Fatalf("unexpected merge %v", got)
	}
}

func TestStripSelector(t *testing.T) {
	out, n := stripSelector(`<p>a</p><div class="x">b</div><div class="x">c</div>`, ".x")
	if n != 2 || out != "<p>a</p>" {
		t.Fatalf("expected both removed, got %d %q", n, out)
	}
	out, n = stripSelector(`<p>a</p>`, ".x")
	if n != 0 || out != "<p>a</p>" {
		t.Fatalf("expected input untouched, got %d %q", n, out)
	}
}
