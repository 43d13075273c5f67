package builder_test

import (
	"fmt"
	"strings"
	"testing"

	"lpforge/internal/builder"
	"lpforge/internal/dialect"
	"lpforge/internal/dom"
)

type seqIDs struct{ n int }

func (s *seqIDs) PartNumber() int {
	s.n++
	return 100000 + s.n
}

func (s *seqIDs) ClassSuffix() string {
	s.n++
	return fmt.Sprintf("c%d", s.n)
}

func newBuilder() *builder.Builder {
	return builder.New(dialect.MustDefault(), dialect.DefaultHeuristics(), builder.WithIDSource(&seqIDs{}))
}

func TestBuild_ScenarioB_RepeatedPairsShareRemap(t *testing.T) {
	in := `<div class="sb-custom"><div id="part-1" class="custom-1">A</div><div id="part-1" class="custom-1">B</div></div>` +
		`<div class="sb-custom"><div id="part-2" class="custom-2">C</div></div>` +
		`<style>#part-1{color:red}.custom-1 p{margin:0}.custom-2{top:0}</style>`
	res := newBuilder().Build(in, builder.Config{RegenerateIDs: true})

	if len(res.Remapped) != 2 {
		t.Fatalf("expected 2 distinct pairs, got %+v", res.Remapped)
	}
	first, second := res.Remapped[0], res.Remapped[1]
	if first.NewID == second.NewID || first.NewClass == second.NewClass {
		t.Fatalf("expected distinct pairs, got %+v", res.Remapped)
	}
	pair := fmt.Sprintf(`id="%s" class="%s"`, first.NewID, first.NewClass)
	if n := strings.Count(res.HTML, pair); n != 2 {
		t.Fatalf("expected the repeated pair twice, got %d in %s", n, res.HTML)
	}
	if strings.Contains(res.HTML, `id="part-1"`) || strings.Contains(res.HTML, `"custom-1"`) {
		t.Fatalf("old identifiers left in %s", res.HTML)
	}
	css := fmt.Sprintf("#%s{color:red}.%s p{margin:0}.%s{top:0}", first.NewID, first.NewClass, second.NewClass)
	if !strings.Contains(res.HTML, css) {
		t.Fatalf("expected rewritten selectors %q in %s", css, res.HTML)
	}
	if !strings.HasPrefix(first.NewID, "part-") || !strings.HasPrefix(first.NewClass, "custom-") {
		t.Fatalf("expected original prefixes kept, got %+v", first)
	}
}

func TestBuild_NoRegenerationKeepsIDs(t *testing.T) {
	in := `<div class="sb-custom"><div id="part-1" class="custom-1">A</div></div>`
	res := newBuilder().Build(in, builder.Config{})
	if !strings.HasPrefix(res.HTML, in) {
		t.Fatalf("expected ids untouched, got %s", res.HTML)
	}
}

func TestBuild_ScenarioD_LazyNormalization(t *testing.T) {
	res := newBuilder().Build(`<p><img src="/a.png"></p>`, builder.Config{})
	doc, err := dom.ParseFragment(res.HTML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	img := doc.Find("p img")
	if !img.HasClass("lazyload") {
		t.Fatalf("expected lazyload class in %s", res.HTML)
	}
	if img.AttrOr("data-src", "") != "/a.png" || img.AttrOr("src", "") != "/a.png" {
		t.Fatalf("expected data-src copied from src in %s", res.HTML)
	}
}

func TestBuild_VideoNormalization(t *testing.T) {
	res := newBuilder().Build(`<video><source src="/v.mp4" type="video/mp4"></video>`, builder.Config{})
	doc, _ := dom.ParseFragment(res.HTML)
	video := doc.Find("video")
	if !video.HasClass("lazyload") || !video.HasClass("sb-video") {
		t.Fatalf("expected video classes in %s", res.HTML)
	}
	for _, a := range dialect.VideoPlaybackAttrs {
		if v, ok := video.Attr(a.Key); !ok || v != a.Val {
			t.Fatalf("expected %s=%q on video in %s", a.Key, a.Val, res.HTML)
		}
	}
	src := video.Find("source")
	if _, ok := src.Attr("src"); ok {
		t.Fatalf("expected eager src removed in %s", res.HTML)
	}
	if src.AttrOr("data-src", "") != "/v.mp4" {
		t.Fatalf("expected data-src on source in %s", res.HTML)
	}
}

func TestBuild_ImageSubstitution(t *testing.T) {
	in := `<picture><source type="image/webp" data-srcset="/old.webp"><img class="lazyload" data-src="/old.jpg" src="/old.jpg"></picture><img src="/b.png"><img src="/keep.png">`
	res := newBuilder().Build(in, builder.Config{ImageMap: map[string]string{
		"/old.jpg": "/new.jpg",
		"/b.png":   "/b2.png",
	}})
	if res.ImagesReplaced != 2 {
		t.Fatalf("expected 2 replacements, got %d", res.ImagesReplaced)
	}
	doc, _ := dom.ParseFragment(res.HTML)
	pic := doc.Find("picture img")
	if pic.AttrOr("data-src", "") != "/new.jpg" || pic.AttrOr("src", "") != "/new.jpg" {
		t.Fatalf("unexpected picture img in %s", res.HTML)
	}
	if doc.Find("picture source").AttrOr("data-srcset", "") != "/new.jpg" {
		t.Fatalf("expected variant pointed at replacement in %s", res.HTML)
	}
	if !strings.Contains(res.HTML, `src="/b2.png"`) || !strings.Contains(res.HTML, `data-src="/keep.png"`) {
		t.Fatalf("unexpected bare images in %s", res.HTML)
	}
}

func TestBuild_CTA(t *testing.T) {
	in := `<a href="/buy"><img src="/x.png"></a><a href="/privacy">Privacy</a>`
	res := newBuilder().Build(in, builder.Config{CTAURL: "https://shop.example.com/"})
	if res.CTAsRetargeted != 1 {
		t.Fatalf("expected 1 retargeted link, got %d", res.CTAsRetargeted)
	}
	if !strings.Contains(res.HTML, `href="/privacy"`) {
		t.Fatalf("privacy link must be kept in %s", res.HTML)
	}
}

func TestBuild_StripsWrappers(t *testing.T) {
	res := newBuilder().Build(`<html><head></head><body><p>x</p></body></html>`, builder.Config{})
	if !strings.HasPrefix(res.HTML, "<p>x</p>") {
		t.Fatalf("expected wrappers stripped, got %s", res.HTML)
	}
}

func TestStripWrappers(t *testing.T) {
	cases := map[string]string{
		"<html><head></head><body><p>a</p></body></html>": "<p>a</p>",
		"<body><p>a</p></body>":                           "<p>a</p>",
		"<html><body><p>a</p></body></html>":              "<p>a</p>",
		"<p>a</p>":                                        "<p>a</p>",
		"<body><p>a</p>":                                  "<body><p>a</p>",
	}
	for in, want := range cases {
		if got := builder.StripWrappers(in); got != want {
			t.Fatalf("StripWrappers(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestBuild_InjectionOrder(t *testing.T) {
	res := newBuilder().Build(`<p>body</p>`, builder.Config{Inject: builder.Inject{
		Style:         "p{}",
		NoIndex:       true,
		HeadHTML:      `<link rel="preload" href="/f.woff2">`,
		HeadScript:    "var h=1;",
		BodyHTML:      `<div id="end"></div>`,
		BodyScript:    "<script>var b=2;</script>",
		ExitPopupHTML: `<div class="popup"></div>`,
	}})
	order := []string{
		"<style>p{}</style>",
		`<meta name="robots" content="noindex">`,
		`<link rel="preload" href="/f.woff2">`,
		"<script>var h=1;</script>",
		"<p>body</p>",
		`<div id="end"></div>`,
		"<script>var b=2;</script>",
		`<div class="popup"></div>`,
		dialect.TrailingCSS,
	}
	last := -1
	for _, frag := range order {
		at := strings.Index(res.HTML, frag)
		if at <= last {
			t.Fatalf("expected %q after position %d, got %d in %s", frag, last, at, res.HTML)
		}
		last = at
	}
}

func TestBuild_TrailingWidget(t *testing.T) {
	res := newBuilder().Build(`<p>x</p>`, builder.Config{})
	want := `<p>x</p><div class="sb-custom"><div id="sb-part-100001" class="sb-custom-part-c2"><style>` + dialect.TrailingCSS + `</style></div></div>`
	if res.HTML != want || !res.TrailingAdded {
		t.Fatalf("expected %s\ngot %s", want, res.HTML)
	}
}

func TestBuild_TrailingWidgetNotDuplicated(t *testing.T) {
	first := newBuilder().Build(`<p>x</p>`, builder.Config{})
	second := newBuilder().Build(first.HTML, builder.Config{})
	if second.TrailingAdded {
		t.Fatal("expected existing margin-reset widget to be detected")
	}
	if strings.Count(second.HTML, dialect.TrailingMarker) != 1 {
		t.Fatalf("expected one marker, got %s", second.HTML)
	}
}

func TestBuild_TrailingIDsAvoidDocumentIDs(t *testing.T) {
	res := newBuilder().Build(`<div id="sb-part-100001"></div>`, builder.Config{})
	if strings.Count(res.HTML, `id="sb-part-100001"`) != 1 {
		t.Fatalf("expected fresh trailing id, got %s", res.HTML)
	}
}

func TestRewriteSelectors(t *testing.T) {
	in := `/* .custom-1 */ #part-1>.custom-1:hover{color:#fff}.custom-10{}`
	got := builder.RewriteSelectors(in, map[string]string{"part-1": "part-9"}, map[string]string{"custom-1": "custom-x"})
	want := `/* .custom-1 */ #part-9>.custom-x:hover{color:#fff}.custom-10{}`
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestRandomIDs_Shape(t *testing.T) {
	src := builder.RandomIDs()
	for i := 0; i < 50; i++ {
		n := src.PartNumber()
		if n < 100000 || n > 999999 {
			t.Fatalf("expected six digits, got %d", n)
		}
		if s := src.ClassSuffix(); len(s) != 8 {
			t.Fatalf("expected 8 characters, got %q", s)
		}
	}
}
