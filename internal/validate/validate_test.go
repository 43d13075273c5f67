package validate_test

import (
	"reflect"
	"strings"
	"testing"

	"lpforge/internal/builder"
	"lpforge/internal/dialect"
	"lpforge/internal/validate"
)

func TestValidate_WrapperIsError(t *testing.T) {
	r := validate.Validate(`<html><body><p>x</p></body></html>`, dialect.MustDefault())
	if r.Valid {
		t.Fatal("expected invalid report")
	}
	if len(r.Errors) != 2 {
		t.Fatalf("expected html and body errors, got %v", r.Errors)
	}
}

func TestValidate_CaseInsensitiveWrapper(t *testing.T) {
	r := validate.Validate(`<p>x</p></BODY>`, dialect.MustDefault())
	if r.Valid || len(r.Errors) != 1 || !strings.Contains(r.Errors[0], "<body>") {
		t.Fatalf("unexpected report %+v", r)
	}
}

func TestValidate_Warnings(t *testing.T) {
	in := `<img src="/a.png"><img class="lazyload" src="/b.png"><img data-src="/c.png">` +
		`<video><source src="/v.mp4"></video>`
	r := validate.Validate(in, dialect.MustDefault())
	if !r.Valid {
		t.Fatalf("warnings must not invalidate: %+v", r)
	}
	if len(r.Warnings) != 6 {
		t.Fatalf("expected 6 warnings, got %d: %v", len(r.Warnings), r.Warnings)
	}
	if !strings.Contains(r.Warnings[0], "/a.png") {
		t.Fatalf("expected warnings to name the image, got %q", r.Warnings[0])
	}
}

func TestValidate_DuplicatePairsAreInformational(t *testing.T) {
	in := `<div id="part-1" class="custom-1"></div><div id="part-1" class="custom-1"></div>`
	r := validate.Validate(in, dialect.MustDefault())
	if !r.Valid || len(r.Warnings) != 0 {
		t.Fatalf("duplicate pairs must not be flagged: %+v", r)
	}
	if len(r.DuplicatePairs) != 1 || r.DuplicatePairs[0].Count != 2 {
		t.Fatalf("unexpected duplicate pairs %+v", r.DuplicatePairs)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	in := `<body><img src="/a.png"><video class="x"><source src="/v.mp4"></video><div id="part-2" class="custom-2"></div><div id="part-2" class="custom-2"></div>`
	d := dialect.MustDefault()
	first := validate.Validate(in, d)
	second := validate.Validate(in, d)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical reports\n%+v\n%+v", first, second)
	}
}

func TestValidate_BuilderOutputIsClean(t *testing.T) {
	d := dialect.MustDefault()
	b := builder.New(d, dialect.DefaultHeuristics())
	res := b.Build(`<p><img src="/a.png"></p><video><source src="/v.mp4"></video>`, builder.Config{RegenerateIDs: true})
	r := validate.Validate(res.HTML, d)
	if !r.Valid || len(r.Warnings) != 0 {
		t.Fatalf("expected clean report for %s, got %+v", res.HTML, r)
	}
}
