// Package dialect holds the naming conventions of the target landing-page
// dialect and the tunable classification heuristics shared by the block,
// mutate, builder and validate packages.
package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"lpforge/internal/lperr"
)

// TrailingCSS is the body of the margin-reset widget appended to every build.
const TrailingCSS = ".article-body video{margin-top:0 !important;margin-bottom:0 !important;}"

// TrailingMarker is searched for in build output to detect an existing margin-reset widget.
const TrailingMarker = ".article-body video{margin-top:0"

// Attr is a fixed attribute written onto elements by the builder.
type Attr struct {
	Key string
	Val string
}

// VideoPlaybackAttrs are set on every video: autoplay, muted, loop, inline
// playback, no download, fullscreen allowed and mute forced on canplay.
var VideoPlaybackAttrs = []Attr{
	{Key: "autoplay", Val: ""},
	{Key: "muted", Val: ""},
	{Key: "loop", Val: ""},
	{Key: "playsinline", Val: ""},
	{Key: "controlslist", Val: "nodownload"},
	{Key: "allowfullscreen", Val: ""},
	{Key: "oncanplay", Val: "this.muted=true"},
}

// Dialect names the markup conventions of the target platform.
type Dialect struct {
	WidgetClass        string   `json:"widget_class,omitempty" yaml:"widget_class,omitempty"`
	WidgetSelector     string   `json:"widget_selector,omitempty" yaml:"widget_selector,omitempty"`
	PartIDPattern      string   `json:"part_id_pattern,omitempty" yaml:"part_id_pattern,omitempty"`
	PartClassPattern   string   `json:"part_class_pattern,omitempty" yaml:"part_class_pattern,omitempty"`
	NewPartIDPrefix    string   `json:"new_part_id_prefix,omitempty" yaml:"new_part_id_prefix,omitempty"`
	NewPartClassPrefix string   `json:"new_part_class_prefix,omitempty" yaml:"new_part_class_prefix,omitempty"`
	LazyClass          string   `json:"lazy_class,omitempty" yaml:"lazy_class,omitempty"`
	LazySrcAttr        string   `json:"lazy_src_attr,omitempty" yaml:"lazy_src_attr,omitempty"`
	LazySrcsetAttr     string   `json:"lazy_srcset_attr,omitempty" yaml:"lazy_srcset_attr,omitempty"`
	VideoClasses       []string `json:"video_classes,omitempty" yaml:"video_classes,omitempty"`
}

// Default returns the conventions of the vendor dialect.
//
// Part identifiers look like id="sb-part-1234" class="sb-custom-part-a1b2c3";
// the patterns also accept the short "part-1"/"custom-1" form. Group 1 of each
// pattern is the prefix kept on regeneration, group 2 the replaced suffix.
func Default() Dialect {
	return Dialect{
		WidgetClass:        "sb-custom",
		WidgetSelector:     ".sb-custom",
		PartIDPattern:      `^((?:[A-Za-z]+-)*part-)(\d+)$`,
		PartClassPattern:   `^((?:[A-Za-z]+-)*custom-(?:part-)?)([0-9A-Za-z]+)$`,
		NewPartIDPrefix:    "sb-part-",
		NewPartClassPrefix: "sb-custom-part-",
		LazyClass:          "lazyload",
		LazySrcAttr:        "data-src",
		LazySrcsetAttr:     "data-srcset",
		VideoClasses:       []string{"lazyload", "sb-video"},
	}
}

// WithDefaults fills every zero field from Default.
func (d Dialect) WithDefaults() Dialect {
	def := Default()
	if d.WidgetClass == "" {
		d.WidgetClass = def.WidgetClass
	}
	if d.WidgetSelector == "" {
		d.WidgetSelector = "." + d.WidgetClass
	}
	if d.PartIDPattern == "" {
		d.PartIDPattern = def.PartIDPattern
	}
	if d.PartClassPattern == "" {
		d.PartClassPattern = def.PartClassPattern
	}
	if d.NewPartIDPrefix == "" {
		d.NewPartIDPrefix = def.NewPartIDPrefix
	}
	if d.NewPartClassPrefix == "" {
		d.NewPartClassPrefix = def.NewPartClassPrefix
	}
	if d.LazyClass == "" {
		d.LazyClass = def.LazyClass
	}
	if d.LazySrcAttr == "" {
		d.LazySrcAttr = def.LazySrcAttr
	}
	if d.LazySrcsetAttr == "" {
		d.LazySrcsetAttr = def.LazySrcsetAttr
	}
	if len(d.VideoClasses) == 0 {
		d.VideoClasses = def.VideoClasses
	}
	return d
}

// Compiled is a Dialect with its identifier patterns compiled.
type Compiled struct {
	Dialect
	partID    *regexp.Regexp
	partClass *regexp.Regexp
}

// Compile fills defaults and compiles the identifier patterns. A pattern
// without two capture groups is rejected as invalid input.
func (d Dialect) Compile() (Compiled, error) {
	d = d.WithDefaults()
	idRe, err := compilePattern("part_id_pattern", d.PartIDPattern)
	if err != nil {
		return Compiled{}, err
	}
	classRe, err := compilePattern("part_class_pattern", d.PartClassPattern)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{Dialect: d, partID: idRe, partClass: classRe}, nil
}

// MustDefault returns the compiled default dialect.
func MustDefault() Compiled {
	c, err := Default().Compile()
	if err != nil {
		panic(err)
	}
	return c
}

func compilePattern(name, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &lperr.Error{Type: lperr.TypeInvalidInput, Message: "bad " + name, Cause: err}
	}
	if re.NumSubexp() < 2 {
		return nil, lperr.InvalidInput("%s needs two capture groups, got %d", name, re.NumSubexp())
	}
	return re, nil
}

// PartIDPrefix reports whether id follows the part-id convention and returns
// the prefix kept on regeneration.
func (c Compiled) PartIDPrefix(id string) (string, bool) {
	if c.partID == nil {
		return "", false
	}
	m := c.partID.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// PartClassPrefix reports whether a single class token follows the part-class convention.
func (c Compiled) PartClassPrefix(token string) (string, bool) {
	if c.partClass == nil {
		return "", false
	}
	m := c.partClass.FindStringSubmatch(token)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// PartClass returns the first token of a class attribute that follows the
// part-class convention, or "".
func (c Compiled) PartClass(classAttr string) string {
	for _, token := range strings.Fields(classAttr) {
		if _, ok := c.PartClassPrefix(token); ok {
			return token
		}
	}
	return ""
}

func (c Compiled) String() string {
	return fmt.Sprintf("dialect(widget=%s lazy=%s/%s)", c.WidgetSelector, c.LazyClass, c.LazySrcAttr)
}
