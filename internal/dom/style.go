package dom

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Declaration is one property: value pair of an inline style attribute.
type Declaration struct {
	Property string
	Value    string
}

// Declarations parses an inline style attribute. Malformed input yields the
// declarations parsed before the error.
func Declarations(style string) []Declaration {
	out := []Declaration{}
	if strings.TrimSpace(style) == "" {
		return out
	}
	p := css.NewParser(parse.NewInputString(style), true)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return out
		case css.DeclarationGrammar:
			var b strings.Builder
			for _, v := range p.Values() {
				if v.TokenType == css.WhitespaceToken {
					b.WriteByte(' ')
					continue
				}
				b.Write(v.Data)
			}
			out = append(out, Declaration{
				Property: strings.ToLower(string(data)),
				Value:    strings.TrimSpace(b.String()),
			})
		}
	}
}

// StyleValue returns the last value declared for property in an inline style.
func StyleValue(style, property string) (string, bool) {
	value, found := "", false
	for _, d := range Declarations(style) {
		if d.Property == property {
			value, found = d.Value, true
		}
	}
	return value, found
}

// FontSizePx converts a CSS font-size in px or pt to pixels. Relative
// units are not resolved and report false.
func FontSizePx(value string) (float64, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
	pt := false
	switch {
	case strings.HasSuffix(v, "px"):
		v = strings.TrimSuffix(v, "px")
	case strings.HasSuffix(v, "pt"):
		v = strings.TrimSuffix(v, "pt")
		pt = true
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	if pt {
		return f * 4 / 3, true
	}
	return f, true
}

// MaxFontSizePx returns the largest pixel font-size declared on sel or any
// descendant.
func MaxFontSizePx(sel *goquery.Selection) (float64, bool) {
	maxSize, found := 0.0, false
	sel.Find("[style]").AddSelection(sel.Filter("[style]")).Each(func(_ int, s *goquery.Selection) {
		value, ok := StyleValue(s.AttrOr("style", ""), "font-size")
		if !ok {
			return
		}
		if px, ok := FontSizePx(value); ok && (!found || px > maxSize) {
			maxSize, found = px, true
		}
	})
	return maxSize, found
}

// InheritedFontSizePx returns the font-size declared on the nearest of sel
// and its ancestors.
func InheritedFontSizePx(sel *goquery.Selection) (float64, bool) {
	for cur := sel; cur.Length() > 0; cur = cur.Parent() {
		if value, ok := StyleValue(cur.AttrOr("style", ""), "font-size"); ok {
			if px, ok := FontSizePx(value); ok {
				return px, true
			}
		}
	}
	return 0, false
}

// Colors lists every text color declared on sel or its descendants, both
// inline color properties and legacy font color attributes.
func Colors(sel *goquery.Selection) []string {
	out := []string{}
	sel.Find("[style]").AddSelection(sel.Filter("[style]")).Each(func(_ int, s *goquery.Selection) {
		if value, ok := StyleValue(s.AttrOr("style", ""), "color"); ok && value != "" {
			out = append(out, value)
		}
	})
	sel.Find("font[color]").AddSelection(sel.Filter("font[color]")).Each(func(_ int, s *goquery.Selection) {
		if c := strings.TrimSpace(s.AttrOr("color", "")); c != "" {
			out = append(out, c)
		}
	})
	return out
}
