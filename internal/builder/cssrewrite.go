package builder

import (
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// RewriteSelectors renames id selectors (#old) and class selectors (.old)
// in a stylesheet. Everything else, comments and whitespace included, is
// copied through byte for byte.
func RewriteSelectors(stylesheet string, ids, classes map[string]string) string {
	if stylesheet == "" || (len(ids) == 0 && len(classes) == 0) {
		return stylesheet
	}
	l := css.NewLexer(parse.NewInputString(stylesheet))
	var b strings.Builder
	afterDot := false
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			break
		}
		switch {
		case tt == css.HashToken:
			if repl, ok := ids[string(data[1:])]; ok {
				b.WriteByte('#')
				b.WriteString(repl)
			} else {
				b.Write(data)
			}
		case tt == css.IdentToken && afterDot:
			if repl, ok := classes[string(data)]; ok {
				b.WriteString(repl)
			} else {
				b.Write(data)
			}
		default:
			b.Write(data)
		}
		afterDot = tt == css.DelimToken && len(data) == 1 && data[0] == '.'
	}
	if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
		return stylesheet
	}
	return b.String()
}
