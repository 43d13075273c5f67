package builder

import "strings"

const noIndexMeta = `<meta name="robots" content="noindex">`

// wrapInjections places the head fragments before body and the body
// fragments after it: style, no-index marker, head markup, head script,
// then body markup, body script, exit popup.
func wrapInjections(body string, inj Inject) string {
	var b strings.Builder
	if css := strings.TrimSpace(inj.Style); css != "" {
		b.WriteString(wrapTag("style", css))
	}
	if inj.NoIndex {
		b.WriteString(noIndexMeta)
	}
	b.WriteString(inj.HeadHTML)
	if js := strings.TrimSpace(inj.HeadScript); js != "" {
		b.WriteString(wrapTag("script", js))
	}
	b.WriteString(body)
	b.WriteString(inj.BodyHTML)
	if js := strings.TrimSpace(inj.BodyScript); js != "" {
		b.WriteString(wrapTag("script", js))
	}
	b.WriteString(inj.ExitPopupHTML)
	return b.String()
}

// wrapTag wraps s in <tag>…</tag> unless it already starts with that tag.
func wrapTag(tag, s string) string {
	if strings.HasPrefix(strings.ToLower(s), "<"+tag) {
		return s
	}
	return "<" + tag + ">" + s + "</" + tag + ">"
}
