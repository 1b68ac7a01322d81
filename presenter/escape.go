package presenter

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes the five characters with a meaning in HTML text and attribute values.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
