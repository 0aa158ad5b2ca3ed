package generators

import (
	"strings"

	"golang.org/x/net/html"
)

// Redaction replaces names that would give the answer away.
const Redaction = "-----"

// StripTags drops HTML markup, turning <br> into spaces and collapsing whitespace.
func StripTags(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" || string(name) == "p" {
				b.WriteByte(' ')
			}
		}
	}
}

// Redact replaces every occurrence of each non-empty name in text.
func Redact(text string, names ...string) string {
	for _, name := range names {
		if name == "" {
			continue
		}
		text = strings.ReplaceAll(text, name, Redaction)
	}
	return text
}
