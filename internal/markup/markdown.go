package markup

import (
	"bytes"
	"fmt"
	"strings"

	strip "github.com/grokify/html-strip-tags-go"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// FromMarkdown converts Markdown question text to an HTML fragment the
// tokenizer understands.
func FromMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// PlainText returns the text content of a fragment with tags removed and
// entities decoded.
func PlainText(fragment string) string {
	return html.UnescapeString(strip.StripTags(fragment))
}

// HasText reports whether the fragment has any visible text.
func HasText(fragment string) bool {
	return strings.TrimSpace(PlainText(fragment)) != ""
}
