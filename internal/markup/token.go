package markup

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dgallion1/exampress/internal/typeface"
)

// Kind identifies a token.
type Kind int

const (
	KindText Kind = iota
	KindNewline
	KindListStart
	KindListEnd
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNewline:
		return "newline"
	case KindListStart:
		return "list_start"
	case KindListEnd:
		return "list_end"
	}
	return "unknown"
}

// ListKind is the list flavour of a ListStart token.
type ListKind string

const (
	Unordered ListKind = "ul"
	Ordered   ListKind = "ol"
)

// Run is a piece of text in one style. Runs never span a structural
// boundary.
type Run struct {
	Text  string
	Style typeface.Style
}

// Token is one element of the flattened markup stream.
type Token struct {
	Kind Kind
	Run  Run // KindText

	// Marker is set on the synthesized bullet or ordinal that follows a
	// ListStart.
	Marker bool

	List    ListKind // KindListStart
	Level   int
	Ordinal int // ordered lists, 1-based
}

// TextToken returns a text token.
func TextToken(s string, style typeface.Style) Token {
	return Token{Kind: KindText, Run: Run{Text: s, Style: style}}
}

// IsSpace reports whether s consists only of whitespace.
func IsSpace(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}

// Plain splits unformatted text into alternating whitespace and word
// tokens in a single style. Line feeds become Newline tokens.
func Plain(text string, style typeface.Style) []Token {
	var out []Token
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out = append(out, Token{Kind: KindNewline})
		}
		out = appendWords(out, line, style)
	}
	return out
}

// appendWords splits s into maximal runs of whitespace and non-whitespace.
func appendWords(out []Token, s string, style typeface.Style) []Token {
	start := 0
	inSpace := false
	for i, r := range s {
		sp := unicode.IsSpace(r)
		if i > start && sp != inSpace {
			out = append(out, TextToken(s[start:i], style))
			start = i
		}
		inSpace = sp
	}
	if start < len(s) {
		out = append(out, TextToken(s[start:], style))
	}
	return out
}

// Marker returns the synthesized list marker for a list item.
func Marker(kind ListKind, ordinal int) string {
	if kind == Ordered {
		return strconv.Itoa(ordinal) + ". "
	}
	return "• "
}
