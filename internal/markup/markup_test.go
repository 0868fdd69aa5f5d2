package markup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/exampress/internal/typeface"
)

func joinText(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		if tok.Kind == KindText && !tok.Marker {
			b.WriteString(tok.Run.Text)
		}
	}
	return b.String()
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestTokenizePreservesText(t *testing.T) {
	fragments := []string{
		"What is 2+2?",
		"<b>Bold</b> and <i>italic</i> and <u>under</u>",
		"<p>First paragraph.</p><p>Second   one.</p>",
		"line one<br>line two<br/>",
		"<div>x² + y² = z²</div>",
		`<span style="font-weight: bold">styled</span> plain &amp; more`,
		"<ul><li>alpha</li><li>beta <em>gamma</em></li></ul>",
		"<ol><li>one<ol><li>nested</li></ol></li></ol>",
		"<table><tr><td>unknown</td></tr></table> tags",
		"  leading and trailing  ",
	}
	for _, f := range fragments {
		tokens, err := Tokenize(f)
		require.NoError(t, err, f)
		assert.Equal(t, normalize(PlainText(f)), normalize(joinText(tokens)), f)
	}
}

func TestTokenizeStyles(t *testing.T) {
	tokens, err := Tokenize("<b>bold <i>both</i></b> <u>u</u>")
	require.NoError(t, err)

	want := []Token{
		TextToken("bold", typeface.Style{Bold: true}),
		TextToken(" ", typeface.Style{Bold: true}),
		TextToken("both", typeface.Style{Bold: true, Italic: true}),
		TextToken(" ", typeface.Style{}),
		TextToken("u", typeface.Style{Underline: true}),
	}
	if diff := cmp.Diff(want, tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeSpanStyle(t *testing.T) {
	tests := []struct {
		style string
		want  typeface.Style
	}{
		{"font-weight: bold", typeface.Style{Bold: true}},
		{"font-weight:700;", typeface.Style{Bold: true}},
		{"font-weight: 400", typeface.Style{}},
		{"font-style: italic", typeface.Style{Italic: true}},
		{"text-decoration: underline; font-weight: bolder", typeface.Style{Bold: true, Underline: true}},
		{"color: red", typeface.Style{}},
	}
	for _, tt := range tests {
		tokens, err := Tokenize(`<span style="` + tt.style + `">w</span>`)
		require.NoError(t, err)
		require.Len(t, tokens, 1, tt.style)
		assert.Equal(t, tt.want, tokens[0].Run.Style, tt.style)
	}

	// Inline style adds to the inherited style.
	tokens, err := Tokenize(`<b><span style="font-style: italic">w</span></b>`)
	require.NoError(t, err)
	assert.Equal(t, typeface.Style{Bold: true, Italic: true}, tokens[0].Run.Style)
}

func kinds(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if tok.Kind == KindText {
			out[i] = tok.Run.Text
			continue
		}
		out[i] = "<" + tok.Kind.String() + ">"
	}
	return out
}

func TestTokenizeBlocks(t *testing.T) {
	tokens, err := Tokenize("<p>A</p><p>B</p>intro<div>C<br></div><p></p>")
	require.NoError(t, err)
	want := []string{
		"A", "<newline>", "<newline>",
		"B", "<newline>", "<newline>",
		"intro", "<newline>",
		"C", "<newline>",
		"<newline>", "<newline>",
	}
	if diff := cmp.Diff(want, kinds(tokens)); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeParagraphsIgnoreWhitespaceBetweenTags(t *testing.T) {
	tight, err := Tokenize("<p>a</p><p>b</p>")
	require.NoError(t, err)
	spaced, err := Tokenize("<p>a</p>\n  <p>b</p>\n")
	require.NoError(t, err)

	structure := func(tokens []Token) []string {
		var out []string
		for _, s := range kinds(tokens) {
			if strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}
	want := []string{"a", "<newline>", "<newline>", "b", "<newline>", "<newline>"}
	assert.Equal(t, want, structure(tight))
	assert.Equal(t, want, structure(spaced))
}

func TestTokenizeLists(t *testing.T) {
	tokens, err := Tokenize(`<ol start="3"><li>c</li><li>d<ul><li>x</li></ul></li></ol>`)
	require.NoError(t, err)
	want := []string{
		"<list_start>", "3. ", "c", "<list_end>",
		"<list_start>", "4. ", "d",
		"<list_start>", "• ", "x", "<list_end>",
		"<list_end>",
	}
	if diff := cmp.Diff(want, kinds(tokens)); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, Ordered, tokens[0].List)
	assert.Equal(t, 0, tokens[0].Level)
	assert.Equal(t, 3, tokens[0].Ordinal)
	assert.True(t, tokens[1].Marker)

	nested := tokens[7]
	assert.Equal(t, KindListStart, nested.Kind)
	assert.Equal(t, Unordered, nested.List)
	assert.Equal(t, 1, nested.Level)
}

func TestTokenizeSkipsScript(t *testing.T) {
	tokens, err := Tokenize("a<script>alert(1)</script><style>p{}</style>b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, kinds(tokens))
}

func TestListCountersResetPerList(t *testing.T) {
	tokens, err := Tokenize("<ol><li>a</li></ol><ol><li>b</li></ol>")
	require.NoError(t, err)
	assert.Equal(t, 1, tokens[0].Ordinal)
	assert.Equal(t, 1, tokens[4].Ordinal)
}

func TestPlain(t *testing.T) {
	tokens := Plain("two  words\nnext", typeface.Style{Bold: true})
	assert.Equal(t, []string{"two", "  ", "words", "<newline>", "next"}, kinds(tokens))
	assert.True(t, tokens[0].Run.Style.Bold)
	assert.Empty(t, Plain("", typeface.Style{}))
}

func TestFromMarkdown(t *testing.T) {
	h, err := FromMarkdown("Find **x** if *x* > 2\n\n- one\n- two\n")
	require.NoError(t, err)

	tokens, err := Tokenize(h)
	require.NoError(t, err)

	var bold, italic []string
	lists := 0
	for _, tok := range tokens {
		switch {
		case tok.Kind == KindListStart:
			lists++
		case tok.Run.Style.Bold:
			bold = append(bold, tok.Run.Text)
		case tok.Run.Style.Italic:
			italic = append(italic, tok.Run.Text)
		}
	}
	assert.Equal(t, []string{"x"}, bold)
	assert.Equal(t, []string{"x"}, italic)
	assert.Equal(t, 2, lists)
}

func TestHasText(t *testing.T) {
	assert.False(t, HasText(""))
	assert.False(t, HasText("<p> </p><br>"))
	assert.True(t, HasText("<p>&nbsp;x</p>"))
	assert.Equal(t, "a & b", PlainText("<b>a</b> &amp; b"))
}
