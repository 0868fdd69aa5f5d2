package markup

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/exampress/internal/typeface"
)

type listFrame struct {
	kind    ListKind
	counter int
}

type tokenizer struct {
	tokens []Token
	lists  []*listFrame
}

// Tokenize flattens an inline markup fragment into a token stream in
// document order.
func Tokenize(fragment string) ([]Token, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	t := &tokenizer{}
	for _, n := range nodes {
		t.walk(n, typeface.Style{})
	}
	return t.tokens, nil
}

func (t *tokenizer) emit(tok Token) {
	t.tokens = append(t.tokens, tok)
}

// midLine reports whether visible text has been emitted since the last
// structural token. Whitespace between tags does not count.
func (t *tokenizer) midLine() bool {
	for i := len(t.tokens) - 1; i >= 0; i-- {
		tok := t.tokens[i]
		if tok.Kind != KindText {
			return false
		}
		if !IsSpace(tok.Run.Text) {
			return true
		}
	}
	return false
}

func (t *tokenizer) walk(n *html.Node, style typeface.Style) {
	switch n.Type {
	case html.TextNode:
		t.tokens = appendWords(t.tokens, n.Data, style)
		return
	case html.ElementNode:
	default:
		t.children(n, style)
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head, atom.Title:
		return
	case atom.B, atom.Strong:
		style.Bold = true
	case atom.I, atom.Em:
		style.Italic = true
	case atom.U:
		style.Underline = true
	case atom.Span:
		style = inlineStyle(attr(n, "style"), style)
	case atom.Br:
		t.emit(Token{Kind: KindNewline})
		return
	case atom.P:
		t.paragraph(n, style)
		return
	case atom.Div:
		t.block(n, style)
		return
	case atom.Ul, atom.Ol:
		t.list(n, style)
		return
	case atom.Li:
		t.item(n, style)
		return
	}
	t.children(n, style)
}

func (t *tokenizer) children(n *html.Node, style typeface.Style) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.walk(c, style)
	}
}

// block starts the element on its own line and ends the line after it.
// A trailing <br> inside the block already ended the line.
func (t *tokenizer) block(n *html.Node, style typeface.Style) {
	if t.midLine() {
		t.emit(Token{Kind: KindNewline})
	}
	start := len(t.tokens)
	t.children(n, style)
	if len(t.tokens) > start && t.tokens[len(t.tokens)-1].Kind == KindNewline {
		return
	}
	t.emit(Token{Kind: KindNewline})
}

// paragraph ends with a blank line, so consecutive paragraphs are always
// separated by one.
func (t *tokenizer) paragraph(n *html.Node, style typeface.Style) {
	if t.midLine() {
		t.emit(Token{Kind: KindNewline})
	}
	t.children(n, style)
	t.emit(Token{Kind: KindNewline})
	t.emit(Token{Kind: KindNewline})
}

func (t *tokenizer) list(n *html.Node, style typeface.Style) {
	f := &listFrame{kind: Unordered}
	if n.DataAtom == atom.Ol {
		f.kind = Ordered
		if s, err := strconv.Atoi(attr(n, "start")); err == nil {
			f.counter = s - 1
		}
	}
	t.lists = append(t.lists, f)
	t.children(n, style)
	t.lists = t.lists[:len(t.lists)-1]
}

func (t *tokenizer) item(n *html.Node, style typeface.Style) {
	kind, level, ordinal := Unordered, 0, 0
	if depth := len(t.lists); depth > 0 {
		f := t.lists[depth-1]
		f.counter++
		kind, level, ordinal = f.kind, depth-1, f.counter
	}
	start := Token{Kind: KindListStart, List: kind, Level: level}
	if kind == Ordered {
		start.Ordinal = ordinal
	}
	t.emit(start)
	marker := TextToken(Marker(kind, ordinal), typeface.Style{})
	marker.Marker = true
	t.emit(marker)
	t.children(n, style)
	t.emit(Token{Kind: KindListEnd})
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// inlineStyle adds the bold, italic and underline flags set by a style
// attribute. It never clears flags inherited from outer elements.
func inlineStyle(decl string, style typeface.Style) typeface.Style {
	decl = strings.TrimSpace(decl)
	if decl == "" {
		return style
	}
	if !strings.HasSuffix(decl, ";") {
		decl += ";"
	}
	decls, err := parser.ParseDeclarations(decl)
	if err != nil {
		return style
	}
	for _, d := range decls {
		v := strings.ToLower(strings.TrimSpace(d.Value))
		switch strings.ToLower(d.Property) {
		case "font-weight":
			if v == "bold" || v == "bolder" {
				style.Bold = true
			} else if w, err := strconv.Atoi(v); err == nil && w >= 700 {
				style.Bold = true
			}
		case "font-style":
			if v == "italic" || strings.HasPrefix(v, "oblique") {
				style.Italic = true
			}
		case "text-decoration", "text-decoration-line":
			if strings.Contains(v, "underline") {
				style.Underline = true
			}
		}
	}
	return style
}
