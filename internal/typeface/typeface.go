package typeface

import (
	"strings"
	"unicode"
)

// Style selects a face. Underline does not change the face; it is carried
// so styled runs can be passed around as one value. Math selects the
// symbol face, which has no bold or italic variants.
type Style struct {
	Bold      bool `json:"bold,omitempty"`
	Italic    bool `json:"italic,omitempty"`
	Underline bool `json:"underline,omitempty"`
	Math      bool `json:"math,omitempty"`
}

// Family returns the font family name the style is set in.
func (s Style) Family() string {
	if s.Math {
		return MathFamily
	}
	return Family
}

// Variant returns the fpdf-style variant code for the style: "", "B", "I" or "BI".
func (s Style) Variant() string {
	switch {
	case s.Math:
		return ""
	case s.Bold && s.Italic:
		return "BI"
	case s.Bold:
		return "B"
	case s.Italic:
		return "I"
	}
	return ""
}

// Face returns the style with Underline cleared, so styles that share a
// face compare equal.
func (s Style) Face() Style {
	if s.Math {
		return Style{Math: true}
	}
	return Style{Bold: s.Bold, Italic: s.Italic}
}

const mathSymbols = "π√∫∞≤≥±→←∑∏∂∇∆∈∉∪∩⊂⊃∀∃∧∨¬∝≠≈≡≅∼⊕⊗∠∥⊥°′″"

// IsMathSymbol reports whether r is set in the symbol face.
func IsMathSymbol(r rune) bool {
	return strings.ContainsRune(mathSymbols, r)
}

// Span is a piece of text set in a single face.
type Span struct {
	Text  string
	Style Style
}

// Spans splits text where it switches between s and the symbol face.
func Spans(text string, s Style) []Span {
	var out []Span
	start, math := 0, false
	for i, r := range text {
		m := IsMathSymbol(r)
		if i > start && m != math {
			out = append(out, span(text[start:i], s, math))
			start = i
		}
		math = m
	}
	if start < len(text) {
		out = append(out, span(text[start:], s, math))
	}
	return out
}

func span(text string, s Style, math bool) Span {
	if math {
		s = Style{Math: true}
	}
	return Span{Text: text, Style: s}
}

// Measurer returns the advance width in millimetres of text set in the
// given style at size points.
type Measurer interface {
	Width(text string, style Style, size float64) float64
}

// PtToMM converts a length in points to millimetres.
func PtToMM(pt float64) float64 {
	return pt * 25.4 / 72
}

// Fixed is a Measurer in which every rune advances Advance millimetres at
// BaseSize points, scaled linearly with the requested size. Combining
// marks have no advance.
type Fixed struct {
	Advance  float64
	BaseSize float64
}

func (f Fixed) Width(text string, _ Style, size float64) float64 {
	base := f.BaseSize
	if base <= 0 {
		base = 12
	}
	n := 0
	for _, r := range text {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		n++
	}
	return float64(n) * f.Advance * size / base
}
