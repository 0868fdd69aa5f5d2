package notation

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Pairs of (styled glyph, plain character).
const (
	superscriptPairs = "⁰0¹1²2³3⁴4⁵5⁶6⁷7⁸8⁹9⁺+⁻-⁼=⁽(⁾)" +
		"ᵃaᵇbᶜcᵈdᵉeᶠfᵍgʰhⁱiʲjᵏkˡlᵐmⁿnᵒoᵖpʳrˢsᵗtᵘuᵛvʷwˣxʸyᶻz"
	subscriptPairs = "₀0₁1₂2₃3₄4₅5₆6₇7₈8₉9₊+₋-₌=₍(₎)" +
		"ₐaₑeₕhᵢiⱼjₖkₗlₘmₙnₒoₚpᵣrₛsₜtᵤuᵥvₓx"
)

const (
	// FractionSlash separates a superscript numerator from a subscript
	// denominator.
	FractionSlash = '\u2044'
	// CombiningMacron and CombiningOverline draw a bar over the preceding
	// glyph or bracketed group.
	CombiningMacron   = '\u0304'
	CombiningOverline = '\u0305'
)

// GlyphTable holds the code points that act as math markup.
type GlyphTable struct {
	superToPlain map[rune]rune
	subToPlain   map[rune]rune
	plainToSuper map[rune]rune
	plainToSub   map[rune]rune
	fraction     rune
	overline     map[rune]bool
}

// DefaultGlyphs returns the standard table. Each call returns a fresh table.
func DefaultGlyphs() *GlyphTable {
	g := &GlyphTable{
		fraction: FractionSlash,
		overline: map[rune]bool{CombiningMacron: true, CombiningOverline: true},
	}
	g.superToPlain, g.plainToSuper = pairs(superscriptPairs)
	g.subToPlain, g.plainToSub = pairs(subscriptPairs)
	return g
}

func pairs(s string) (forward, inverse map[rune]rune) {
	rs := []rune(s)
	forward = make(map[rune]rune, len(rs)/2)
	inverse = make(map[rune]rune, len(rs)/2)
	for i := 0; i+1 < len(rs); i += 2 {
		forward[rs[i]] = rs[i+1]
		inverse[rs[i+1]] = rs[i]
	}
	return forward, inverse
}

func (g *GlyphTable) IsSuperscript(r rune) bool { _, ok := g.superToPlain[r]; return ok }
func (g *GlyphTable) IsSubscript(r rune) bool   { _, ok := g.subToPlain[r]; return ok }
func (g *GlyphTable) IsOverline(r rune) bool    { return g.overline[r] }
func (g *GlyphTable) IsFraction(r rune) bool    { return r == g.fraction }

// Plain maps superscript and subscript glyphs back to their plain
// characters and the fraction separator to '/'. Other runes pass through.
func (g *GlyphTable) Plain(s string) string {
	return strings.Map(func(r rune) rune {
		if p, ok := g.superToPlain[r]; ok {
			return p
		}
		if p, ok := g.subToPlain[r]; ok {
			return p
		}
		if r == g.fraction {
			return '/'
		}
		return r
	}, s)
}

// Superscript converts s to superscript glyphs. ok is false if some
// character has no superscript form.
func (g *GlyphTable) Superscript(s string) (string, bool) {
	return convert(s, g.plainToSuper)
}

// Subscript converts s to subscript glyphs. ok is false if some character
// has no subscript form.
func (g *GlyphTable) Subscript(s string) (string, bool) {
	return convert(s, g.plainToSub)
}

// Fraction builds the composite num⁄den. ok is false if either part
// cannot be encoded or is empty.
func (g *GlyphTable) Fraction(num, den string) (string, bool) {
	if num == "" || den == "" {
		return "", false
	}
	n, ok := g.Superscript(num)
	if !ok {
		return "", false
	}
	d, ok := g.Subscript(den)
	if !ok {
		return "", false
	}
	return n + string(g.fraction) + d, true
}

// SplitFraction is the inverse of Fraction.
func (g *GlyphTable) SplitFraction(s string) (num, den string, ok bool) {
	rs := []rune(s)
	i := 0
	for i < len(rs) && g.IsSuperscript(rs[i]) {
		i++
	}
	if i == 0 || i >= len(rs) || rs[i] != g.fraction {
		return "", "", false
	}
	j := i + 1
	for j < len(rs) && g.IsSubscript(rs[j]) {
		j++
	}
	if j == i+1 || j != len(rs) {
		return "", "", false
	}
	return g.Plain(string(rs[:i])), g.Plain(string(rs[i+1:])), true
}

func convert(s string, m map[rune]rune) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		c, ok := m[r]
		if !ok {
			return "", false
		}
		b.WriteRune(c)
	}
	return b.String(), true
}

// expand returns the runes of text with precomposed letters that carry an
// overline accent split into base and accent.
func (g *GlyphTable) expand(text string) []rune {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if r < 0x80 {
			out = append(out, r)
			continue
		}
		d := []rune(norm.NFD.String(string(r)))
		if n := len(d); n > 1 && g.overline[d[n-1]] {
			out = append(out, []rune(norm.NFC.String(string(d[:n-1])))...)
			out = append(out, d[n-1])
			continue
		}
		out = append(out, r)
	}
	return out
}
