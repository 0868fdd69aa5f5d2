package notation

import (
	"strings"

	"github.com/dgallion1/exampress/internal/draw"
	"github.com/dgallion1/exampress/internal/typeface"
)

// Metrics sizes the composed notation. Offsets are fractions of the em
// (the font size in millimetres); scales are fractions of the font size.
type Metrics struct {
	ScriptScale float64 // super/subscript glyph size
	SuperRise   float64
	SubDrop     float64

	FractionScale float64
	FractionBar   float64 // bar height above the baseline
	FractionGap   float64 // numerator baseline above the bar
	FractionDepth float64 // denominator baseline below the bar
	FractionLead  float64
	FractionTrail float64

	OverlineRise float64 // bar height above the baseline for one level
	OverlineStep float64 // extra rise per nested overline inside a region

	RuleWidth float64 // millimetres
}

// DefaultMetrics returns the metrics used for exam papers.
func DefaultMetrics() Metrics {
	return Metrics{
		ScriptScale:   0.6,
		SuperRise:     0.45,
		SubDrop:       0.35,
		FractionScale: 0.7,
		FractionBar:   0.3,
		FractionGap:   0.12,
		FractionDepth: 0.55,
		FractionLead:  0.24,
		FractionTrail: 0.12,
		OverlineRise:  0.75,
		OverlineStep:  0.15,
		RuleWidth:     0.2,
	}
}

// Compositor turns text containing superscript, subscript, fraction and
// overline glyphs into positioned draw ops.
type Compositor struct {
	Glyphs  *GlyphTable
	Measure typeface.Measurer
	Size    float64 // points
	Metrics Metrics
}

// New returns a compositor with the default glyph table and metrics.
func New(m typeface.Measurer, size float64) *Compositor {
	return &Compositor{
		Glyphs:  DefaultGlyphs(),
		Measure: m,
		Size:    size,
		Metrics: DefaultMetrics(),
	}
}

// WithSize returns a copy of c set at size points.
func (c *Compositor) WithSize(size float64) *Compositor {
	cp := *c
	cp.Size = size
	return &cp
}

// Compose lays out text starting at originX on baseline y and returns the
// ops and the x where the text ends.
func (c *Compositor) Compose(text string, style typeface.Style, originX, y float64) ([]draw.Op, float64) {
	s := c.newScan(text, style, originX, y, true)
	s.run(0, len(s.runes), -1)
	s.flush()
	return s.ops, s.x
}

// Width returns the advance of text as Compose would lay it out.
func (c *Compositor) Width(text string, style typeface.Style) float64 {
	s := c.newScan(text, style, 0, 0, false)
	s.run(0, len(s.runes), -1)
	s.flush()
	return s.x
}

// region is an overlined span [start, end); the accent sits at end.
type region struct {
	start, end int
	depth      int // 1 + deepest region nested inside
}

type scan struct {
	c       *Compositor
	g       *GlyphTable
	runes   []rune
	regions []region
	style   typeface.Style
	em      float64
	y       float64
	x       float64
	emit    bool
	ops     []draw.Op

	buf  []rune
	bufX float64
}

func (c *Compositor) newScan(text string, style typeface.Style, x, y float64, emit bool) *scan {
	g := c.Glyphs
	if g == nil {
		g = DefaultGlyphs()
	}
	s := &scan{
		c:     c,
		g:     g,
		runes: g.expand(text),
		style: style.Face(),
		em:    typeface.PtToMM(c.Size),
		x:     x,
		y:     y,
		emit:  emit,
	}
	s.regions = findRegions(g, s.runes)
	return s
}

// findRegions locates overline regions. An accent after ')' covers the
// bracketed group found by a backward depth scan; when no matching '('
// exists the region starts at the beginning of the text. Otherwise the
// accent covers the single preceding glyph. Accents at position 0 or
// directly after another accent are ignored.
func findRegions(g *GlyphTable, rs []rune) []region {
	var regions []region
	for p, r := range rs {
		if !g.IsOverline(r) || p == 0 || g.IsOverline(rs[p-1]) {
			continue
		}
		if rs[p-1] != ')' {
			regions = append(regions, region{start: p - 1, end: p})
			continue
		}
		depth := 1
		k := p - 2
		for k >= 0 && depth > 0 {
			switch rs[k] {
			case ')':
				depth++
			case '(':
				depth--
			}
			k--
		}
		regions = append(regions, region{start: k + 1, end: p})
	}
	// Regions are ordered by end, so every region nested inside regions[i]
	// comes before it.
	for i := range regions {
		regions[i].depth = 1
		for j := 0; j < i; j++ {
			if regions[j].start >= regions[i].start && regions[j].end <= regions[i].end {
				regions[i].depth = max(regions[i].depth, regions[j].depth+1)
			}
		}
	}
	return regions
}

// regionAt returns the widest region starting at i whose accent lies
// before hi. The enclosing region ends at hi and so never matches.
func (s *scan) regionAt(i, hi, enclosing int) int {
	best := -1
	for idx, r := range s.regions {
		if idx == enclosing || r.start != i || r.end >= hi {
			continue
		}
		if best < 0 || r.end > s.regions[best].end {
			best = idx
		}
	}
	return best
}

func (s *scan) run(lo, hi, enclosing int) {
	g := s.g
	for i := lo; i < hi; {
		r := s.runes[i]
		if g.IsOverline(r) {
			i++
			continue
		}

		if idx := s.regionAt(i, hi, enclosing); idx >= 0 {
			reg := s.regions[idx]
			s.flush()
			x0 := s.x
			s.run(reg.start, reg.end, idx)
			s.flush()
			m := s.c.Metrics
			rise := (m.OverlineRise + float64(reg.depth-1)*m.OverlineStep) * s.em
			s.add(draw.Rule(x0, s.y-rise, s.x, s.y-rise, m.RuleWidth))
			i = reg.end
			continue
		}

		if g.IsSuperscript(r) {
			j := i
			for j < hi && g.IsSuperscript(s.runes[j]) {
				j++
			}
			if j < hi && g.IsFraction(s.runes[j]) {
				k := j + 1
				// An overlined glyph ends the denominator so its accent
				// is still drawn.
				for k < hi && g.IsSubscript(s.runes[k]) && s.regionAt(k, hi, enclosing) < 0 {
					k++
				}
				if k > j+1 {
					s.flush()
					s.fraction(string(s.runes[i:j]), string(s.runes[j+1:k]))
					i = k
					continue
				}
			}
		}

		if g.IsSuperscript(r) || g.IsSubscript(r) {
			s.flush()
			s.script(r)
			i++
			continue
		}

		if len(s.buf) == 0 {
			s.bufX = s.x
		}
		s.buf = append(s.buf, r)
		i++
	}
}

func (s *scan) add(op draw.Op) {
	if s.emit {
		s.ops = append(s.ops, op)
	}
}

func (s *scan) width(text string, size float64) float64 {
	return s.c.Measure.Width(text, s.style, size)
}

// text emits text at (x, y), one op per face, and returns its advance.
func (s *scan) text(x, y float64, text string, size float64) float64 {
	w := 0.0
	for _, sp := range typeface.Spans(text, s.style) {
		s.add(draw.Text(x+w, y, sp.Text, sp.Style, size))
		w += s.c.Measure.Width(sp.Text, sp.Style, size)
	}
	return w
}

// flush emits the pending run of normal glyphs.
func (s *scan) flush() {
	if len(s.buf) == 0 {
		return
	}
	text := string(s.buf)
	s.buf = s.buf[:0]
	s.x = s.bufX + s.text(s.bufX, s.y, text, s.c.Size)
}

func (s *scan) script(r rune) {
	m := s.c.Metrics
	size := s.c.Size * m.ScriptScale
	plain := s.g.Plain(string(r))
	y := s.y - m.SuperRise*s.em
	if s.g.IsSubscript(r) {
		y = s.y + m.SubDrop*s.em
	}
	s.x += s.text(s.x, y, plain, size)
}

func (s *scan) fraction(num, den string) {
	m := s.c.Metrics
	size := s.c.Size * m.FractionScale
	num = strings.TrimSpace(s.g.Plain(num))
	den = strings.TrimSpace(s.g.Plain(den))
	nw := s.width(num, size)
	dw := s.width(den, size)
	shared := max(nw, dw)

	x0 := s.x + m.FractionLead*s.em
	bar := s.y - m.FractionBar*s.em
	s.text(x0+(shared-nw)/2, bar-m.FractionGap*s.em, num, size)
	s.add(draw.Rule(x0, bar, x0+shared, bar, m.RuleWidth))
	s.text(x0+(shared-dw)/2, bar+m.FractionDepth*s.em, den, size)
	s.x = x0 + shared + m.FractionTrail*s.em
}
