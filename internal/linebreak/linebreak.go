package linebreak

import (
	"strings"
	"unicode"

	"github.com/dgallion1/exampress/internal/markup"
	"github.com/dgallion1/exampress/internal/typeface"
)

// Measurer returns the laid-out width of styled text in millimetres.
// *notation.Compositor implements it.
type Measurer interface {
	Width(text string, style typeface.Style) float64
}

// Line is one output line.
type Line struct {
	Segments   []markup.Run
	Indent     float64 // millimetres from the text origin
	IsListItem bool
}

// Empty reports whether the line has no segments.
func (l Line) Empty() bool {
	return len(l.Segments) == 0
}

// Text returns the concatenated segment text.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Breaker wraps token streams into lines greedily.
type Breaker struct {
	Measure        Measurer
	IndentPerLevel float64 // list indent per nesting level, mm
	Slack          float64 // tolerance on the width budget, mm
}

// New returns a Breaker with a 6mm list indent and 0.5mm slack.
func New(m Measurer) *Breaker {
	return &Breaker{Measure: m, IndentPerLevel: 6, Slack: 0.5}
}

type state struct {
	b        *Breaker
	maxWidth float64
	lines    []Line

	cur      []markup.Run
	width    float64
	indent   float64 // indent of the line being built
	listItem bool

	pending float64   // indent for the first line of the next item
	items   []float64 // open list item indents, innermost last
}

// Break wraps tokens to maxWidth.
func (b *Breaker) Break(tokens []markup.Token, maxWidth float64) []Line {
	s := &state{b: b, maxWidth: maxWidth}
	for _, tok := range tokens {
		switch tok.Kind {
		case markup.KindNewline:
			s.flush(true)
		case markup.KindListStart:
			s.flushIfAny()
			indent := b.IndentPerLevel * float64(tok.Level+1)
			s.pending = indent
			s.items = append(s.items, indent)
		case markup.KindListEnd:
			s.flushIfAny()
			if n := len(s.items); n > 0 {
				s.items = s.items[:n-1]
			}
			s.pending = 0
		case markup.KindText:
			s.add(tok.Run)
		}
	}
	s.flushIfAny()
	return s.lines
}

// begin fixes the indent of a new line.
func (s *state) begin() {
	switch {
	case s.pending > 0:
		s.indent = s.pending
		s.pending = 0
	case len(s.items) > 0:
		s.indent = s.items[len(s.items)-1]
	default:
		s.indent = 0
	}
	s.listItem = len(s.items) > 0
}

func (s *state) budget() float64 {
	return s.maxWidth - s.indent + s.b.Slack
}

// flush ends the current line. Trailing whitespace is dropped; a line
// left empty is kept only for an explicit newline.
func (s *state) flush(explicit bool) {
	cur := s.cur
	for len(cur) > 0 && markup.IsSpace(cur[len(cur)-1].Text) {
		cur = cur[:len(cur)-1]
	}
	s.cur = nil
	s.width = 0
	if len(cur) == 0 {
		if explicit {
			s.lines = append(s.lines, Line{})
		}
		return
	}
	s.lines = append(s.lines, Line{Segments: cur, Indent: s.indent, IsListItem: s.listItem})
}

func (s *state) flushIfAny() {
	if len(s.cur) > 0 {
		s.flush(false)
	}
}

func (s *state) add(run markup.Run) {
	if run.Text == "" {
		return
	}
	space := markup.IsSpace(run.Text)
	if len(s.cur) == 0 {
		if space {
			return
		}
		s.begin()
	}

	w := s.b.Measure.Width(run.Text, run.Style)
	if s.width+w <= s.budget() {
		s.cur = append(s.cur, run)
		s.width += w
		return
	}
	if space {
		s.flush(false)
		return
	}

	if len(s.cur) > 0 {
		s.flush(false)
		s.begin()
	}
	if w <= s.budget() {
		s.cur = append(s.cur, run)
		s.width = w
		return
	}
	s.split(run)
}

// split breaks a run wider than a whole line into line-sized pieces. The
// last piece stays open so following tokens can join it.
func (s *state) split(run markup.Run) {
	clusters := Clusters(run.Text)
	for len(clusters) > 0 {
		n, w := 1, s.b.Measure.Width(clusters[0], run.Style)
		for n < len(clusters) {
			next := s.b.Measure.Width(strings.Join(clusters[:n+1], ""), run.Style)
			if next > s.budget() {
				break
			}
			n, w = n+1, next
		}
		piece := markup.Run{Text: strings.Join(clusters[:n], ""), Style: run.Style}
		clusters = clusters[n:]
		s.cur = append(s.cur, piece)
		s.width = w
		if len(clusters) > 0 {
			s.flush(false)
			s.begin()
		}
	}
}

// Clusters splits s into base glyphs with their trailing combining marks.
func Clusters(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if i > start && !unicode.Is(unicode.M, r) {
			out = append(out, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// Height returns the total height of lines given prose and list line
// heights.
func Height(lines []Line, prose, list float64) float64 {
	h := 0.0
	for _, l := range lines {
		if l.IsListItem {
			h += list
		} else {
			h += prose
		}
	}
	return h
}
