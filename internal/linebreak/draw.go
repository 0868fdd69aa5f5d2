package linebreak

import (
	"github.com/dgallion1/exampress/internal/draw"
	"github.com/dgallion1/exampress/internal/markup"
	"github.com/dgallion1/exampress/internal/typeface"
)

const (
	underlineDrop  = 1.0
	underlineWidth = 0.2
)

// Composer lays out styled text at a baseline. *notation.Compositor
// implements it.
type Composer interface {
	Compose(text string, style typeface.Style, x, y float64) ([]draw.Op, float64)
}

// Merged returns the segments with adjacent same-style runs joined, so an
// overline over a spaced group is composed as one piece. Break sums token
// widths, so kerning across a join is not counted when lines are filled.
// Kerning in the Go fonts is small next to Slack.
func (l Line) Merged() []markup.Run {
	var out []markup.Run
	for _, seg := range l.Segments {
		if n := len(out); n > 0 && out[n-1].Style == seg.Style {
			out[n-1].Text += seg.Text
			continue
		}
		out = append(out, seg)
	}
	return out
}

// Draw composes the line with its left edge at x (indent not applied) and
// baseline y, and returns the ops and the end x.
func (l Line) Draw(c Composer, x, y float64) ([]draw.Op, float64) {
	var ops []draw.Op
	for _, seg := range l.Merged() {
		segOps, end := c.Compose(seg.Text, seg.Style, x, y)
		ops = append(ops, segOps...)
		if seg.Style.Underline && end > x {
			ops = append(ops, draw.Rule(x, y+underlineDrop, end, y+underlineDrop, underlineWidth))
		}
		x = end
	}
	return ops, x
}
