package placement

import (
	"github.com/dgallion1/exampress/internal/draw"
	"github.com/dgallion1/exampress/internal/linebreak"
	"github.com/dgallion1/exampress/internal/markup"
	"github.com/dgallion1/exampress/internal/typeface"
)

// TableStyle sizes tables.
type TableStyle struct {
	WidthRatio    float64 // table width / content width
	BaseRowHeight float64
	LineHeight    float64
	Padding       float64 // inside each cell, all sides
	BorderWidth   float64
}

// Composer measures and draws cell text. *notation.Compositor set at the
// table font size implements it.
type Composer interface {
	linebreak.Measurer
	linebreak.Composer
}

// Tables lays out grids of plain-text cells.
type Tables struct {
	Geometry Geometry
	Style    TableStyle
	Text     Composer
	breaker  *linebreak.Breaker
}

// NewTables returns a table layouter drawing cell text with c.
func NewTables(g Geometry, s TableStyle, c Composer) *Tables {
	b := linebreak.New(c)
	b.Slack = 0
	return &Tables{Geometry: g, Style: s, Text: c, breaker: b}
}

// Width returns the table width.
func (t *Tables) Width() float64 {
	return t.Geometry.ContentWidth() * t.Style.WidthRatio
}

func (t *Tables) cellLines(cell string, colW float64) []linebreak.Line {
	return t.breaker.Break(markup.Plain(cell, typeface.Style{}), colW-2*t.Style.Padding)
}

// Measure returns each row's height and the table's total height. Rows
// must already be padded to equal length.
func (t *Tables) Measure(rows [][]string) ([]float64, float64) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, 0
	}
	colW := t.Width() / float64(len(rows[0]))
	heights := make([]float64, len(rows))
	total := 0.0
	for i, row := range rows {
		h := t.Style.BaseRowHeight
		for _, cell := range row {
			n := len(t.cellLines(cell, colW))
			h = max(h, float64(n)*t.Style.LineHeight+2*t.Style.Padding)
		}
		heights[i] = h
		total += h
	}
	return heights, total
}

// Place draws the table with its top edge at top.
func (t *Tables) Place(rows [][]string, top float64) Result {
	heights, total := t.Measure(rows)
	if heights == nil {
		return Result{NewY: top}
	}
	width := t.Width()
	colW := width / float64(len(rows[0]))
	left := (t.Geometry.PageWidth - width) / 2

	var ops []draw.Op
	y := top
	for r, row := range rows {
		rowH := heights[r]
		for c, cell := range row {
			x := left + float64(c)*colW
			ops = append(ops, draw.Rect(x, y, colW, rowH, 0, t.Style.BorderWidth))

			lines := t.cellLines(cell, colW)
			block := float64(len(lines)) * t.Style.LineHeight
			// Baseline of the first line sits 0.75 of a line below its top.
			baseline := y + (rowH-block)/2 + 0.75*t.Style.LineHeight
			for _, line := range lines {
				w := 0.0
				for _, seg := range line.Segments {
					w += t.Text.Width(seg.Text, seg.Style)
				}
				lineOps, _ := line.Draw(t.Text, x+(colW-w)/2, baseline)
				ops = append(ops, lineOps...)
				baseline += t.Style.LineHeight
			}
		}
		y += rowH
	}
	return Result{Ops: ops, Height: total, NewY: top + total}
}
