package layout

import (
	"strconv"

	"github.com/dgallion1/exampress/internal/draw"
	"github.com/dgallion1/exampress/internal/linebreak"
	"github.com/dgallion1/exampress/internal/markup"
	"github.com/dgallion1/exampress/internal/notation"
	"github.com/dgallion1/exampress/internal/question"
	"github.com/dgallion1/exampress/internal/typeface"
)

const (
	titleSize    = 16
	titleLeading = 8
	smallSize    = 8
)

// header draws the exam header block at the top of the first page.
func (f *flow) header(h *question.Header) {
	cfg := f.cfg
	plain := typeface.Style{}
	bold := typeface.Style{Bold: true}

	if h.TeacherID != "" {
		small := f.text.WithSize(smallSize)
		s := "Teacher ID: " + h.TeacherID
		ops, _ := small.Compose(s, plain, cfg.PageWidth-cfg.Margin-small.Width(s, plain), f.y)
		f.page.Add(ops...)
		f.y += cfg.LineHeight
	}

	if h.Title != "" {
		title := f.text.WithSize(titleSize)
		lines := linebreak.New(title).Break(markup.Plain(h.Title, bold), cfg.ContentWidth())
		for _, line := range lines {
			f.centred(title, line)
			f.y += titleLeading
		}
	}
	if h.Subtitle != "" {
		for _, line := range f.breaker.Break(markup.Plain(h.Subtitle, plain), cfg.ContentWidth()) {
			f.centred(f.text, line)
			f.y += cfg.LineHeight
		}
	}
	f.divider()

	var info []string
	if h.Subject != "" {
		info = append(info, "Subject: "+h.Subject)
	}
	if h.Duration != "" {
		info = append(info, "Duration: "+h.Duration)
	}
	if h.TotalMarks > 0 {
		info = append(info, "Total marks: "+strconv.Itoa(h.TotalMarks))
	}
	if len(info) > 0 {
		f.spread(info)
		f.y += cfg.LineHeight
	}

	if len(h.Instructions) > 0 {
		ops, _ := f.text.Compose("Instructions:", bold, cfg.Margin, f.y)
		f.page.Add(ops...)
		f.y += cfg.LineHeight

		var tokens []markup.Token
		for i, ins := range h.Instructions {
			tokens = append(tokens, markup.Token{Kind: markup.KindListStart, List: markup.Ordered, Ordinal: i + 1})
			marker := markup.TextToken(markup.Marker(markup.Ordered, i+1), plain)
			marker.Marker = true
			tokens = append(tokens, marker)
			tokens = append(tokens, markup.Plain(ins, plain)...)
			tokens = append(tokens, markup.Token{Kind: markup.KindListEnd})
		}
		f.drawLines(f.text, f.breaker.Break(tokens, cfg.ContentWidth()), cfg.Margin)
	}
	f.divider()
}

func (f *flow) centred(c *notation.Compositor, line linebreak.Line) {
	w := 0.0
	for _, seg := range line.Merged() {
		w += c.Width(seg.Text, seg.Style)
	}
	ops, _ := line.Draw(c, (f.cfg.PageWidth-w)/2, f.y)
	f.page.Add(ops...)
}

// spread draws items on one line: first flush left, last flush right,
// the rest evenly between.
func (f *flow) spread(items []string) {
	cfg := f.cfg
	plain := typeface.Style{}
	if len(items) == 1 {
		ops, _ := f.text.Compose(items[0], plain, cfg.Margin, f.y)
		f.page.Add(ops...)
		return
	}
	step := cfg.ContentWidth() / float64(len(items)-1)
	for i, s := range items {
		w := f.text.Width(s, plain)
		x := cfg.Margin + float64(i)*step - w*float64(i)/float64(len(items)-1)
		ops, _ := f.text.Compose(s, plain, x, f.y)
		f.page.Add(ops...)
	}
}

// divider draws a full-width rule between the previous line and the next.
func (f *flow) divider() {
	cfg := f.cfg
	y := f.y - cfg.LineHeight/2
	f.page.Add(draw.Rule(cfg.Margin, y, cfg.PageWidth-cfg.Margin, y, cfg.RuleWidth))
	f.y += cfg.LineHeight / 2
}
