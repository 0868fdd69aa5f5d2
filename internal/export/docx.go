package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/exampress/internal/config"
	"github.com/dgallion1/exampress/internal/markup"
	"github.com/dgallion1/exampress/internal/media"
	"github.com/dgallion1/exampress/internal/question"
	"github.com/dgallion1/exampress/internal/typeface"
)

const (
	twipsPerMM = 1440 / 25.4
	emuPerMM   = 36000
)

// DOCX writes the paper as an editable Word document. Unlike PDF and PNG
// it is a flow export of the question tree; Word does its own pagination.
func DOCX(w io.Writer, paper *question.Paper, cfg config.Layout) error {
	if paper == nil {
		return question.ErrEmptyPaper
	}
	d := &docxWriter{doc: docx.New().WithDefaultTheme().WithA4Page(), cfg: cfg}
	if paper.Header != nil {
		d.header(paper.Header)
	}
	for i, q := range paper.Questions {
		if err := d.node(q, question.LevelMain, i, 0); err != nil {
			return err
		}
	}
	if _, err := d.doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

type docxWriter struct {
	doc *docx.Docx
	cfg config.Layout
}

// halfPoints is the run size unit.
func halfPoints(pt float64) string {
	return strconv.Itoa(int(pt * 2))
}

func (d *docxWriter) para(indentMM float64) *docx.Paragraph {
	p := d.doc.AddParagraph()
	if indentMM > 0 {
		p.Properties = &docx.ParagraphProperties{Ind: &docx.Ind{Left: int(indentMM * twipsPerMM)}}
	}
	return p
}

// mathFont is the Word font for symbol runs.
const mathFont = "Cambria Math"

func (d *docxWriter) text(p *docx.Paragraph, s string, style typeface.Style, size float64) {
	for _, sp := range typeface.Spans(s, style) {
		d.run(p, sp.Text, sp.Style, style.Underline, size)
	}
}

func (d *docxWriter) run(p *docx.Paragraph, s string, style typeface.Style, underline bool, size float64) {
	r := p.AddText(s).Size(halfPoints(size))
	if style.Math {
		r.Font(mathFont, mathFont, mathFont, "")
	}
	if style.Bold {
		r.Bold()
	}
	if style.Italic {
		r.Italic()
	}
	if underline {
		r.Underline("single")
	}
}

func (d *docxWriter) header(h *question.Header) {
	size := d.cfg.FontSize
	bold := typeface.Style{Bold: true}
	if h.TeacherID != "" {
		d.text(d.para(0).Justification("end"), "Teacher ID: "+h.TeacherID, typeface.Style{}, 8)
	}
	if h.Title != "" {
		d.text(d.para(0).Justification("center"), h.Title, bold, 16)
	}
	if h.Subtitle != "" {
		d.text(d.para(0).Justification("center"), h.Subtitle, typeface.Style{}, size)
	}

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
		d.text(d.para(0), strings.Join(info, "    "), typeface.Style{}, size)
	}
	if len(h.Instructions) > 0 {
		d.text(d.para(0), "Instructions:", bold, size)
		for i, ins := range h.Instructions {
			d.text(d.para(d.cfg.ListIndent), markup.Marker(markup.Ordered, i+1)+ins, typeface.Style{}, size)
		}
	}
}

func (d *docxWriter) node(n *question.Node, level, index int, indent float64) error {
	if n == nil {
		return nil
	}
	if len(n.Children) > 0 && level+1 >= question.MaxDepth {
		return question.ErrTooDeep
	}
	indent += d.cfg.LabelIndent[level]
	size := d.cfg.FontSize

	src := n.Text
	if n.Format == question.FormatMarkdown {
		var err error
		if src, err = markup.FromMarkdown(src); err != nil {
			return err
		}
	}
	tokens, err := markup.Tokenize(src)
	if err != nil {
		return err
	}

	p := d.para(indent)
	d.text(p, question.Label(level, index)+" ", typeface.Style{Bold: true}, size)

	// Adjacent runs in one style become one Word run.
	var run markup.Run
	empty := true
	flush := func() {
		if run.Text != "" {
			d.text(p, run.Text, run.Style, size)
		}
		run = markup.Run{}
	}
	newPara := func(indent float64) {
		flush()
		p, empty = d.para(indent), true
	}
	for _, tok := range tokens {
		switch tok.Kind {
		case markup.KindText:
			if empty && markup.IsSpace(tok.Run.Text) {
				continue
			}
			if tok.Run.Style != run.Style {
				flush()
			}
			run.Style = tok.Run.Style
			run.Text += tok.Run.Text
			empty = false
		case markup.KindNewline:
			if !empty {
				newPara(indent)
			}
		case markup.KindListStart:
			newPara(indent + d.cfg.ListIndent*float64(tok.Level+1))
		case markup.KindListEnd:
			if !empty {
				newPara(indent)
			}
		}
	}
	flush()

	if err := d.images(n, level); err != nil {
		return err
	}
	if n.Table != nil {
		d.table(n.Table)
	}
	for i, child := range n.Children {
		if err := d.node(child, level+1, i, indent); err != nil {
			return err
		}
	}
	return nil
}

// images adds the node's images to one paragraph at the level's height.
// Images that cannot be decoded are left out, as in the paginated output.
func (d *docxWriter) images(n *question.Node, level int) error {
	imgs := n.QuotaImages()
	if len(imgs) == 0 {
		return nil
	}
	p := d.para(0).Justification("center")
	if n.Align() == question.AlignRight {
		p.Justification("end")
	}
	h := d.cfg.ImageHeight[level]
	for _, img := range imgs {
		info, err := media.Config(img.Data)
		if err != nil {
			continue
		}
		data := img.Data
		if media.PDFType(info.Format) == "" {
			if data, err = media.ToPNG(data); err != nil {
				continue
			}
		}
		run, err := p.AddInlineDrawing(data)
		if err != nil {
			return fmt.Errorf("docx image: %w", err)
		}
		w, ih := h*float64(info.Width)/float64(info.Height), h
		if cw := d.cfg.ContentWidth(); w > cw {
			w, ih = cw, cw*float64(info.Height)/float64(info.Width)
		}
		for _, c := range run.Children {
			if dr, ok := c.(*docx.Drawing); ok && dr.Inline != nil {
				dr.Inline.Size(int64(w*emuPerMM), int64(ih*emuPerMM))
			}
		}
	}
	return nil
}

func (d *docxWriter) table(t *question.Table) {
	rows := question.NewTable(t.Rows).Rows
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	width := int64(d.cfg.ContentWidth() * d.cfg.TableWidthRatio * twipsPerMM)
	tbl := d.doc.AddTable(len(rows), len(rows[0]), width, nil).Justification("center")
	for r, row := range rows {
		for c, cell := range row {
			p := tbl.TableRows[r].TableCells[c].AddParagraph().Justification("center")
			d.text(p, cell, typeface.Style{}, d.cfg.TableFontSize)
		}
	}
}
