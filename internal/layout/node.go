package layout

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/exampress/internal/markup"
	"github.com/dgallion1/exampress/internal/placement"
	"github.com/dgallion1/exampress/internal/question"
	"github.com/dgallion1/exampress/internal/typeface"
)

// nodeContext is what a node inherits from its parent.
type nodeContext struct {
	labelX   float64 // label column
	promoted bool    // label shares the parent's label line
	path     []int
}

func (f *flow) node(n *question.Node, level, index int, nc nodeContext) error {
	if err := f.ctx.Err(); err != nil {
		return err
	}
	f.path = question.PathString(nc.path)
	if n == nil {
		return errors.New("nil question")
	}
	if len(n.Children) > 0 && level+1 >= question.MaxDepth {
		return question.ErrTooDeep
	}
	f.setState(RenderingNode)
	cfg := f.cfg

	src, err := source(n)
	if err != nil {
		return err
	}
	hasText := markup.HasText(src)

	if !nc.promoted {
		f.fitEstimate(src)
	}

	imgs := n.QuotaImages()
	var right *placement.Image
	if hasText && n.Align() == question.AlignRight && len(imgs) > 0 {
		img, ok, err := f.decode(imgs[0], 0)
		if err != nil {
			return err
		}
		if ok {
			right = &img
			if !nc.promoted {
				f.ensure(cfg.BeforeBlock + f.geo.Right(img, 0).Height)
			}
		}
		imgs = nil
	}

	bold := typeface.Style{Bold: true}
	label := question.Label(level, index) + " "
	ops, textX := f.text.Compose(label, bold, nc.labelX, f.y)
	f.page.Add(ops...)

	startPage := f.page
	rightBottom := 0.0
	if right != nil {
		res := f.geo.Right(*right, f.y+cfg.BeforeBlock)
		f.page.Add(res.Ops...)
		rightBottom = res.NewY + cfg.AfterImage
	}

	promote := !hasText && len(imgs) == 0 && n.Table == nil && len(n.Children) > 0
	switch {
	case hasText:
		width := cfg.PageWidth - cfg.Margin - textX
		if right != nil {
			imageLeft := cfg.PageWidth - cfg.Margin - f.geo.ContentWidth()*cfg.RightImageRatio
			width = min(imageLeft-cfg.ImageGap-textX, f.geo.ContentWidth()*cfg.RightTextRatio)
		}
		tokens, err := markup.Tokenize(src)
		if err != nil {
			return err
		}
		f.drawLines(f.text, f.breaker.Break(tokens, width), textX)
	case !promote:
		f.y += cfg.LineHeight
	}
	if right != nil && f.page == startPage {
		f.y = max(f.y, rightBottom)
	}

	if len(imgs) > 0 {
		if err := f.images(imgs, n.Align(), level); err != nil {
			return err
		}
	}
	if n.Table != nil {
		f.table(n.Table)
	}

	for i, child := range n.Children {
		cc := nodeContext{
			labelX:   textX + cfg.LabelIndent[level+1],
			promoted: promote && i == 0,
			path:     append(nc.path[:len(nc.path):len(nc.path)], i),
		}
		if err := f.node(child, level+1, i, cc); err != nil {
			return err
		}
	}

	f.y += cfg.SiblingSpacing[level]
	return nil
}

func source(n *question.Node) (string, error) {
	if n.Format == question.FormatMarkdown {
		return markup.FromMarkdown(n.Text)
	}
	return n.Text, nil
}

// fitEstimate breaks the page when the node's estimated text height would
// run into the bottom buffer.
func (f *flow) fitEstimate(src string) {
	chars := utf8.RuneCountInString(strings.TrimSpace(markup.PlainText(src)))
	lines := max(1, int(math.Ceil(float64(chars)/float64(f.cfg.CharsPerLine))))
	est := float64(lines) * f.cfg.LineHeight
	if f.y+est > f.cfg.ContentBottom()-f.cfg.PageBreakBuffer && !f.atTop() {
		f.newPage()
	}
}

// decode resolves one image's dimensions. A decode failure is logged and
// reported as !ok; only a cancelled context is an error.
func (f *flow) decode(img question.Image, i int) (placement.Image, bool, error) {
	f.setState(AwaitingMedia)
	info, err := f.e.decoder.Dimensions(f.ctx, img.Data)
	if err != nil {
		if ctxErr := f.ctx.Err(); ctxErr != nil {
			return placement.Image{}, false, ctxErr
		}
		f.setState(RenderingNode)
		f.log.Warn("skipping image", "question", f.path, "image", i, "error", err)
		return placement.Image{}, false, nil
	}
	f.setState(RenderingNode)
	key := f.doc.AddImage(img.Data)
	return placement.Image{Key: key, Dims: placement.Dims{Width: info.Width, Height: info.Height}}, true, nil
}

func (f *flow) images(imgs []question.Image, align question.Align, level int) error {
	var decoded []placement.Image
	for i, img := range imgs {
		pi, ok, err := f.decode(img, i)
		if err != nil {
			return err
		}
		if ok {
			decoded = append(decoded, pi)
		}
	}
	if len(decoded) == 0 {
		return nil
	}

	cfg := f.cfg
	target := cfg.ImageHeight[level]
	place := func(top float64) placement.Result {
		if align == question.AlignRight {
			return f.geo.Right(decoded[0], top)
		}
		return f.geo.Group(decoded, target, top)
	}
	f.ensure(cfg.BeforeBlock + place(0).Height)
	res := place(f.y + cfg.BeforeBlock)
	f.page.Add(res.Ops...)
	f.y = res.NewY + cfg.AfterImage
	return nil
}

// table places a table whole, moving it to a new page if it does not fit.
func (f *flow) table(t *question.Table) {
	rows := question.NewTable(t.Rows).Rows
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	_, h := f.tables.Measure(rows)
	f.ensure(f.cfg.BeforeBlock + h)
	res := f.tables.Place(rows, f.y+f.cfg.BeforeBlock)
	f.page.Add(res.Ops...)
	f.y = res.NewY + f.cfg.AfterTable
}
