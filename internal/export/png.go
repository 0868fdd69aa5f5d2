package export

import (
	"fmt"
	"io"
	"math"

	"github.com/fogleman/gg"

	"github.com/dgallion1/exampress/internal/draw"
	"github.com/dgallion1/exampress/internal/media"
	"github.com/dgallion1/exampress/internal/typeface"
)

// PNG rasterises page n (1-based) of doc at pxPerMM pixels per millimetre.
func PNG(w io.Writer, doc *draw.Document, n int, pxPerMM float64) error {
	if pxPerMM <= 0 {
		return fmt.Errorf("invalid resolution %v px/mm", pxPerMM)
	}
	page, err := doc.Page(n)
	if err != nil {
		return err
	}
	faces, err := typeface.NewFacesDPI(pxPerMM * 25.4)
	if err != nil {
		return err
	}
	defer faces.Close()

	px := func(mm float64) float64 { return mm * pxPerMM }
	stroke := func(mm float64) float64 { return math.Max(1, px(mm)) }

	dc := gg.NewContext(int(math.Ceil(px(doc.PageWidth))), int(math.Ceil(px(doc.PageHeight))))
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)

	for _, op := range page.Ops {
		switch op.Kind {
		case draw.KindText:
			face, err := faces.Face(op.Style(), op.Size)
			if err != nil {
				return err
			}
			dc.SetFontFace(face)
			dc.DrawString(op.Text, px(op.X), px(op.Y))
		case draw.KindRule:
			dc.SetLineWidth(stroke(op.LineWidth))
			dc.DrawLine(px(op.X), px(op.Y), px(op.X2), px(op.Y2))
			dc.Stroke()
		case draw.KindRect:
			dc.SetLineWidth(stroke(op.LineWidth))
			if op.R > 0 {
				dc.DrawRoundedRectangle(px(op.X), px(op.Y), px(op.W), px(op.H), px(op.R))
			} else {
				dc.DrawRectangle(px(op.X), px(op.Y), px(op.W), px(op.H))
			}
			dc.Stroke()
		case draw.KindImage:
			img, _, err := media.Decode(doc.Images[op.Image])
			if err != nil {
				return fmt.Errorf("image %.12s: %w", op.Image, err)
			}
			b := img.Bounds()
			dc.Push()
			dc.Translate(px(op.X), px(op.Y))
			dc.Scale(px(op.W)/float64(b.Dx()), px(op.H)/float64(b.Dy()))
			dc.DrawImage(img, -b.Min.X, -b.Min.Y)
			dc.Pop()
		}
	}

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
