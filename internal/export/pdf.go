// Package export writes laid-out documents as PDF, PNG and DOCX.
package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"github.com/dgallion1/exampress/internal/draw"
	"github.com/dgallion1/exampress/internal/media"
	"github.com/dgallion1/exampress/internal/typeface"
)

// PDFOptions controls the PDF writer.
type PDFOptions struct {
	Compress bool
	Title    string
}

// epoch pins the document dates so identical layouts give identical bytes.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// PDF replays doc's ops onto fixed-size pages.
func PDF(w io.Writer, doc *draw.Document, opts PDFOptions) error {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: doc.PageWidth, Ht: doc.PageHeight},
	})
	pdf.SetCompression(opts.Compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(epoch)
	pdf.SetModificationDate(epoch)
	pdf.SetCreator("exampress", false)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	for _, s := range typeface.Styles {
		pdf.AddUTF8FontFromBytes(s.Family(), s.Variant(), typeface.TTF(s))
	}

	registered := make(map[string]bool)
	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, op := range page.Ops {
			switch op.Kind {
			case draw.KindText:
				style := op.Style()
				pdf.SetFont(style.Family(), style.Variant(), op.Size)
				pdf.Text(op.X, op.Y, op.Text)
			case draw.KindRule:
				pdf.SetLineWidth(op.LineWidth)
				pdf.Line(op.X, op.Y, op.X2, op.Y2)
			case draw.KindRect:
				pdf.SetLineWidth(op.LineWidth)
				if op.R > 0 {
					pdf.RoundedRect(op.X, op.Y, op.W, op.H, op.R, "1234", "D")
				} else {
					pdf.Rect(op.X, op.Y, op.W, op.H, "D")
				}
			case draw.KindImage:
				if !registered[op.Image] {
					if err := registerImage(pdf, op.Image, doc.Images[op.Image]); err != nil {
						return err
					}
					registered[op.Image] = true
				}
				pdf.ImageOptions(op.Image, op.X, op.Y, op.W, op.H, false,
					fpdf.ImageOptions{AllowNegativePosition: true}, 0, "")
			}
		}
		if pdf.Err() {
			return fmt.Errorf("pdf page %d: %w", page.Number, pdf.Error())
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func registerImage(pdf *fpdf.Fpdf, key string, data []byte) error {
	info, err := media.Config(data)
	if err != nil {
		return fmt.Errorf("image %.12s: %w", key, err)
	}
	tp := media.PDFType(info.Format)
	if tp == "" {
		if data, err = media.ToPNG(data); err != nil {
			return fmt.Errorf("image %.12s: %w", key, err)
		}
		tp = "PNG"
	}
	pdf.RegisterImageOptionsReader(key, fpdf.ImageOptions{ImageType: tp}, bytes.NewReader(data))
	if pdf.Err() {
		return fmt.Errorf("register image %.12s: %w", key, pdf.Error())
	}
	return nil
}
