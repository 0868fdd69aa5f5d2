package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/exampress/internal/artifact"
	"github.com/dgallion1/exampress/internal/config"
	"github.com/dgallion1/exampress/internal/draw"
	"github.com/dgallion1/exampress/internal/export"
	"github.com/dgallion1/exampress/internal/layout"
	"github.com/dgallion1/exampress/internal/media"
	"github.com/dgallion1/exampress/internal/question"
	"github.com/dgallion1/exampress/internal/typeface"
)

// RenderOptions are the settings shared by the service and the CLI.
type RenderOptions struct {
	Layout         config.Layout
	PDFCompress    bool
	PreviewPxPerMM float64
	Decoder        media.Dimensioner // nil uses media.Decoder
	Log            *slog.Logger
}

// OptionsFromConfig builds render options from service config.
func OptionsFromConfig(cfg config.Config, log *slog.Logger) RenderOptions {
	return RenderOptions{
		Layout:         cfg.Layout,
		PDFCompress:    cfg.PDFCompress,
		PreviewPxPerMM: cfg.PreviewPxPerMM,
		Log:            log,
	}
}

// Layout validates and paginates paper. Each call measures with its own
// faces so concurrent renders share nothing mutable.
func Layout(ctx context.Context, paper *question.Paper, opts RenderOptions) (*draw.Document, error) {
	if err := paper.Validate(); err != nil {
		return nil, fmt.Errorf("invalid paper: %w", err)
	}
	faces, err := typeface.NewFaces()
	if err != nil {
		return nil, err
	}
	defer faces.Close()

	var engineOpts []layout.Option
	if opts.Log != nil {
		engineOpts = append(engineOpts, layout.WithLogger(opts.Log))
	}
	if opts.Decoder != nil {
		engineOpts = append(engineOpts, layout.WithDecoder(opts.Decoder))
	}
	return layout.New(opts.Layout, faces, engineOpts...).Paginate(ctx, paper)
}

// Export encodes doc (or, for DOCX, paper) in format.
func Export(doc *draw.Document, paper *question.Paper, format artifact.Format, opts RenderOptions) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case artifact.FormatPDF:
		title := ""
		if paper != nil && paper.Header != nil {
			title = paper.Header.Title
		}
		err = export.PDF(&buf, doc, export.PDFOptions{Compress: opts.PDFCompress, Title: title})
	case artifact.FormatPNG:
		err = export.PNG(&buf, doc, 1, opts.PreviewPxPerMM)
	case artifact.FormatDOCX:
		err = export.DOCX(&buf, paper, opts.Layout)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
