package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/exampress/internal/artifact"
	"github.com/dgallion1/exampress/internal/export"
	"github.com/dgallion1/exampress/internal/pipeline"
)

func (a *app) renderCmd() *cobra.Command {
	var out, pngPath, docxPath string
	var page int
	cmd := &cobra.Command{
		Use:   "render paper.json",
		Short: "Render a paper to PDF, with optional PNG preview and DOCX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paper, err := readPaper(cmd, args[0])
			if err != nil {
				return err
			}
			doc, err := pipeline.Layout(cmd.Context(), paper, a.opts)
			if err != nil {
				return err
			}

			if out == "" {
				out = defaultOutput(args[0], ".pdf")
			}
			data, err := pipeline.Export(doc, paper, artifact.FormatPDF, a.opts)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			a.log.Info("wrote pdf", "path", out, "pages", len(doc.Pages), "bytes", len(data))

			if pngPath != "" {
				var buf bytes.Buffer
				if err := export.PNG(&buf, doc, page, a.opts.PreviewPxPerMM); err != nil {
					return err
				}
				if err := os.WriteFile(pngPath, buf.Bytes(), 0o644); err != nil {
					return err
				}
				a.log.Info("wrote preview", "path", pngPath, "page", page)
			}

			if docxPath != "" {
				data, err := pipeline.Export(doc, paper, artifact.FormatDOCX, a.opts)
				if err != nil {
					return err
				}
				if err := os.WriteFile(docxPath, data, 0o644); err != nil {
					return err
				}
				a.log.Info("wrote docx", "path", docxPath)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d page(s)\n", out, len(doc.Pages))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "PDF output path (default: input name with .pdf)")
	cmd.Flags().StringVar(&pngPath, "png", "", "also write a PNG preview of one page")
	cmd.Flags().IntVar(&page, "page", 1, "page to preview with --png")
	cmd.Flags().StringVar(&docxPath, "docx", "", "also write an editable DOCX")
	return cmd
}

func (a *app) layoutCmd() *cobra.Command {
	var indent bool
	cmd := &cobra.Command{
		Use:   "layout paper.json",
		Short: "Print page geometry as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paper, err := readPaper(cmd, args[0])
			if err != nil {
				return err
			}
			doc, err := pipeline.Layout(cmd.Context(), paper, a.opts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if indent {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(doc)
		},
	}
	cmd.Flags().BoolVar(&indent, "indent", false, "pretty-print the JSON")
	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect out.pdf",
		Short: "Show page count and text of a rendered PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			in, err := export.Inspect(data)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(w).Encode(in)
			}
			fmt.Fprintf(w, "pages: %d\n", in.Pages)
			for i, text := range in.Text {
				fmt.Fprintf(w, "--- page %d ---\n%s\n", i+1, text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
