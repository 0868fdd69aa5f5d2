package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/exampress/internal/config"
	"github.com/dgallion1/exampress/internal/pipeline"
	"github.com/dgallion1/exampress/internal/question"
)

type app struct {
	verbose    bool
	layoutPath string
	pxPerMM    float64

	log  *slog.Logger
	opts pipeline.RenderOptions
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "paperctl",
		Short:         "Lay out and render exam papers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log layout decisions")
	root.PersistentFlags().StringVar(&a.layoutPath, "layout", os.Getenv("LAYOUT_CONFIG"), "page geometry YAML file")
	root.PersistentFlags().Float64Var(&a.pxPerMM, "px-per-mm", 4, "PNG preview resolution")

	root.AddCommand(a.renderCmd(), a.layoutCmd(), a.inspectCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	geometry := config.DefaultLayout()
	if a.layoutPath != "" {
		var err error
		if geometry, err = config.LoadLayout(a.layoutPath); err != nil {
			return err
		}
	}
	if err := geometry.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if a.pxPerMM <= 0 {
		return fmt.Errorf("--px-per-mm must be positive, got %v", a.pxPerMM)
	}

	a.opts = pipeline.RenderOptions{
		Layout:         geometry,
		PDFCompress:    true,
		PreviewPxPerMM: a.pxPerMM,
		Log:            a.log,
	}
	return nil
}

// readPaper decodes a paper from path, or from stdin when path is "-".
func readPaper(cmd *cobra.Command, path string) (*question.Paper, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	paper, err := question.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return paper, nil
}

// defaultOutput derives out.pdf from paper.json.
func defaultOutput(path, ext string) string {
	if path == "-" {
		return "paper" + ext
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
