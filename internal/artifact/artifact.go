// Package artifact stores rendered outputs by job and format.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Format is an output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
	FormatDOCX Format = "docx"
)

var ErrNotFound = errors.New("artifact not found")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatPDF, FormatPNG, FormatDOCX:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatPNG:
		return "image/png"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// Artifact is one rendered output.
type Artifact struct {
	JobID     string
	Format    Format
	Data      []byte
	CreatedAt time.Time
}

// Store persists artifacts.
type Store interface {
	Put(ctx context.Context, a *Artifact) error
	Get(ctx context.Context, jobID string, format Format) (*Artifact, error)
}
