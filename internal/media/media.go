package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when image bytes cannot be decoded.
var ErrDecode = errors.New("cannot decode image")

// Info describes a decoded image.
type Info struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"` // image package format name
	MIME   string `json:"mime"`
}

// Dimensioner resolves image dimensions. The layout engine blocks on it.
type Dimensioner interface {
	Dimensions(ctx context.Context, data []byte) (Info, error)
}

// Decoder reads image headers with the standard image decoders plus
// webp, bmp and tiff.
type Decoder struct{}

type result struct {
	info Info
	err  error
}

// Dimensions returns the intrinsic size of data. It returns ctx.Err() if
// the context ends first.
func (Decoder) Dimensions(ctx context.Context, data []byte) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	ch := make(chan result, 1)
	go func() {
		info, err := Config(data)
		ch <- result{info, err}
	}()
	select {
	case <-ctx.Done():
		return Info{}, ctx.Err()
	case r := <-ch:
		return r.info, r.err
	}
}

// Config reads the image header synchronously.
func Config(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, fmt.Errorf("%w: empty", ErrDecode)
	}
	if !filetype.IsImage(data) {
		return Info{}, fmt.Errorf("%w: not an image", ErrDecode)
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s: %v", ErrDecode, kind.MIME.Value, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: zero size", ErrDecode)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format, MIME: kind.MIME.Value}, nil
}

// PDFType returns the fpdf image type for formats fpdf embeds directly,
// or "" if the image must be converted with ToPNG first.
func PDFType(format string) string {
	switch format {
	case "png":
		return "PNG"
	case "jpeg":
		return "JPG"
	case "gif":
		return "GIF"
	}
	return ""
}

// Decode decodes the full image.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// ToPNG re-encodes data as PNG.
func ToPNG(data []byte) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
