package typeface

import (
	"fmt"
	"unicode/utf8"

	"github.com/go-fonts/dejavu/dejavusans"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Family names the Go fonts are registered under in generated PDFs. The
// Go fonts have no glyphs for most mathematical operators, so those are
// set in DejaVu Sans.
const (
	Family     = "go"
	MathFamily = "gomath"
)

// Styles lists every face: the four Go font variants and the symbol face.
var Styles = []Style{{}, {Bold: true}, {Italic: true}, {Bold: true, Italic: true}, {Math: true}}

// TTF returns the TrueType file for the face selected by s.
func TTF(s Style) []byte {
	if s.Math {
		return dejavusans.TTF
	}
	switch s.Variant() {
	case "BI":
		return gobolditalic.TTF
	case "B":
		return gobold.TTF
	case "I":
		return goitalic.TTF
	}
	return goregular.TTF
}

type faceKey struct {
	font string
	size float64
}

func fontKey(s Style) string {
	return s.Family() + s.Variant()
}

// Faces measures text with the Go font family. It caches one font.Face
// per (style, size) pair and is not safe for concurrent use; each render
// owns its own Faces.
type Faces struct {
	dpi   float64
	fonts map[string]*opentype.Font
	faces map[faceKey]font.Face
}

// NewFaces returns Faces whose widths are reported in millimetres.
func NewFaces() (*Faces, error) {
	return NewFacesDPI(72)
}

// NewFacesDPI returns Faces that rasterise at the given resolution. Width
// still reports millimetres; Face returns faces sized in device pixels.
func NewFacesDPI(dpi float64) (*Faces, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("typeface: invalid dpi %v", dpi)
	}
	f := &Faces{
		dpi:   dpi,
		fonts: make(map[string]*opentype.Font, len(Styles)),
		faces: make(map[faceKey]font.Face),
	}
	for _, s := range Styles {
		parsed, err := opentype.Parse(TTF(s))
		if err != nil {
			return nil, fmt.Errorf("parse %q face: %w", fontKey(s), err)
		}
		f.fonts[fontKey(s)] = parsed
	}
	return f, nil
}

// Face returns the face for style at size points.
func (f *Faces) Face(style Style, size float64) (font.Face, error) {
	key := faceKey{font: fontKey(style), size: size}
	if face, ok := f.faces[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f.fonts[key.font], &opentype.FaceOptions{
		Size:    size,
		DPI:     f.dpi,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face %q %.2fpt: %w", key.font, size, err)
	}
	f.faces[key] = face
	return face, nil
}

// Width implements Measurer. Mathematical symbols are measured in the
// symbol face.
func (f *Faces) Width(text string, style Style, size float64) float64 {
	if text == "" || size <= 0 {
		return 0
	}
	w := 0.0
	for _, sp := range Spans(text, style) {
		face, err := f.Face(sp.Style, size)
		if err != nil {
			// Rough estimate if the face cannot be built.
			w += float64(utf8.RuneCountInString(sp.Text)) * PtToMM(size) * 0.5
			continue
		}
		w += float64(font.MeasureString(face, sp.Text)) / 64 * 25.4 / f.dpi
	}
	return w
}

// Close releases the cached faces.
func (f *Faces) Close() error {
	for k, face := range f.faces {
		face.Close()
		delete(f.faces, k)
	}
	return nil
}
