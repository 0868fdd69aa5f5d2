package draw

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/dgallion1/exampress/internal/typeface"
)

// Kind identifies a draw instruction.
type Kind string

const (
	KindText  Kind = "text"
	KindRule  Kind = "rule"
	KindRect  Kind = "rect"
	KindImage Kind = "image"
)

// Op is one positioned drawing instruction. All lengths are millimetres
// from the top-left corner of the page; text Y is the baseline.
type Op struct {
	Kind Kind    `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`

	X2 float64 `json:"x2,omitempty"` // rule end
	Y2 float64 `json:"y2,omitempty"`
	W  float64 `json:"w,omitempty"` // rect, image
	H  float64 `json:"h,omitempty"`
	R  float64 `json:"r,omitempty"` // rect corner radius

	LineWidth float64 `json:"line_width,omitempty"`

	Text   string  `json:"text,omitempty"`
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
	Math   bool    `json:"math,omitempty"` // symbol face
	Size   float64 `json:"size,omitempty"` // points

	Image string `json:"image,omitempty"` // Document.Images key
}

// Style returns the face a text op is set in.
func (o Op) Style() typeface.Style {
	return typeface.Style{Bold: o.Bold, Italic: o.Italic, Math: o.Math}
}

// Text returns a text op with its baseline at y.
func Text(x, y float64, s string, style typeface.Style, size float64) Op {
	return Op{Kind: KindText, X: x, Y: y, Text: s, Bold: style.Bold, Italic: style.Italic, Math: style.Math, Size: size}
}

// Rule returns a straight line from (x1, y1) to (x2, y2).
func Rule(x1, y1, x2, y2, width float64) Op {
	return Op{Kind: KindRule, X: x1, Y: y1, X2: x2, Y2: y2, LineWidth: width}
}

// Rect returns an outlined rectangle; r > 0 rounds all four corners.
func Rect(x, y, w, h, r, width float64) Op {
	return Op{Kind: KindRect, X: x, Y: y, W: w, H: h, R: r, LineWidth: width}
}

// Image returns an image op referencing bytes stored under key.
func Image(key string, x, y, w, h float64) Op {
	return Op{Kind: KindImage, X: x, Y: y, W: w, H: h, Image: key}
}

// Page is one fixed-size output page.
type Page struct {
	Number int  `json:"number"`
	Ops    []Op `json:"ops"`
}

// Add appends ops to the page.
func (p *Page) Add(ops ...Op) {
	p.Ops = append(p.Ops, ops...)
}

// Document is the output of a layout run.
type Document struct {
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	Pages      []*Page `json:"pages"`

	// Images holds encoded image bytes by content hash. Not part of the
	// geometry JSON.
	Images map[string][]byte `json:"-"`
}

// NewDocument returns an empty document with the given page size.
func NewDocument(width, height float64) *Document {
	return &Document{
		PageWidth:  width,
		PageHeight: height,
		Pages:      []*Page{},
		Images:     make(map[string][]byte),
	}
}

// NewPage appends a page and returns it.
func (d *Document) NewPage() *Page {
	p := &Page{Number: len(d.Pages) + 1, Ops: []Op{}}
	d.Pages = append(d.Pages, p)
	return p
}

// Page returns page n (1-based).
func (d *Document) Page(n int) (*Page, error) {
	if n < 1 || n > len(d.Pages) {
		return nil, fmt.Errorf("page %d out of range (document has %d)", n, len(d.Pages))
	}
	return d.Pages[n-1], nil
}

// AddImage stores data and returns its key.
func (d *Document) AddImage(data []byte) string {
	key := ContentHashHex(data)
	if d.Images == nil {
		d.Images = make(map[string][]byte)
	}
	d.Images[key] = data
	return key
}

// Geometry returns the JSON encoding of the pages.
func (d *Document) Geometry() ([]byte, error) {
	return json.Marshal(d)
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
