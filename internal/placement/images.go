package placement

import (
	"github.com/dgallion1/exampress/internal/draw"
)

// Geometry is the horizontal frame images are placed in.
type Geometry struct {
	PageWidth       float64
	Margin          float64
	ImageGap        float64 // between images of a group
	RightWidthRatio float64 // right-aligned image width / content width
}

// ContentWidth is the page width minus both margins.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - 2*g.Margin
}

// Dims are the intrinsic pixel dimensions of an image.
type Dims struct {
	Width, Height int
}

// Aspect returns width / height, or 1 for degenerate dimensions.
func (d Dims) Aspect() float64 {
	if d.Width <= 0 || d.Height <= 0 {
		return 1
	}
	return float64(d.Width) / float64(d.Height)
}

// Image is one decoded image ready to place.
type Image struct {
	Key  string // draw.Document image key
	Dims Dims
}

// Result is the outcome of placing images.
type Result struct {
	Ops    []draw.Op
	Height float64 // height of the placed block
	NewY   float64 // top + height
}

// Single centres one image at targetH, shrinking it to the content width
// if needed.
func (g Geometry) Single(img Image, targetH, top float64) Result {
	h := targetH
	w := h * img.Dims.Aspect()
	if cw := g.ContentWidth(); w > cw {
		w = cw
		h = w / img.Dims.Aspect()
	}
	x := (g.PageWidth - w) / 2
	return Result{
		Ops:    []draw.Op{draw.Image(img.Key, x, top, w, h)},
		Height: h,
		NewY:   top + h,
	}
}

// Right places one image flush to the right margin at a fixed fraction of
// the content width.
func (g Geometry) Right(img Image, top float64) Result {
	w := g.ContentWidth() * g.RightWidthRatio
	h := w / img.Dims.Aspect()
	x := g.PageWidth - g.Margin - w
	return Result{
		Ops:    []draw.Op{draw.Image(img.Key, x, top, w, h)},
		Height: h,
		NewY:   top + h,
	}
}

// Group places images side by side at a shared height, scaled down
// together if the row would exceed the content width, and centred as a
// unit.
func (g Geometry) Group(imgs []Image, targetH, top float64) Result {
	if len(imgs) == 0 {
		return Result{NewY: top}
	}
	if len(imgs) == 1 {
		return g.Single(imgs[0], targetH, top)
	}

	gaps := g.ImageGap * float64(len(imgs)-1)
	sumAspect := 0.0
	for _, img := range imgs {
		sumAspect += img.Dims.Aspect()
	}
	h := targetH
	if total := h*sumAspect + gaps; total > g.ContentWidth() {
		h = (g.ContentWidth() - gaps) / sumAspect
	}
	total := h*sumAspect + gaps

	x := (g.PageWidth - total) / 2
	ops := make([]draw.Op, 0, len(imgs))
	for _, img := range imgs {
		w := h * img.Dims.Aspect()
		ops = append(ops, draw.Image(img.Key, x, top, w, h))
		x += w + g.ImageGap
	}
	return Result{Ops: ops, Height: h, NewY: top + h}
}

// Height returns the height Group (or Single) would use, without placing.
func (g Geometry) Height(imgs []Image, targetH float64) float64 {
	return g.Group(imgs, targetH, 0).Height
}
