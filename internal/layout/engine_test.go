package layout

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/exampress/internal/config"
	"github.com/dgallion1/exampress/internal/draw"
	"github.com/dgallion1/exampress/internal/media"
	"github.com/dgallion1/exampress/internal/question"
	"github.com/dgallion1/exampress/internal/typeface"
)

// Every glyph is 2mm wide at 12pt.
var fixed = typeface.Fixed{Advance: 2, BaseSize: 12}

func newEngine(opts ...Option) *Engine {
	return New(config.DefaultLayout(), fixed, opts...)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func texts(p *draw.Page) []draw.Op {
	var out []draw.Op
	for _, op := range p.Ops {
		if op.Kind == draw.KindText {
			out = append(out, op)
		}
	}
	return out
}

func ofKind(p *draw.Page, kind draw.Kind) []draw.Op {
	var out []draw.Op
	for _, op := range p.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

func findText(t *testing.T, doc *draw.Document, s string) (int, draw.Op) {
	t.Helper()
	for _, p := range doc.Pages {
		for _, op := range texts(p) {
			if op.Text == s {
				return p.Number, op
			}
		}
	}
	t.Fatalf("text %q not found", s)
	return 0, draw.Op{}
}

func paginate(t *testing.T, e *Engine, p *question.Paper) *draw.Document {
	t.Helper()
	doc, err := e.Paginate(context.Background(), p)
	require.NoError(t, err)
	require.NotNil(t, doc)
	return doc
}

func TestSingleLineQuestion(t *testing.T) {
	doc := paginate(t, newEngine(), &question.Paper{Questions: []*question.Node{
		{Text: "What is 2+2?"},
	}})
	require.Len(t, doc.Pages, 1)

	page := doc.Pages[0]
	border := ofKind(page, draw.KindRect)
	require.Len(t, border, 1)
	assert.Equal(t, 5.0, border[0].X)
	assert.Equal(t, 200.0, border[0].W)
	assert.Equal(t, 3.0, border[0].R)

	want := []draw.Op{
		draw.Text(10, 15, "1. ", typeface.Style{Bold: true}, 12),
		draw.Text(16, 15, "What is 2+2?", typeface.Style{}, 12),
	}
	if diff := cmp.Diff(want, texts(page)); diff != "" {
		t.Errorf("text ops mismatch (-want +got):\n%s", diff)
	}
}

func TestSameLinePromotion(t *testing.T) {
	doc := paginate(t, newEngine(), &question.Paper{Questions: []*question.Node{
		{Text: "", Children: []*question.Node{{Text: "Explain."}}},
	}})

	_, main := findText(t, doc, "1. ")
	_, sub := findText(t, doc, "a) ")
	_, body := findText(t, doc, "Explain.")
	assert.Equal(t, main.Y, sub.Y, "sub label shares the main label line")
	assert.Equal(t, 15.0, sub.Y)
	assert.Equal(t, 18.0, sub.X, "main text column plus sub indent")
	assert.Equal(t, 24.0, body.X)
	assert.Equal(t, sub.Y, body.Y)
}

func TestNoPromotionWithText(t *testing.T) {
	doc := paginate(t, newEngine(), &question.Paper{Questions: []*question.Node{
		{Text: "Answer both.", Children: []*question.Node{{Text: "First."}, {Text: "Second."}}},
	}})

	_, main := findText(t, doc, "1. ")
	_, a := findText(t, doc, "a) ")
	_, b := findText(t, doc, "b) ")
	assert.Equal(t, main.Y+6, a.Y)
	// One line plus level-one sibling spacing.
	assert.Equal(t, a.Y+6+2, b.Y)
	assert.Equal(t, a.X, b.X)
}

func TestNestedLabels(t *testing.T) {
	doc := paginate(t, newEngine(), &question.Paper{Questions: []*question.Node{
		{Text: "Q", Children: []*question.Node{
			{Text: "S", Children: []*question.Node{
				{Text: "N", Children: []*question.Node{{Text: "D"}}},
			}},
		}},
	}})
	_, n := findText(t, doc, "i) ")
	var deep []draw.Op
	for _, op := range texts(doc.Pages[0]) {
		if op.Text == "a) " {
			deep = append(deep, op)
		}
	}
	require.Len(t, deep, 2, "sub and deep levels both use letters")
	assert.Less(t, deep[0].X, n.X)
	assert.Greater(t, deep[1].X, n.X)
}

func TestPageBreaks(t *testing.T) {
	var qs []*question.Node
	for range 60 {
		qs = append(qs, &question.Node{Text: "A short question."})
	}
	doc := paginate(t, newEngine(), &question.Paper{Questions: qs})
	require.Greater(t, len(doc.Pages), 1)

	cfg := config.DefaultLayout()
	next := 1
	for i, p := range doc.Pages {
		assert.Equal(t, i+1, p.Number)
		assert.Len(t, ofKind(p, draw.KindRect), 1, "every page has a border")
		for j, op := range texts(p) {
			assert.LessOrEqual(t, op.Y, cfg.ContentBottom())
			if j == 0 {
				assert.Equal(t, cfg.ContentTop(), op.Y, "page %d starts at the top", p.Number)
			}
			if strings.HasSuffix(op.Text, ". ") {
				assert.Equal(t, question.Label(question.LevelMain, next-1)+" ", op.Text)
				next++
			}
		}
	}
	assert.Equal(t, 61, next)
}

func TestLongTextWraps(t *testing.T) {
	long := strings.Repeat("word ", 60)
	doc := paginate(t, newEngine(), &question.Paper{Questions: []*question.Node{{Text: long}}})

	ops := texts(doc.Pages[0])[1:]
	require.Greater(t, len(ops), 1)
	for i, op := range ops {
		assert.Equal(t, 16.0, op.X)
		assert.Equal(t, 15.0+6*float64(i), op.Y)
		assert.LessOrEqual(t, fixed.Width(op.Text, op.Style(), 12), 200-16+0.5)
	}
}

func TestDeterministic(t *testing.T) {
	paper := &question.Paper{
		Header: &question.Header{Title: "Mid-term", Subject: "Maths", TotalMarks: 50},
		Questions: []*question.Node{
			{Text: "Simplify x²+x₁ and (a+b)\u0305.", Images: []question.Image{{Data: pngBytes(t, 40, 30)}}},
			{Text: "<ul><li>one</li><li>two</li></ul>", Table: &question.Table{Rows: [][]string{{"a", "b"}, {"ccc"}}}},
			{Children: []*question.Node{{Text: "<b>Bold</b> and <u>under</u>"}}},
		},
	}
	e := newEngine()
	first, err := paginate(t, e, paper).Geometry()
	require.NoError(t, err)
	second, err := paginate(t, e, paper).Geometry()
	require.NoError(t, err)
	assert.Equal(t, draw.ContentHashHex(first), draw.ContentHashHex(second))
}

func TestDecodeFailureSkipsImage(t *testing.T) {
	plain := paginate(t, newEngine(), &question.Paper{Questions: []*question.Node{
		{Text: "Look."}, {Text: "Next."},
	}})
	broken := paginate(t, newEngine(), &question.Paper{Questions: []*question.Node{
		{Text: "Look.", Images: []question.Image{{Data: []byte("not an image")}}}, {Text: "Next."},
	}})

	a, err := plain.Geometry()
	require.NoError(t, err)
	b, err := broken.Geometry()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b), "cursor does not move for a skipped image")
	assert.Empty(t, broken.Images)
}

func TestCenterImages(t *testing.T) {
	img := question.Image{Data: pngBytes(t, 100, 100)}
	doc := paginate(t, newEngine(), &question.Paper{Questions: []*question.Node{
		{Text: "Compare.", Images: []question.Image{img, img, img}},
		{Text: "Next."},
	}})

	imgs := ofKind(doc.Pages[0], draw.KindImage)
	require.Len(t, imgs, 3)
	for _, op := range imgs {
		assert.InDelta(t, 60.0, op.H, 1e-9)
		assert.InDelta(t, 60.0, op.W, 1e-9)
		assert.InDelta(t, 21.0-4, op.Y, 1e-9)
	}
	assert.InDelta(t, imgs[0].X-10, 200-(imgs[2].X+imgs[2].W), 1e-9)
	assert.Len(t, doc.Images, 1, "identical bytes stored once")

	_, next := findText(t, doc, "2. ")
	assert.InDelta(t, 17+60+5+3, next.Y, 1e-9)
}

func TestRightImageBesideText(t *testing.T) {
	doc := paginate(t, newEngine(), &question.Paper{Questions: []*question.Node{
		{
			Text:       strings.Repeat("Describe the diagram. ", 8),
			ImageAlign: question.AlignRight,
			Images:     []question.Image{{Data: pngBytes(t, 200, 100)}, {Data: pngBytes(t, 10, 10)}},
		},
		{Text: "Next."},
	}})

	page := doc.Pages[0]
	imgs := ofKind(page, draw.KindImage)
	require.Len(t, imgs, 1, "right alignment keeps one image")
	img := imgs[0]
	assert.InDelta(t, 57.0, img.W, 1e-9)
	assert.InDelta(t, 200.0, img.X+img.W, 1e-9)
	assert.InDelta(t, 11.0, img.Y, 1e-9)

	for _, op := range texts(page) {
		if op.Y < img.Y+img.H {
			end := op.X + fixed.Width(op.Text, op.Style(), op.Size)
			assert.LessOrEqual(t, end, img.X-4+0.5, "text %q runs under the image", op.Text)
		}
	}

	_, next := findText(t, doc, "2. ")
	assert.InDelta(t, 11+28.5+5+3, next.Y, 1e-9)
}

func TestTableMovesToNextPage(t *testing.T) {
	cfg := config.DefaultLayout()
	cfg.PageHeight = 100
	rows := make([][]string, 9)
	for i := range rows {
		rows[i] = []string{"x", "y"}
	}
	doc := paginate(t, New(cfg, fixed), &question.Paper{Questions: []*question.Node{
		{Text: "First."},
		{Text: "Tabulate.", Table: &question.Table{Rows: rows}},
	}})
	require.Len(t, doc.Pages, 2)

	page, _ := findText(t, doc, "Tabulate.")
	assert.Equal(t, 1, page)

	cells := func(p *draw.Page) int {
		n := 0
		for _, op := range ofKind(p, draw.KindRect) {
			if op.R == 0 {
				n++
			}
		}
		return n
	}
	assert.Zero(t, cells(doc.Pages[0]))
	assert.Equal(t, 18, cells(doc.Pages[1]), "table is never split")
}

func TestTablePadded(t *testing.T) {
	doc := paginate(t, newEngine(), &question.Paper{Questions: []*question.Node{
		{Text: "T", Table: &question.Table{Rows: [][]string{{"a", "b"}, {"ccc"}}}},
	}})
	var cells int
	for _, op := range ofKind(doc.Pages[0], draw.KindRect) {
		if op.R == 0 {
			cells++
		}
	}
	assert.Equal(t, 4, cells)
}

func TestHeader(t *testing.T) {
	doc := paginate(t, newEngine(), &question.Paper{
		Header: &question.Header{
			Title:        "Final Exam",
			Subtitle:     "Section A",
			Subject:      "Physics",
			Duration:     "2h",
			TotalMarks:   80,
			TeacherID:    "T-42",
			Instructions: []string{"Answer all.", "Show working."},
		},
		Questions: []*question.Node{{Text: "Go."}},
	})

	_, id := findText(t, doc, "Teacher ID: T-42")
	assert.InDelta(t, 200, id.X+fixed.Width(id.Text, id.Style(), id.Size), 1e-9)
	assert.Equal(t, 8.0, id.Size)

	_, title := findText(t, doc, "Final Exam")
	assert.True(t, title.Bold)
	assert.Equal(t, 16.0, title.Size)
	w := fixed.Width(title.Text, title.Style(), 16)
	assert.InDelta(t, 105, title.X+w/2, 1e-9, "title is centred")

	_, subject := findText(t, doc, "Subject: Physics")
	assert.Equal(t, 10.0, subject.X)
	_, marks := findText(t, doc, "Total marks: 80")
	assert.InDelta(t, 200, marks.X+fixed.Width(marks.Text, marks.Style(), 12), 1e-9)
	_, dur := findText(t, doc, "Duration: 2h")
	assert.Equal(t, subject.Y, dur.Y)

	_, first := findText(t, doc, "1. Answer all.")
	_, second := findText(t, doc, "2. Show working.")
	assert.Equal(t, 16.0, first.X)
	assert.Equal(t, first.Y+5, second.Y)

	_, q := findText(t, doc, "1. ")
	assert.Greater(t, q.Y, second.Y)
	assert.NotEmpty(t, ofKind(doc.Pages[0], draw.KindRule), "dividers")
}

func TestMarkdownQuestion(t *testing.T) {
	doc := paginate(t, newEngine(), &question.Paper{Questions: []*question.Node{
		{Text: "**Bold** then *slanted*", Format: question.FormatMarkdown},
	}})
	_, b := findText(t, doc, "Bold")
	assert.True(t, b.Bold)
	_, i := findText(t, doc, "slanted")
	assert.True(t, i.Italic)
}

func TestTooDeep(t *testing.T) {
	leaf := &question.Node{Text: "too deep"}
	paper := &question.Paper{Questions: []*question.Node{
		{Text: "1", Children: []*question.Node{
			{Text: "a", Children: []*question.Node{
				{Text: "i", Children: []*question.Node{
					{Text: "a", Children: []*question.Node{leaf}},
				}},
			}},
		}},
	}}
	doc, err := newEngine().Paginate(context.Background(), paper)
	assert.Nil(t, doc)

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, question.ErrTooDeep)
	assert.Equal(t, "1.a.i.a", pe.Path)
	assert.Equal(t, RenderingNode.String(), pe.Stage)
}

func TestNilPaper(t *testing.T) {
	_, err := newEngine().Paginate(context.Background(), nil)
	assert.ErrorIs(t, err, question.ErrEmptyPaper)
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc, err := newEngine().Paginate(ctx, &question.Paper{Questions: []*question.Node{{Text: "x"}}})
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, context.Canceled)
}

type blockingDecoder struct{}

func (blockingDecoder) Dimensions(ctx context.Context, _ []byte) (media.Info, error) {
	<-ctx.Done()
	return media.Info{}, ctx.Err()
}

func TestDeadlineWhileAwaitingMedia(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	e := newEngine(WithDecoder(blockingDecoder{}))
	doc, err := e.Paginate(ctx, &question.Paper{Questions: []*question.Node{
		{Text: "x"},
		{Text: "y", Images: []question.Image{{Data: []byte{1}}}},
	}})
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, AwaitingMedia.String(), pe.Stage)
	assert.Equal(t, "2", pe.Path)
}

type panicDecoder struct{}

func (panicDecoder) Dimensions(context.Context, []byte) (media.Info, error) {
	panic("boom")
}

func TestPanicBecomesError(t *testing.T) {
	e := newEngine(WithDecoder(panicDecoder{}))
	doc, err := e.Paginate(context.Background(), &question.Paper{Questions: []*question.Node{
		{Text: "x", Images: []question.Image{{Data: []byte{1}}}},
	}})
	assert.Nil(t, doc)
	var pe *PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Error(), "boom")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "page_break_pending", PageBreakPending.String())
	assert.Equal(t, "state(9)", State(9).String())
}
