package layout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/exampress/internal/config"
	"github.com/dgallion1/exampress/internal/draw"
	"github.com/dgallion1/exampress/internal/linebreak"
	"github.com/dgallion1/exampress/internal/media"
	"github.com/dgallion1/exampress/internal/notation"
	"github.com/dgallion1/exampress/internal/placement"
	"github.com/dgallion1/exampress/internal/question"
	"github.com/dgallion1/exampress/internal/typeface"
)

// Engine paginates question papers. An Engine is safe for concurrent use
// only if its Measurer is; typeface.Faces is not, so workers build one
// Engine per render.
type Engine struct {
	cfg     config.Layout
	measure typeface.Measurer
	decoder media.Dimensioner
	log     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithDecoder replaces the image decoder.
func WithDecoder(d media.Dimensioner) Option {
	return func(e *Engine) { e.decoder = d }
}

// WithLogger sets the logger for state transitions and skipped images.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func New(cfg config.Layout, m typeface.Measurer, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		measure: m,
		decoder: media.Decoder{},
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Paginate lays out the paper. Any failure, including a panic, is
// returned as a *PipelineError and no document.
func (e *Engine) Paginate(ctx context.Context, paper *question.Paper) (doc *draw.Document, err error) {
	f := e.newFlow(ctx)
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("layout panic", "question", f.path, "panic", r)
			doc, err = nil, &PipelineError{Stage: f.state.String(), Path: f.path, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if paper == nil {
		return nil, &PipelineError{Stage: Idle.String(), Err: question.ErrEmptyPaper}
	}

	f.newPage()
	if paper.Header != nil {
		f.header(paper.Header)
	}
	for i, q := range paper.Questions {
		nc := nodeContext{labelX: e.cfg.Margin, path: []int{i}}
		if err := f.node(q, question.LevelMain, i, nc); err != nil {
			return nil, &PipelineError{Stage: f.state.String(), Path: f.path, Err: err}
		}
	}
	f.setState(Idle)
	return f.doc, nil
}

// flow is the private state of one Paginate call.
type flow struct {
	e   *Engine
	cfg config.Layout
	ctx context.Context
	log *slog.Logger

	doc   *draw.Document
	page  *draw.Page
	y     float64 // baseline of the next line
	state State
	path  string // question being laid out

	text    *notation.Compositor
	breaker *linebreak.Breaker
	geo     placement.Geometry
	tables  *placement.Tables
}

func (e *Engine) newFlow(ctx context.Context) *flow {
	cfg := e.cfg
	text := notation.New(e.measure, cfg.FontSize)
	text.Metrics.RuleWidth = cfg.RuleWidth

	breaker := linebreak.New(text)
	breaker.IndentPerLevel = cfg.ListIndent
	breaker.Slack = cfg.Slack

	geo := placement.Geometry{
		PageWidth:       cfg.PageWidth,
		Margin:          cfg.Margin,
		ImageGap:        cfg.ImageGap,
		RightWidthRatio: cfg.RightImageRatio,
	}
	tables := placement.NewTables(geo, placement.TableStyle{
		WidthRatio:    cfg.TableWidthRatio,
		BaseRowHeight: cfg.TableRowHeight,
		LineHeight:    cfg.TableLineHeight,
		Padding:       cfg.TablePadding,
		BorderWidth:   cfg.RuleWidth,
	}, text.WithSize(cfg.TableFontSize))

	return &flow{
		e:       e,
		cfg:     cfg,
		ctx:     ctx,
		log:     e.log,
		doc:     draw.NewDocument(cfg.PageWidth, cfg.PageHeight),
		state:   Idle,
		text:    text,
		breaker: breaker,
		geo:     geo,
		tables:  tables,
	}
}

func (f *flow) setState(s State) {
	if s == f.state {
		return
	}
	f.log.Debug("layout state",
		"from", f.state.String(),
		"to", s.String(),
		"page", len(f.doc.Pages),
		"y", f.y,
		"question", f.path,
	)
	f.state = s
}

// newPage starts a page, draws its border and resets the cursor.
func (f *flow) newPage() {
	prev := f.state
	f.setState(PageBreakPending)
	f.page = f.doc.NewPage()
	inset := f.cfg.BorderInset
	f.page.Add(draw.Rect(inset, inset,
		f.cfg.PageWidth-2*inset, f.cfg.PageHeight-2*inset,
		f.cfg.CornerRadius, f.cfg.BorderWidth))
	f.y = f.cfg.ContentTop()
	f.setState(prev)
}

func (f *flow) atTop() bool {
	return f.y <= f.cfg.ContentTop()+1e-9
}

// ensure starts a new page unless h more millimetres below the cursor
// fit on this one. A block taller than a page is placed at a page top
// and allowed to overflow.
func (f *flow) ensure(h float64) {
	if f.y+h > f.cfg.ContentBottom() && !f.atTop() {
		f.newPage()
	}
}

// drawLines draws wrapped lines starting at the cursor. Every line after
// the first is checked for overflow.
func (f *flow) drawLines(c linebreak.Composer, lines []linebreak.Line, x float64) {
	for i, line := range lines {
		if i > 0 {
			f.ensure(0)
		}
		ops, _ := line.Draw(c, x+line.Indent, f.y)
		f.page.Add(ops...)
		if line.IsListItem {
			f.y += f.cfg.ListLineHeight
		} else {
			f.y += f.cfg.LineHeight
		}
	}
}
