package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout holds page geometry and spacing. Lengths are millimetres, font
// sizes points. Arrays are indexed by question level (main, sub, nested,
// deep-nested).
type Layout struct {
	PageWidth    float64 `yaml:"page_width"`
	PageHeight   float64 `yaml:"page_height"`
	Margin       float64 `yaml:"margin"`
	BorderInset  float64 `yaml:"border_inset"`
	CornerRadius float64 `yaml:"corner_radius"`
	BorderWidth  float64 `yaml:"border_width"`
	RuleWidth    float64 `yaml:"rule_width"`

	FontSize       float64 `yaml:"font_size"`
	TableFontSize  float64 `yaml:"table_font_size"`
	LineHeight     float64 `yaml:"line_height"`
	ListLineHeight float64 `yaml:"list_line_height"`
	Slack          float64 `yaml:"slack"`
	ListIndent     float64 `yaml:"list_indent"`

	// Page-break estimate.
	CharsPerLine    int     `yaml:"chars_per_line"`
	PageBreakBuffer float64 `yaml:"page_break_buffer"`
	TopOffset       float64 `yaml:"top_offset"` // first baseline below the margin

	LabelIndent    [4]float64 `yaml:"label_indent"` // child label column after parent text start
	ImageHeight    [4]float64 `yaml:"image_height"`
	SiblingSpacing [4]float64 `yaml:"sibling_spacing"`

	ImageGap        float64 `yaml:"image_gap"`
	BeforeBlock     float64 `yaml:"before_block"` // image/table top relative to the cursor baseline
	AfterImage      float64 `yaml:"after_image"`
	AfterTable      float64 `yaml:"after_table"`
	RightTextRatio  float64 `yaml:"right_text_ratio"`
	RightImageRatio float64 `yaml:"right_image_ratio"`

	TableWidthRatio float64 `yaml:"table_width_ratio"`
	TableRowHeight  float64 `yaml:"table_row_height"`
	TableLineHeight float64 `yaml:"table_line_height"`
	TablePadding    float64 `yaml:"table_padding"`
}

// DefaultLayout returns A4 exam-paper geometry.
func DefaultLayout() Layout {
	return Layout{
		PageWidth:    210,
		PageHeight:   297,
		Margin:       10,
		BorderInset:  5,
		CornerRadius: 3,
		BorderWidth:  0.3,
		RuleWidth:    0.2,

		FontSize:       12,
		TableFontSize:  10,
		LineHeight:     6,
		ListLineHeight: 5,
		Slack:          0.5,
		ListIndent:     6,

		CharsPerLine:    90,
		PageBreakBuffer: 10,
		TopOffset:       5,

		LabelIndent:    [4]float64{0, 2, 2, 2},
		ImageHeight:    [4]float64{60, 50, 30, 30},
		SiblingSpacing: [4]float64{3, 2, 1, 1},

		ImageGap:        4,
		BeforeBlock:     -4,
		AfterImage:      5,
		AfterTable:      5,
		RightTextRatio:  0.65,
		RightImageRatio: 0.30,

		TableWidthRatio: 0.70,
		TableRowHeight:  8,
		TableLineHeight: 4.5,
		TablePadding:    1.5,
	}
}

// LoadLayout reads a YAML file over the defaults. Keys missing from the
// file keep their default values.
func LoadLayout(path string) (Layout, error) {
	l := DefaultLayout()
	data, err := os.ReadFile(path)
	if err != nil {
		return l, fmt.Errorf("read layout: %w", err)
	}
	if err := yaml.Unmarshal(data, &l); err != nil {
		return l, fmt.Errorf("parse layout: %w", err)
	}
	return l, l.Validate()
}

// ContentWidth is the page width inside the margins.
func (l Layout) ContentWidth() float64 {
	return l.PageWidth - 2*l.Margin
}

// ContentTop is the baseline of the first line on a page.
func (l Layout) ContentTop() float64 {
	return l.Margin + l.TopOffset
}

// ContentBottom is the lowest baseline allowed on a page.
func (l Layout) ContentBottom() float64 {
	return l.PageHeight - l.Margin
}

func (l Layout) Validate() error {
	var errs []error
	if l.PageWidth <= 0 || l.PageHeight <= 0 {
		errs = append(errs, fmt.Errorf("page size %vx%v must be positive", l.PageWidth, l.PageHeight))
	}
	if l.Margin < 0 || 2*l.Margin >= l.PageWidth || 2*l.Margin >= l.PageHeight {
		errs = append(errs, fmt.Errorf("margin %v does not fit the page", l.Margin))
	}
	if l.FontSize <= 0 || l.TableFontSize <= 0 {
		errs = append(errs, errors.New("font sizes must be positive"))
	}
	if l.LineHeight <= 0 || l.ListLineHeight <= 0 || l.TableLineHeight <= 0 {
		errs = append(errs, errors.New("line heights must be positive"))
	}
	if l.CharsPerLine <= 0 {
		errs = append(errs, errors.New("chars_per_line must be positive"))
	}
	for _, r := range []float64{l.RightTextRatio, l.RightImageRatio, l.TableWidthRatio} {
		if r <= 0 || r > 1 {
			errs = append(errs, fmt.Errorf("ratio %v must be in (0, 1]", r))
		}
	}
	for i, h := range l.ImageHeight {
		if h <= 0 {
			errs = append(errs, fmt.Errorf("image_height[%d] must be positive", i))
		}
	}
	return errors.Join(errs...)
}
