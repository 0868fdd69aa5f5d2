package question

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MaxDepth is the number of levels in the question hierarchy.
const MaxDepth = 4

const (
	LevelMain = iota
	LevelSub
	LevelNested
	LevelDeep
)

// Image quotas per alignment.
const (
	MaxCenterImages = 5
	MaxRightImages  = 1
)

var (
	ErrTooDeep    = errors.New("question hierarchy deeper than four levels")
	ErrEmptyPaper = errors.New("paper has no questions")
)

// Align controls where a node's images are placed.
type Align string

const (
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Format is the markup language of Node.Text.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Paper is the root of an authored exam paper.
type Paper struct {
	Header    *Header `json:"header,omitempty"`
	Questions []*Node `json:"questions"`
}

// Header is the block printed at the top of the first page.
type Header struct {
	Title        string   `json:"title"`
	Subtitle     string   `json:"subtitle,omitempty"`
	Subject      string   `json:"subject,omitempty"`
	Duration     string   `json:"duration,omitempty"`
	TotalMarks   int      `json:"total_marks,omitempty"`
	TeacherID    string   `json:"teacher_id,omitempty"`
	Instructions []string `json:"instructions,omitempty"`
}

// Node is one question at any level of the hierarchy.
type Node struct {
	ID         string  `json:"id,omitempty"`
	Text       string  `json:"text"`             // inline markup
	Format     Format  `json:"format,omitempty"` // default html
	Images     []Image `json:"images,omitempty"`
	ImageAlign Align   `json:"image_align,omitempty"` // default center
	Table      *Table  `json:"table,omitempty"`
	Children   []*Node `json:"children,omitempty"`
}

// Align returns the effective image alignment.
func (n *Node) Align() Align {
	if n.ImageAlign == AlignRight {
		return AlignRight
	}
	return AlignCenter
}

// QuotaImages returns the images that fit the quota for the node's
// alignment, without modifying the node.
func (n *Node) QuotaImages() []Image {
	limit := MaxCenterImages
	if n.Align() == AlignRight {
		limit = MaxRightImages
	}
	if len(n.Images) > limit {
		return n.Images[:limit]
	}
	return n.Images
}

// ApplyImageQuota truncates Images to the quota for the current alignment.
// Switching a node to right alignment keeps only its first image.
func (n *Node) ApplyImageQuota() {
	n.Images = n.QuotaImages()
}

// Decode reads a JSON paper and validates it.
func Decode(r io.Reader) (*Paper, error) {
	var p Paper
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode paper: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the structural constraints of the paper.
func (p *Paper) Validate() error {
	if p == nil || len(p.Questions) == 0 {
		return ErrEmptyPaper
	}
	return p.Walk(func(n *Node, level int, path []int) error {
		if n == nil {
			return fmt.Errorf("question %s: nil node", PathString(path))
		}
		if level >= MaxDepth {
			return fmt.Errorf("question %s: %w", PathString(path), ErrTooDeep)
		}
		switch n.Format {
		case "", FormatHTML, FormatMarkdown:
		default:
			return fmt.Errorf("question %s: unknown format %q", PathString(path), n.Format)
		}
		return nil
	})
}

// Walk visits every node in pre-order. path holds the sibling index at
// each level; it is reused between calls and must be copied if retained.
func (p *Paper) Walk(fn func(n *Node, level int, path []int) error) error {
	path := make([]int, 0, MaxDepth+1)
	var walk func(nodes []*Node, level int) error
	walk = func(nodes []*Node, level int) error {
		for i, n := range nodes {
			path = append(path, i)
			if err := fn(n, level, path); err != nil {
				return err
			}
			if n != nil {
				if err := walk(n.Children, level+1); err != nil {
					return err
				}
			}
			path = path[:len(path)-1]
		}
		return nil
	}
	return walk(p.Questions, 0)
}

// PathString renders a node path with labels, e.g. "1.a.ii".
func PathString(path []int) string {
	parts := make([]string, len(path))
	for level, idx := range path {
		if level >= MaxDepth {
			parts[level] = strconv.Itoa(idx + 1)
			continue
		}
		parts[level] = strings.Trim(Label(level, idx), "().")
	}
	return strings.Join(parts, ".")
}
