package question

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		level, index int
		want         string
	}{
		{LevelMain, 0, "1."},
		{LevelMain, 41, "42."},
		{LevelSub, 0, "a)"},
		{LevelSub, 19, "t)"},
		{LevelSub, 20, "(21)"},
		{LevelNested, 0, "i)"},
		{LevelNested, 3, "iv)"},
		{LevelNested, 19, "xx)"},
		{LevelNested, 25, "(26)"},
		{LevelDeep, 1, "b)"},
		{LevelDeep, 20, "(21)"},
	}
	for _, tt := range tests {
		if got := Label(tt.level, tt.index); got != tt.want {
			t.Errorf("Label(%d, %d) = %q, want %q", tt.level, tt.index, got, tt.want)
		}
	}
}

func TestNewTablePadsRows(t *testing.T) {
	tbl := NewTable([][]string{{"a", "b"}, {"ccc"}})
	want := [][]string{{"a", "b"}, {"ccc", ""}}
	if diff := cmp.Diff(want, tbl.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, tbl.Columns())
	assert.Equal(t, 0, NewTable(nil).Columns())
}

func TestDecodePaper(t *testing.T) {
	src := `{
	  "header": {"title": "Mid-term", "total_marks": 50},
	  "questions": [
	    {"text": "<b>Solve</b> x² = 4",
	     "images": [{"src": "data:image/png;base64,aGVsbG8="}, {"data": "d29ybGQ="}],
	     "table": {"data": [["1"], ["2", "3"]], "cols": 3},
	     "children": [{"text": "", "children": [{"text": "deep"}]}]}
	  ]
	}`
	p, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, p.Questions, 1)

	q := p.Questions[0]
	assert.Equal(t, "hello", string(q.Images[0].Data))
	assert.Equal(t, "world", string(q.Images[1].Data))
	assert.Equal(t, [][]string{{"1", "", ""}, {"2", "3", ""}}, q.Table.Rows)
	assert.Equal(t, AlignCenter, q.Align())
	assert.Equal(t, 50, p.Header.TotalMarks)
}

func TestValidateDepth(t *testing.T) {
	deep := &Node{Text: "level 4"}
	p := &Paper{Questions: []*Node{{
		Children: []*Node{{Children: []*Node{{Children: []*Node{{Children: []*Node{deep}}}}}}},
	}}}
	err := p.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooDeep))
	assert.Contains(t, err.Error(), "1.a.i.a.1")

	assert.ErrorIs(t, (&Paper{}).Validate(), ErrEmptyPaper)
}

func TestValidateFormat(t *testing.T) {
	p := &Paper{Questions: []*Node{{Text: "x", Format: "rtf"}}}
	assert.Error(t, p.Validate())
}

func TestWalkOrder(t *testing.T) {
	p := &Paper{Questions: []*Node{
		{ID: "1", Children: []*Node{{ID: "1a"}, {ID: "1b", Children: []*Node{{ID: "1bi"}}}}},
		{ID: "2"},
	}}
	var got []string
	require.NoError(t, p.Walk(func(n *Node, level int, path []int) error {
		got = append(got, n.ID+"@"+PathString(path))
		return nil
	}))
	want := []string{"1@1", "1a@1.a", "1b@1.b", "1bi@1.b.i", "2@2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("walk order (-want +got):\n%s", diff)
	}
}

func TestImageQuota(t *testing.T) {
	imgs := make([]Image, 7)
	n := &Node{Images: imgs}
	assert.Len(t, n.QuotaImages(), MaxCenterImages)
	assert.Len(t, n.Images, 7)

	n.ImageAlign = AlignRight
	n.ApplyImageQuota()
	assert.Len(t, n.Images, 1)
}

func TestDecodeDataURL(t *testing.T) {
	got, err := DecodeDataURL("data:text/plain,a%20b")
	require.NoError(t, err)
	assert.Equal(t, "a b", string(got))

	got, err = DecodeDataURL("data:image/png;base64,aGVsbG8")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	_, err = DecodeDataURL("http://example.com/x.png")
	assert.Error(t, err)
}
