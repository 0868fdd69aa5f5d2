package question

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var errBadDataURL = errors.New("malformed data URL")

// Image owns the encoded bytes of one picture.
type Image struct {
	Data []byte `json:"data"`
}

// UnmarshalJSON accepts {"data": "<base64>"} or {"src": "data:image/png;base64,..."}.
func (img *Image) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data []byte `json:"data"`
		Src  string `json:"src"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	img.Data = raw.Data
	if len(img.Data) == 0 && raw.Src != "" {
		data, err := DecodeDataURL(raw.Src)
		if err != nil {
			return fmt.Errorf("image src: %w", err)
		}
		img.Data = data
	}
	return nil
}

// DecodeDataURL returns the payload of a data: URL.
func DecodeDataURL(s string) ([]byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return nil, errBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errBadDataURL
	}
	if strings.HasSuffix(meta, ";base64") {
		payload = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, payload)
		if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
			return data, nil
		}
		data, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadDataURL, err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadDataURL, err)
	}
	return []byte(data), nil
}

// Table is a grid of plain-text cells. Every row has the same number of
// columns.
type Table struct {
	Rows [][]string `json:"rows"`
}

// NewTable pads short rows with empty cells to the widest row.
func NewTable(rows [][]string) *Table {
	return &Table{Rows: pad(rows, 0)}
}

// UnmarshalJSON accepts {"rows": [...]} or the editor form
// {"data": [...], "cols": n} and pads the result.
func (t *Table) UnmarshalJSON(b []byte) error {
	var raw struct {
		Rows [][]string `json:"rows"`
		Data [][]string `json:"data"`
		Cols int        `json:"cols"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	rows := raw.Rows
	if rows == nil {
		rows = raw.Data
	}
	t.Rows = pad(rows, raw.Cols)
	return nil
}

// Columns returns the column count.
func (t *Table) Columns() int {
	if t == nil || len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

func pad(rows [][]string, minCols int) [][]string {
	cols := minCols
	for _, r := range rows {
		cols = max(cols, len(r))
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, cols)
		copy(row, r)
		out[i] = row
	}
	return out
}
