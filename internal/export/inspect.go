package export

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Inspection summarises a produced PDF.
type Inspection struct {
	Pages int      `json:"pages"`
	Text  []string `json:"text"` // plain text per page
}

// Inspect reads a PDF back and extracts per-page plain text. Pages whose
// text cannot be extracted are reported empty.
func Inspect(data []byte) (*Inspection, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	n := reader.NumPage()
	out := &Inspection{Pages: n, Text: make([]string, n)}
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		out.Text[i-1] = strings.TrimSpace(text)
	}
	return out, nil
}

// Contains reports whether any page's text contains s, ignoring spacing.
func (in *Inspection) Contains(s string) bool {
	want := strings.Join(strings.Fields(s), "")
	for _, t := range in.Text {
		if strings.Contains(strings.Join(strings.Fields(t), ""), want) {
			return true
		}
	}
	return false
}
