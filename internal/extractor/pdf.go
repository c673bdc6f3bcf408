// Package extractor turns uploaded files into plain text.
package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

// PDF extracts text page by page. Pages are joined with a visible page
// marker so answers can cite where context came from.
type PDF struct{}

// NewPDF creates a PDF text extractor.
func NewPDF() *PDF { return &PDF{} }

// Extract reads every page of the PDF. A page that yields no text is
// skipped; a document yielding no text at all is still a success with an
// empty string, since scanned PDFs without an OCR layer are a normal input.
func (e *PDF) Extract(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: opening pdf: %v", domain.ErrExtraction, err)
	}

	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: reading page %d: %v", domain.ErrExtraction, pageNum, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		fmt.Fprintf(&b, "\n--- Page %d ---\n", pageNum)
		b.WriteString(text)
	}
	return b.String(), nil
}
