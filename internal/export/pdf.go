package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/lexdraft/doc-template-service/internal/docx"
)

const (
	defaultFontSizePt = 12.0
	paragraphSpacing  = 2.0
)

// RenderPDF renders a document's run model into a PDF. Word fonts are mapped
// onto the nearest PDF core font family; exact glyph fidelity is not a goal,
// the output is a readable print rendition.
func RenderPDF(doc *docx.Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	for _, para := range doc.Paragraphs {
		for _, run := range para.Runs {
			if run.Text == "" {
				continue
			}

			size := defaultFontSizePt
			if run.FontSizePt != nil {
				size = *run.FontSizePt
			}
			pdf.SetFont(coreFontFamily(run.FontName), styleString(run), size)

			lineHeight := size * 0.45
			segments := strings.Split(run.Text, "\n")
			for i, segment := range segments {
				if i > 0 {
					pdf.Ln(lineHeight)
				}
				pdf.Write(lineHeight, segment)
			}
		}
		pdf.Ln(defaultFontSizePt*0.45 + paragraphSpacing)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// coreFontFamily maps a Word font name onto one of the PDF core families.
func coreFontFamily(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "times"), strings.Contains(lower, "georgia"), strings.Contains(lower, "garamond"):
		return "Times"
	case strings.Contains(lower, "courier"), strings.Contains(lower, "mono"):
		return "Courier"
	default:
		return "Helvetica"
	}
}

// styleString builds the gofpdf style flags from a run's formatting.
func styleString(run docx.Run) string {
	var style string
	if run.Bold {
		style += "B"
	}
	if run.Italic {
		style += "I"
	}
	if run.Underline {
		style += "U"
	}
	return style
}
