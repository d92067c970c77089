package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdraft/doc-template-service/internal/docx"
)

func TestRenderPDF(t *testing.T) {
	doc := &docx.Document{
		Paragraphs: []docx.Paragraph{
			{Runs: []docx.Run{
				{Text: "Engagement Letter", Bold: true, FontName: "Times New Roman", FontSizePt: docx.FontSize(14)},
			}},
			{Runs: []docx.Run{
				{Text: "Dear Ada Obi,", FontName: "Times New Roman", FontSizePt: docx.FontSize(12)},
			}},
			{Runs: []docx.Run{
				{Text: "12 Marina Road\nLagos Island\nLagos."},
			}},
		},
	}

	pdf, err := RenderPDF(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Greater(t, len(pdf), 500)
}

func TestRenderPDFEmptyDocument(t *testing.T) {
	pdf, err := RenderPDF(&docx.Document{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestCoreFontFamily(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Times New Roman", "Times"},
		{"Georgia", "Times"},
		{"Courier New", "Courier"},
		{"JetBrains Mono", "Courier"},
		{"Calibri", "Helvetica"},
		{"", "Helvetica"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, coreFontFamily(tt.name), tt.name)
	}
}

func TestStyleString(t *testing.T) {
	assert.Equal(t, "", styleString(docx.Run{}))
	assert.Equal(t, "B", styleString(docx.Run{Bold: true}))
	assert.Equal(t, "BIU", styleString(docx.Run{Bold: true, Italic: true, Underline: true}))
}
