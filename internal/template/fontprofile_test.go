package template

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexdraft/doc-template-service/internal/docx"
)

func TestDetectFontProfile(t *testing.T) {
	t.Run("dominant pair wins", func(t *testing.T) {
		doc := &docx.Document{Paragraphs: []docx.Paragraph{
			{Runs: []docx.Run{
				{Text: "a", FontName: "Garamond", FontSizePt: docx.FontSize(11)},
				{Text: "b", FontName: "Arial", FontSizePt: docx.FontSize(10)},
				{Text: "c", FontName: "Garamond", FontSizePt: docx.FontSize(11)},
			}},
		}}

		profile := DetectFontProfile(doc)
		assert.Equal(t, "Garamond", profile.Name)
		assert.Equal(t, 11.0, profile.SizePt)
	})

	t.Run("ties break toward first seen", func(t *testing.T) {
		doc := &docx.Document{Paragraphs: []docx.Paragraph{
			{Runs: []docx.Run{
				{Text: "a", FontName: "Arial", FontSizePt: docx.FontSize(10)},
				{Text: "b", FontName: "Calibri", FontSizePt: docx.FontSize(12)},
			}},
		}}

		profile := DetectFontProfile(doc)
		assert.Equal(t, "Arial", profile.Name)
		assert.Equal(t, 10.0, profile.SizePt)
	})

	t.Run("runs without both attributes are ignored", func(t *testing.T) {
		doc := &docx.Document{Paragraphs: []docx.Paragraph{
			{Runs: []docx.Run{
				{Text: "a", FontName: "Arial"},
				{Text: "b", FontSizePt: docx.FontSize(14)},
				{Text: "c", FontName: "Calibri", FontSizePt: docx.FontSize(12)},
			}},
		}}

		profile := DetectFontProfile(doc)
		assert.Equal(t, "Calibri", profile.Name)
		assert.Equal(t, 12.0, profile.SizePt)
	})

	t.Run("system default when nothing specifies fonts", func(t *testing.T) {
		doc := &docx.Document{Paragraphs: []docx.Paragraph{
			{Runs: []docx.Run{{Text: "bare"}}},
		}}

		profile := DetectFontProfile(doc)
		assert.Equal(t, "Times New Roman", profile.Name)
		assert.Equal(t, 12.0, profile.SizePt)
	})
}
