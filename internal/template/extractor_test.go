package template

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdraft/doc-template-service/internal/docx"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	extractor, err := NewExtractor(DefaultMarkerSyntax(), logger)
	require.NoError(t, err)
	return extractor
}

// TestExtractOrdering verifies that spans come back in paragraph, then
// position order, one per non-overlapping placeholder.
func TestExtractOrdering(t *testing.T) {
	doc := &docx.Document{Paragraphs: []docx.Paragraph{
		{Runs: []docx.Run{{Text: "Dear {client_name}, re: {matter_ref}"}}},
		{Runs: []docx.Run{{Text: "Dated {contract_date}"}}},
	}}

	spans := newTestExtractor(t).Extract(doc)
	require.Len(t, spans, 3)

	assert.Equal(t, "client_name", spans[0].Name)
	assert.Equal(t, "matter_ref", spans[1].Name)
	assert.Equal(t, "contract_date", spans[2].Name)

	assert.Equal(t, 0, spans[0].ParagraphIndex)
	assert.Equal(t, 0, spans[1].ParagraphIndex)
	assert.Equal(t, 1, spans[2].ParagraphIndex)
}

// TestExtractAcrossRuns verifies resolution of a marker split over several
// runs, which word processors produce freely.
func TestExtractAcrossRuns(t *testing.T) {
	doc := &docx.Document{Paragraphs: []docx.Paragraph{
		{Runs: []docx.Run{
			{Text: "This deed is made on "},
			{Text: "{contract", Bold: true},
			{Text: "_da"},
			{Text: "te}"},
			{Text: " between the parties."},
		}},
	}}

	spans := newTestExtractor(t).Extract(doc)
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "contract_date", span.Name)
	assert.Equal(t, 1, span.StartRun)
	assert.Equal(t, 3, span.EndRun)
	assert.Equal(t, 0, span.StartOffset)
	assert.Equal(t, 3, span.EndOffset, "offset just past the closing delimiter in the end run")
	assert.True(t, span.Bold, "formatting baseline comes from the start run")
	assert.False(t, span.Italic)
}

func TestExtractCapturesStartRunFormatting(t *testing.T) {
	doc := &docx.Document{Paragraphs: []docx.Paragraph{
		{Runs: []docx.Run{
			{Text: "{client_name}", Italic: true, Underline: true},
		}},
	}}

	spans := newTestExtractor(t).Extract(doc)
	require.Len(t, spans, 1)
	assert.True(t, spans[0].Italic)
	assert.True(t, spans[0].Underline)
	assert.False(t, spans[0].Bold)
}

// TestExtractCasing verifies the casing convention: the way a name is
// written in the template selects the case transform, and lookup names are
// normalized to lower case.
func TestExtractCasing(t *testing.T) {
	tests := []struct {
		marker string
		name   string
		casing Casing
	}{
		{"{client_name}", "client_name", CasingNone},
		{"{CLIENT_NAME}", "client_name", CasingUpper},
		{"{Client_Name}", "client_name", CasingTitle},
		{"{clientName}", "clientname", CasingNone},
	}

	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			doc := &docx.Document{Paragraphs: []docx.Paragraph{
				{Runs: []docx.Run{{Text: tt.marker}}},
			}}
			spans := newTestExtractor(t).Extract(doc)
			require.Len(t, spans, 1)
			assert.Equal(t, tt.name, spans[0].Name)
			assert.Equal(t, tt.casing, spans[0].Casing)
		})
	}
}

func TestExtractCustomMarkerSyntax(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	extractor, err := NewExtractor(MarkerSyntax{Open: "${", Close: "}"}, logger)
	require.NoError(t, err)

	doc := &docx.Document{Paragraphs: []docx.Paragraph{
		{Runs: []docx.Run{{Text: "Hello ${client_name}, ignore {client_name}"}}},
	}}

	spans := extractor.Extract(doc)
	require.Len(t, spans, 1)
	assert.Equal(t, "client_name", spans[0].Name)
}

func TestExtractNoPlaceholders(t *testing.T) {
	doc := &docx.Document{Paragraphs: []docx.Paragraph{
		{Runs: []docx.Run{{Text: "Plain paragraph without markers."}}},
		{},
	}}

	assert.Empty(t, newTestExtractor(t).Extract(doc))
}

func TestNewExtractorRejectsEmptyDelimiters(t *testing.T) {
	_, err := NewExtractor(MarkerSyntax{Open: "", Close: "}"}, nil)
	assert.Error(t, err)
}
