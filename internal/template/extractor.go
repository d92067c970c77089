package template

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/lexdraft/doc-template-service/internal/docx"
)

// Casing is the case transform a placeholder requests for its value.
type Casing int

const (
	// CasingNone leaves the value untouched.
	CasingNone Casing = iota
	// CasingUpper upper-cases the value.
	CasingUpper
	// CasingLower lower-cases the value.
	CasingLower
	// CasingTitle title-cases the value.
	CasingTitle
)

// PlaceholderSpan is a located occurrence of a named marker, mapped to the
// run(s) of the paragraph that contain it. Bold/italic/underline are captured
// from the run containing the span's first character; formatting of later
// runs inside the span is discarded during substitution.
type PlaceholderSpan struct {
	ParagraphIndex int    // paragraph the span lives in
	StartRun       int    // run containing the first marker character
	EndRun         int    // run containing the last marker character
	StartOffset    int    // byte offset of the marker within the start run
	EndOffset      int    // byte offset just past the marker within the end run
	Name           string // normalized (lower-case) placeholder name
	Bold           bool
	Italic         bool
	Underline      bool
	Casing         Casing
}

// Valid reports whether the span's run indices fall inside the paragraph.
// Invalid spans are skipped by the substitution engine, never a crash.
func (s *PlaceholderSpan) Valid(doc *docx.Document) bool {
	if s.ParagraphIndex < 0 || s.ParagraphIndex >= len(doc.Paragraphs) {
		return false
	}
	runs := len(doc.Paragraphs[s.ParagraphIndex].Runs)
	return s.StartRun >= 0 && s.StartRun <= s.EndRun && s.EndRun < runs
}

// Extractor scans a document's paragraphs for placeholder markers.
type Extractor struct {
	syntax  MarkerSyntax
	pattern *regexp.Regexp
	logger  *logrus.Logger
}

// NewExtractor creates an extractor for the given marker syntax.
func NewExtractor(syntax MarkerSyntax, logger *logrus.Logger) (*Extractor, error) {
	pattern, err := syntax.Pattern()
	if err != nil {
		return nil, fmt.Errorf("invalid marker syntax: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Extractor{
		syntax:  syntax,
		pattern: pattern,
		logger:  logger,
	}, nil
}

// Syntax returns the marker syntax the extractor was built with.
func (e *Extractor) Syntax() MarkerSyntax {
	return e.syntax
}

// Extract returns every placeholder span in the document, ordered by
// paragraph index, then start run index, then left-to-right position. The
// order is stable and the substitution engine relies on it.
func (e *Extractor) Extract(doc *docx.Document) []PlaceholderSpan {
	var spans []PlaceholderSpan

	for pi := range doc.Paragraphs {
		paragraph := &doc.Paragraphs[pi]

		// Concatenate run texts into the paragraph's logical text while
		// keeping a byte-offset -> run map and each run's start position.
		var text strings.Builder
		var runOf []int
		var runStart []int
		for ri := range paragraph.Runs {
			runText := paragraph.Runs[ri].Text
			runStart = append(runStart, text.Len())
			text.WriteString(runText)
			for i := 0; i < len(runText); i++ {
				runOf = append(runOf, ri)
			}
		}

		matches := e.pattern.FindAllStringSubmatchIndex(text.String(), -1)
		for _, match := range matches {
			start, end := match[0], match[1]
			rawName := text.String()[match[2]:match[3]]

			if start >= len(runOf) || end-1 >= len(runOf) || end <= start {
				e.logger.WithFields(logrus.Fields{
					"paragraph": pi,
					"name":      rawName,
					"offset":    start,
				}).Warn("Placeholder match could not be resolved to runs, dropping")
				continue
			}

			startRun := runOf[start]
			endRun := runOf[end-1]

			span := PlaceholderSpan{
				ParagraphIndex: pi,
				StartRun:       startRun,
				EndRun:         endRun,
				StartOffset:    start - runStart[startRun],
				EndOffset:      end - runStart[endRun],
				Name:           strings.ToLower(rawName),
				Bold:           paragraph.Runs[startRun].Bold,
				Italic:         paragraph.Runs[startRun].Italic,
				Underline:      paragraph.Runs[startRun].Underline,
				Casing:         casingOf(rawName),
			}

			if !span.Valid(doc) {
				e.logger.WithFields(logrus.Fields{
					"paragraph": pi,
					"name":      rawName,
					"start_run": startRun,
					"end_run":   endRun,
				}).Warn("Placeholder resolved to invalid run indices, dropping")
				continue
			}

			spans = append(spans, span)
		}
	}

	return spans
}

// casingOf derives the requested case transform from how the placeholder
// name is written in the template: CLIENT_NAME requests upper case,
// Client_Name title case, client_name no transform. Lookup names are
// normalized to lower case either way.
func casingOf(rawName string) Casing {
	hasUpper := false
	hasLower := false
	for _, r := range rawName {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
	}

	switch {
	case hasUpper && !hasLower:
		return CasingUpper
	case hasUpper && hasLower && leadingUpper(rawName):
		return CasingTitle
	default:
		return CasingNone
	}
}

func leadingUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
