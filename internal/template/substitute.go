package template

import (
	"github.com/sirupsen/logrus"

	"github.com/lexdraft/doc-template-service/internal/docx"
)

// Engine performs in-place placeholder substitution over a document. A
// Document must not be shared between concurrent Substitute calls; each
// generation job owns its document exclusively for the duration of the call.
type Engine struct {
	registry *Registry
	logger   *logrus.Logger
}

// NewEngine creates a substitution engine backed by the given formatter
// registry.
func NewEngine(registry *Registry, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	if registry == nil {
		registry = NewRegistry(logger)
	}
	return &Engine{registry: registry, logger: logger}
}

// Substitute rewrites the document's runs in extraction order, resolving
// each placeholder through the formatter registry. Only the marker's own
// character range is replaced; literal text sharing a run with a marker
// survives, including other placeholders earlier or later in the same run.
// Missing values substitute an empty string so the document still renders.
// The returned slice names the placeholders that were skipped because their
// spans no longer resolve into the document; it is empty on a fully applied
// substitution.
func (e *Engine) Substitute(doc *docx.Document, spans []PlaceholderSpan, values map[string]string, profile FontProfile, category string) []string {
	var skipped []string

	// Splicing changes run lengths, so offsets recorded at extraction time
	// drift for later spans in the same run. shift tracks the accumulated
	// byte delta per (paragraph, run).
	type runKey struct{ paragraph, run int }
	shift := make(map[runKey]int)

	for i := range spans {
		span := &spans[i]
		if !span.Valid(doc) {
			e.logger.WithFields(logrus.Fields{
				"name":      span.Name,
				"paragraph": span.ParagraphIndex,
				"start_run": span.StartRun,
				"end_run":   span.EndRun,
			}).Warn("Skipping placeholder with invalid span")
			skipped = append(skipped, span.Name)
			continue
		}

		raw, ok := values[span.Name]
		if !ok {
			e.logger.WithField("name", span.Name).Debug("No value supplied for placeholder, substituting empty string")
		}
		formatted := e.registry.Format(span, raw, category)

		paragraph := &doc.Paragraphs[span.ParagraphIndex]
		target := &paragraph.Runs[span.StartRun]

		startKey := runKey{span.ParagraphIndex, span.StartRun}
		endKey := runKey{span.ParagraphIndex, span.EndRun}
		startOff := span.StartOffset + shift[startKey]

		if span.StartRun == span.EndRun {
			endOff := span.EndOffset + shift[startKey]
			if startOff < 0 || endOff < startOff || endOff > len(target.Text) {
				e.logger.WithFields(logrus.Fields{
					"name":      span.Name,
					"paragraph": span.ParagraphIndex,
					"start_run": span.StartRun,
				}).Warn("Skipping placeholder whose offsets no longer fit its run")
				skipped = append(skipped, span.Name)
				continue
			}
			target.Text = target.Text[:startOff] + formatted + target.Text[endOff:]
			shift[startKey] += len(formatted) - (endOff - startOff)
		} else {
			// A span crossing runs collapses into its start run: the start
			// run keeps its literal prefix plus the formatted value, middle
			// runs are emptied, and the end run keeps only the literal text
			// after the marker.
			endRun := &paragraph.Runs[span.EndRun]
			endOff := span.EndOffset + shift[endKey]
			if startOff < 0 || startOff > len(target.Text) || endOff < 0 || endOff > len(endRun.Text) {
				e.logger.WithFields(logrus.Fields{
					"name":      span.Name,
					"paragraph": span.ParagraphIndex,
					"start_run": span.StartRun,
					"end_run":   span.EndRun,
				}).Warn("Skipping placeholder whose offsets no longer fit its runs")
				skipped = append(skipped, span.Name)
				continue
			}
			target.Text = target.Text[:startOff] + formatted
			for ri := span.StartRun + 1; ri < span.EndRun; ri++ {
				paragraph.Runs[ri].Text = ""
			}
			endRun.Text = endRun.Text[endOff:]
			shift[endKey] -= endOff
		}

		// Fill font defaults only where the run has no explicit attribute;
		// per-run overrides are never clobbered.
		if target.FontName == "" {
			target.FontName = profile.Name
		}
		if target.FontSizePt == nil {
			target.FontSizePt = docx.FontSize(profile.SizePt)
		}

		target.Bold = span.Bold
		target.Italic = span.Italic
		target.Underline = span.Underline
	}

	removeEmptyRuns(doc)
	return skipped
}

// removeEmptyRuns drops runs left with empty text after substitution.
// Downstream renderers assume non-empty runs carry meaningful styling
// boundaries, so emptied spill-over runs must not survive.
func removeEmptyRuns(doc *docx.Document) {
	for pi := range doc.Paragraphs {
		runs := doc.Paragraphs[pi].Runs
		kept := runs[:0]
		for _, run := range runs {
			if run.Text != "" {
				kept = append(kept, run)
			}
		}
		doc.Paragraphs[pi].Runs = kept
	}
}
