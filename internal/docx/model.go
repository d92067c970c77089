package docx

// Run is the smallest unit of styled text. Formatting is uniform within a run.
// Line breaks inside a run are represented as '\n' in Text and rendered as
// <w:br/> elements when the document is flattened back to XML.
type Run struct {
	Text       string   // text content of the run
	Bold       bool     // bold formatting
	Italic     bool     // italic formatting
	Underline  bool     // underline formatting
	FontName   string   // font family, empty when the run does not specify one
	FontSizePt *float64 // font size in points, nil when the run does not specify one
}

// HasFont reports whether the run specifies both a font family and a size.
func (r *Run) HasFont() bool {
	return r.FontName != "" && r.FontSizePt != nil
}

// Paragraph is an ordered sequence of runs. The paragraph's index within its
// document is stable for the lifetime of one Document instance.
type Paragraph struct {
	Runs []Run
}

// Text returns the paragraph's logical text, the concatenation of its run
// texts in order.
func (p *Paragraph) Text() string {
	var out string
	for i := range p.Runs {
		out += p.Runs[i].Text
	}
	return out
}

// Document is an ordered sequence of paragraphs. A Document is exclusively
// owned by its caller for the duration of one extraction/substitution cycle
// and is mutated in place during substitution.
type Document struct {
	Paragraphs []Paragraph
}

// FontSize returns a pointer to a font size value.
// Convenience for building runs in tests and loaders.
func FontSize(pt float64) *float64 {
	return &pt
}
