package template

import (
	"fmt"
	"regexp"
)

// MarkerSyntax is the delimiter pair wrapping placeholder names in template
// text. It is the single configuration point for the marker format: the
// extractor compiles its pattern from here and nothing else hard-codes
// delimiters.
type MarkerSyntax struct {
	Open  string // opening delimiter, e.g. "{" or "${"
	Close string // closing delimiter, e.g. "}"
}

// DefaultMarkerSyntax matches placeholders of the form {name}.
func DefaultMarkerSyntax() MarkerSyntax {
	return MarkerSyntax{Open: "{", Close: "}"}
}

// Pattern compiles the marker pattern. The capture group holds the
// placeholder name, which consists of identifier characters.
func (m MarkerSyntax) Pattern() (*regexp.Regexp, error) {
	if m.Open == "" || m.Close == "" {
		return nil, fmt.Errorf("marker syntax requires both delimiters, got open=%q close=%q", m.Open, m.Close)
	}
	expr := regexp.QuoteMeta(m.Open) + `([A-Za-z0-9_]+)` + regexp.QuoteMeta(m.Close)
	return regexp.Compile(expr)
}

// Wrap renders a placeholder name in this syntax, e.g. for round-trip tests
// and template previews.
func (m MarkerSyntax) Wrap(name string) string {
	return m.Open + name + m.Close
}
