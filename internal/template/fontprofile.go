package template

import "github.com/lexdraft/doc-template-service/internal/docx"

// FontProfile is a template's dominant (font, size) pair. It becomes the
// default applied to any run whose own attributes are unset after
// substitution.
type FontProfile struct {
	Name   string
	SizePt float64
}

// DefaultFontProfile is used when no run in the document specifies both a
// font family and a size.
func DefaultFontProfile() FontProfile {
	return FontProfile{Name: "Times New Roman", SizePt: 12}
}

// DetectFontProfile counts occurrences of each distinct (font, size) pair
// across every run that specifies both and returns the most frequent one.
// Ties break toward the pair seen first, so detection is deterministic.
func DetectFontProfile(doc *docx.Document) FontProfile {
	counts := make(map[FontProfile]int)
	var order []FontProfile

	for pi := range doc.Paragraphs {
		for ri := range doc.Paragraphs[pi].Runs {
			run := &doc.Paragraphs[pi].Runs[ri]
			if !run.HasFont() {
				continue
			}
			pair := FontProfile{Name: run.FontName, SizePt: *run.FontSizePt}
			if _, seen := counts[pair]; !seen {
				order = append(order, pair)
			}
			counts[pair]++
		}
	}

	if len(order) == 0 {
		return DefaultFontProfile()
	}

	best := order[0]
	for _, pair := range order[1:] {
		if counts[pair] > counts[best] {
			best = pair
		}
	}
	return best
}
