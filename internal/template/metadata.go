package template

import "github.com/lexdraft/doc-template-service/internal/docx"

// Metadata is the parsed structure of one template: its placeholder spans in
// extraction order plus its dominant font profile. It is created once per
// template parse and cached until the template's source content changes.
type Metadata struct {
	TemplateID   string            `json:"template_id"`
	Placeholders []PlaceholderSpan `json:"placeholders"`
	FontName     string            `json:"font_name"`
	FontSizePt   float64           `json:"font_size_pt"`
}

// Parse extracts placeholder spans and the font profile from a document.
func Parse(templateID string, doc *docx.Document, extractor *Extractor) *Metadata {
	profile := DetectFontProfile(doc)
	return &Metadata{
		TemplateID:   templateID,
		Placeholders: extractor.Extract(doc),
		FontName:     profile.Name,
		FontSizePt:   profile.SizePt,
	}
}

// Profile returns the metadata's font profile.
func (m *Metadata) Profile() FontProfile {
	return FontProfile{Name: m.FontName, SizePt: m.FontSizePt}
}

// FieldNames returns the distinct placeholder names in first-seen order.
// Deduplication is for presentation (listing a template's fields); the
// substitution engine always works from the full span list.
func (m *Metadata) FieldNames() []string {
	seen := make(map[string]bool)
	var names []string
	for i := range m.Placeholders {
		name := m.Placeholders[i].Name
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
