package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// documentPart is the zip entry holding the document body.
const documentPart = "word/document.xml"

// File is an opened DOCX container. It keeps every zip part except the
// document body untouched, so styles, numbering and relationships survive a
// load/save cycle. The body itself is exposed as the run model and rebuilt
// from it on save.
type File struct {
	Doc   *Document
	parts map[string][]byte // all parts except word/document.xml
	order []string          // original part order
}

// Load opens DOCX bytes and builds the run model from word/document.xml.
// This is the only hard failure mode of the engine: if no run model can be
// constructed the error is returned synchronously to the caller.
func Load(data []byte) (*File, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx container: %w", err)
	}

	f := &File{parts: make(map[string][]byte)}
	var bodyXML []byte

	for _, entry := range reader.File {
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open part %s: %w", entry.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %w", entry.Name, err)
		}

		if entry.Name == documentPart {
			bodyXML = content
			continue
		}
		f.parts[entry.Name] = content
		f.order = append(f.order, entry.Name)
	}

	if bodyXML == nil {
		return nil, fmt.Errorf("invalid docx: missing %s", documentPart)
	}

	doc, err := parseBody(bodyXML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document body: %w", err)
	}
	f.Doc = doc

	return f, nil
}

// New creates an empty DOCX file with the minimal required container parts.
func New() *File {
	parts := map[string][]byte{
		"[Content_Types].xml": []byte(contentTypesXML),
		"_rels/.rels":         []byte(relsXML),
	}
	return &File{
		Doc:   &Document{},
		parts: parts,
		order: []string{"[Content_Types].xml", "_rels/.rels"},
	}
}

// Bytes flattens the run model back into word/document.xml and rebuilds the
// zip container around it.
func (f *File) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, name := range f.order {
		entry, err := w.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create part %s: %w", name, err)
		}
		if _, err := entry.Write(f.parts[name]); err != nil {
			return nil, fmt.Errorf("failed to write part %s: %w", name, err)
		}
	}

	entry, err := w.Create(documentPart)
	if err != nil {
		return nil, fmt.Errorf("failed to create document part: %w", err)
	}
	if _, err := entry.Write(renderBody(f.Doc)); err != nil {
		return nil, fmt.Errorf("failed to write document part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize docx container: %w", err)
	}
	return buf.Bytes(), nil
}

// parseBody walks the document XML token stream. Text and break elements
// interleave inside a run, so the stream is walked directly instead of
// unmarshalling whole run elements.
func parseBody(data []byte) (*Document, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	doc := &Document{}

	var (
		paragraph *Paragraph
		run       *Run
		inText    bool
	)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed document xml: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				doc.Paragraphs = append(doc.Paragraphs, Paragraph{})
				paragraph = &doc.Paragraphs[len(doc.Paragraphs)-1]
			case "r":
				if paragraph != nil {
					run = &Run{}
				}
			case "rPr":
				if run != nil {
					var props xmlRunProperties
					if err := decoder.DecodeElement(&props, &t); err != nil {
						return nil, fmt.Errorf("malformed run properties: %w", err)
					}
					applyRunProperties(run, &props)
				}
			case "t":
				inText = run != nil
			case "br":
				if run != nil {
					run.Text += "\n"
				}
			}
		case xml.CharData:
			if inText {
				run.Text += string(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				if paragraph != nil && run != nil {
					paragraph.Runs = append(paragraph.Runs, *run)
				}
				run = nil
			case "p":
				paragraph = nil
			}
		}
	}

	return doc, nil
}

func applyRunProperties(run *Run, props *xmlRunProperties) {
	run.Bold = props.Bold.enabled()
	run.Italic = props.Italic.enabled()
	run.Underline = props.Underline.enabled()
	if props.Fonts != nil {
		if props.Fonts.ASCII != "" {
			run.FontName = props.Fonts.ASCII
		} else {
			run.FontName = props.Fonts.HAnsi
		}
	}
	if props.Size != nil {
		if half, err := strconv.ParseFloat(props.Size.Val, 64); err == nil {
			run.FontSizePt = FontSize(half / 2)
		}
	}
}

// renderBody serializes the run model into WordprocessingML.
func renderBody(doc *Document) []byte {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<w:document xmlns:w="` + wordNamespace + `"><w:body>`)

	for i := range doc.Paragraphs {
		b.WriteString("<w:p>")
		for j := range doc.Paragraphs[i].Runs {
			renderRun(&b, &doc.Paragraphs[i].Runs[j])
		}
		b.WriteString("</w:p>")
	}

	b.WriteString("</w:body></w:document>")
	return []byte(b.String())
}

func renderRun(b *strings.Builder, run *Run) {
	b.WriteString("<w:r>")
	renderRunProperties(b, run)

	// '\n' inside run text maps to <w:br/>.
	segments := strings.Split(run.Text, "\n")
	for i, segment := range segments {
		if i > 0 {
			b.WriteString("<w:br/>")
		}
		if segment == "" {
			continue
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		xml.EscapeText(b, []byte(segment))
		b.WriteString("</w:t>")
	}

	b.WriteString("</w:r>")
}

func renderRunProperties(b *strings.Builder, run *Run) {
	if !run.Bold && !run.Italic && !run.Underline && run.FontName == "" && run.FontSizePt == nil {
		return
	}
	b.WriteString("<w:rPr>")
	if run.Bold {
		b.WriteString("<w:b/>")
	}
	if run.Italic {
		b.WriteString("<w:i/>")
	}
	if run.Underline {
		b.WriteString(`<w:u w:val="single"/>`)
	}
	if run.FontName != "" {
		b.WriteString(`<w:rFonts w:ascii="`)
		xml.EscapeText(b, []byte(run.FontName))
		b.WriteString(`" w:hAnsi="`)
		xml.EscapeText(b, []byte(run.FontName))
		b.WriteString(`"/>`)
	}
	if run.FontSizePt != nil {
		half := strconv.FormatFloat(*run.FontSizePt*2, 'f', -1, 64)
		b.WriteString(`<w:sz w:val="` + half + `"/>`)
	}
	b.WriteString("</w:rPr>")
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`
