package docx

// WordprocessingML mapping for word/document.xml. Only the run properties
// the run model needs are mapped; the paragraph/run tree itself is walked
// token by token in docx.go because text and break elements interleave
// inside a run and plain unmarshalling would lose their order.

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

type xmlRunProperties struct {
	Bold      *xmlToggle    `xml:"b"`
	Italic    *xmlToggle    `xml:"i"`
	Underline *xmlUnderline `xml:"u"`
	Fonts     *xmlFonts     `xml:"rFonts"`
	Size      *xmlHalfSize  `xml:"sz"`
}

// xmlToggle models OOXML on/off properties: presence means on unless
// w:val is "false" or "0".
type xmlToggle struct {
	Val string `xml:"val,attr,omitempty"`
}

func (t *xmlToggle) enabled() bool {
	if t == nil {
		return false
	}
	return t.Val != "false" && t.Val != "0"
}

type xmlUnderline struct {
	Val string `xml:"val,attr,omitempty"`
}

func (u *xmlUnderline) enabled() bool {
	if u == nil {
		return false
	}
	return u.Val != "none" && u.Val != ""
}

type xmlFonts struct {
	ASCII string `xml:"ascii,attr,omitempty"`
	HAnsi string `xml:"hAnsi,attr,omitempty"`
}

// xmlHalfSize holds w:sz, a font size expressed in half-points.
type xmlHalfSize struct {
	Val string `xml:"val,attr"`
}
