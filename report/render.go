package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ariebrainware/patient-checkin/model"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

const fontFamily = "Helvetica"

// Renderer draws documents with fpdf using the core Helvetica font.
type Renderer struct {
	// CreatedAt, when set, pins the PDF creation date.
	CreatedAt time.Time
}

// Export lays out p and writes the PDF to w.
func (r Renderer) Export(w io.Writer, p model.Patient) error {
	pdf := r.newPDF()
	doc := Layout(p, &PDFMeasurer{pdf: pdf})
	return r.draw(w, pdf, doc)
}

// Render writes an already laid out document to w.
func (r Renderer) Render(w io.Writer, doc Document) error {
	return r.draw(w, r.newPDF(), doc)
}

func (r Renderer) newPDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont(fontFamily, "", BodySize)
	if !r.CreatedAt.IsZero() {
		pdf.SetCreationDate(r.CreatedAt)
		pdf.SetModificationDate(r.CreatedAt)
	}
	return pdf
}

func (r Renderer) draw(w io.Writer, pdf *fpdf.Fpdf, doc Document) error {
	pdf.SetTitle(doc.Title, true)

	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, e := range page.Elements {
			switch e.Kind {
			case RuleElement:
				pdf.SetLineWidth(e.LineWidth)
				pdf.Line(e.X, e.Y, e.X2, e.Y)
			case TextElement:
				style := ""
				if e.Bold {
					style = "B"
				}
				pdf.SetFont(fontFamily, style, e.FontSize)
				pdf.SetTextColor(e.Gray, e.Gray, e.Gray)
				txt := encodeText(e.Text)
				pdf.Text(anchorX(pdf, e, txt), e.Y, txt)
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func anchorX(pdf *fpdf.Fpdf, e Element, txt string) float64 {
	switch e.Align {
	case AlignCenter:
		return e.X - pdf.GetStringWidth(txt)/2
	case AlignRight:
		return e.X - pdf.GetStringWidth(txt)
	}
	return e.X
}

// PDFMeasurer wraps text with the metrics of the core Helvetica font.
type PDFMeasurer struct {
	pdf *fpdf.Fpdf
}

// NewPDFMeasurer returns a measurer backed by a scratch document.
func NewPDFMeasurer() *PDFMeasurer {
	return &PDFMeasurer{pdf: Renderer{}.newPDF()}
}

// WrapText breaks text at spaces into lines no wider than width. A word
// wider than width is split between runes.
func (m *PDFMeasurer) WrapText(text string, fontSize, width float64) []string {
	m.pdf.SetFont(fontFamily, "", fontSize)

	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if m.fits(candidate, width) {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		line = word
		for !m.fits(line, width) {
			head, tail := m.splitWord(line, width)
			lines = append(lines, head)
			line = tail
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func (m *PDFMeasurer) fits(s string, width float64) bool {
	return m.pdf.GetStringWidth(encodeText(s)) <= width
}

// splitWord returns the longest prefix of word that fits, at least one rune.
func (m *PDFMeasurer) splitWord(word string, width float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && m.fits(string(runes[:n+1]), width) {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

// encodeText converts s to the cp1252 bytes used by the core fonts. Runes
// cp1252 cannot represent become '?'.
func encodeText(s string) string {
	b := make([]byte, 0, len(s))
	for _, r := range s {
		c, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			c = '?'
		}
		b = append(b, c)
	}
	return string(b)
}
