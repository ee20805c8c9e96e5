// Package report turns a patient record into a printable medical report.
//
// Layout is a pure mapping from a patient onto A4 millimetre coordinates;
// Render draws the result with fpdf.
package report

import (
	"fmt"

	"github.com/ariebrainware/patient-checkin/model"
)

// Page geometry in millimetres.
const (
	PageWidth  = 210.0
	PageHeight = 297.0
	Margin     = 15.0
	// PageBreakY is the cursor position past which a history entry starts
	// on a new page.
	PageBreakY = 270.0
	// SummaryLineHeight is the vertical advance of one wrapped summary line.
	SummaryLineHeight = 4.0
)

// Font sizes in points.
const (
	TitleSize   = 22.0
	NameSize    = 16.0
	HeadingSize = 14.0
	BodySize    = 12.0
	SummarySize = 10.0
)

// AttendingGray is the grey level of the attending doctor line.
const AttendingGray = 150

type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

type ElementKind int

const (
	TextElement ElementKind = iota
	RuleElement
)

// Element is one drawing instruction. For text, X is the anchor given by
// Align and Y is the baseline. For rules, the line runs from (X, Y) to
// (X2, Y).
type Element struct {
	Kind      ElementKind
	X, Y      float64
	X2        float64
	Text      string
	FontSize  float64
	Bold      bool
	Align     Align
	Gray      int
	LineWidth float64
}

// Page holds the elements drawn on one sheet, in drawing order.
type Page struct {
	Elements []Element
}

// Document is a laid out report.
type Document struct {
	Title string
	Pages []Page
}

// Measurer wraps text to a width for a given font size.
type Measurer interface {
	WrapText(text string, fontSize, width float64) []string
}

// Layout maps p onto pages. It does not mutate p.
func Layout(p model.Patient, m Measurer) Document {
	l := &layout{m: m, y: Margin}
	l.doc.Title = fmt.Sprintf("Medical Report - %s", p.Name)
	l.newPage()

	l.text(PageWidth/2, "Medical Report", TitleSize, AlignCenter)
	l.y += 10

	l.y += 8
	l.text(Margin, p.Name, NameSize, AlignLeft)
	l.rule(l.y+2, 0.5)
	l.y += 10

	l.text(Margin, "Date of Birth: "+p.DateOfBirth, BodySize, AlignLeft)
	l.text(PageWidth-Margin, "Blood Type: "+p.BloodType, BodySize, AlignRight)
	l.y += 8
	l.text(Margin, "Allergies: "+allergiesLine(p.Allergies), BodySize, AlignLeft)
	l.y += 15

	l.text(Margin, "Medical History", HeadingSize, AlignLeft)
	l.y += 5
	l.rule(l.y, 0.2)
	l.y += 8

	for _, rec := range p.MedicalHistory {
		if l.y > PageBreakY {
			l.newPage()
			l.y = Margin
		}

		l.add(Element{Kind: TextElement, X: Margin, Y: l.y, Text: rec.Type.String(), FontSize: BodySize, Bold: true})
		l.text(PageWidth-Margin, rec.Date, BodySize, AlignRight)
		l.y += 6

		lines := m.WrapText(rec.Summary, SummarySize, PageWidth-2*Margin)
		for i, line := range lines {
			l.add(Element{Kind: TextElement, X: Margin, Y: l.y + float64(i)*SummaryLineHeight, Text: line, FontSize: SummarySize})
		}
		l.y += float64(len(lines))*SummaryLineHeight + 2

		l.add(Element{Kind: TextElement, X: Margin, Y: l.y, Text: "Attending: " + rec.Doctor, FontSize: SummarySize, Gray: AttendingGray})
		l.y += 10
	}
	return l.doc
}

func allergiesLine(allergies []string) string {
	if joined := model.JoinAllergies(allergies); joined != "" {
		return joined
	}
	return "None"
}

type layout struct {
	m   Measurer
	doc Document
	y   float64
}

func (l *layout) newPage() {
	l.doc.Pages = append(l.doc.Pages, Page{})
}

func (l *layout) add(e Element) {
	page := &l.doc.Pages[len(l.doc.Pages)-1]
	page.Elements = append(page.Elements, e)
}

func (l *layout) text(x float64, s string, size float64, align Align) {
	l.add(Element{Kind: TextElement, X: x, Y: l.y, Text: s, FontSize: size, Align: align})
}

func (l *layout) rule(y, width float64) {
	l.add(Element{Kind: RuleElement, X: Margin, Y: y, X2: PageWidth - Margin, LineWidth: width})
}
