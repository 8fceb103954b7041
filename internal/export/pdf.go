// Package export turns a template's element list into a printable PDF. The
// walk is pure: the same content always produces byte-identical output and
// the input list is never modified.
package export

import (
	"bytes"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/chartform/chartform/internal/domain/template"
)

// Filename is the download name of an exported document.
const Filename = "document.pdf"

const (
	pageMargin   = 15.0
	labelHeight  = 6.0
	descHeight   = 5.0
	inputHeight  = 8.0
	textareaRows = 3
	optionHeight = 7.0
	blockGap     = 4.0
	glyphSize    = 4.0
)

// creationStamp pins the PDF metadata dates so repeated exports of the same
// content are byte-identical.
var creationStamp = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// PDF renders the element list, in order, into a single PDF document.
func PDF(content []template.Element) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(creationStamp)
	pdf.SetModificationDate(creationStamp)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	usable := pageW - 2*pageMargin

	for _, e := range content {
		writeHeading(pdf, e, usable)
		writeMarks(pdf, e, usable)
		pdf.Ln(blockGap)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeHeading emits the label and description text block every element
// gets, whatever its type.
func writeHeading(pdf *fpdf.Fpdf, e template.Element, usable float64) {
	if e.Label != "" {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(usable, labelHeight, e.Label, "", 1, "L", false, 0, "")
	}
	if e.Description != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(usable, descHeight, e.Description, "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
}

func writeMarks(pdf *fpdf.Fpdf, e template.Element, usable float64) {
	pdf.SetFont("Helvetica", "", 10)
	switch e.Type {
	case template.TypeStaticText, template.TypeButton:
		// Label and description only.
	case template.TypeText, template.TypeNumber, template.TypeDate:
		inputBox(pdf, usable, inputHeight)
	case template.TypeTextarea:
		inputBox(pdf, usable, inputHeight*textareaRows)
	case template.TypeCheckbox:
		if len(e.Options) == 0 {
			checkboxRow(pdf, e.Label)
		}
		for _, opt := range e.Options {
			checkboxRow(pdf, opt)
		}
	case template.TypeSelect:
		for _, opt := range e.Options {
			pdf.CellFormat(usable, optionHeight, opt, "1", 1, "L", false, 0, "")
		}
	case template.TypeRadio:
		for _, opt := range e.Options {
			radioRow(pdf, opt)
		}
	case template.TypeTable:
		tableMarks(pdf, e, usable)
	case template.TypeImage, template.TypeSignature:
		inputBox(pdf, usable, inputHeight*3)
	}
}

// inputBox draws one bordered input region and advances the cursor past it.
func inputBox(pdf *fpdf.Fpdf, w, h float64) {
	x, y := pdf.GetXY()
	pdf.Rect(x, y, w, h, "D")
	pdf.SetY(y + h)
}

// checkboxRow draws a square glyph with the option text beside it.
func checkboxRow(pdf *fpdf.Fpdf, text string) {
	x, y := pdf.GetXY()
	pdf.Rect(x, y+(optionHeight-glyphSize)/2, glyphSize, glyphSize, "D")
	pdf.SetX(x + glyphSize + 2)
	pdf.CellFormat(0, optionHeight, text, "", 1, "L", false, 0, "")
	pdf.SetX(x)
}

// radioRow draws a circle glyph with the option text beside it.
func radioRow(pdf *fpdf.Fpdf, text string) {
	x, y := pdf.GetXY()
	r := glyphSize / 2
	pdf.Circle(x+r, y+optionHeight/2, r, "D")
	pdf.SetX(x + glyphSize + 2)
	pdf.CellFormat(0, optionHeight, text, "", 1, "L", false, 0, "")
	pdf.SetX(x)
}

// tableMarks draws a header row of column labels plus one empty fillable
// row per column schema.
func tableMarks(pdf *fpdf.Fpdf, e template.Element, usable float64) {
	if e.Table == nil || len(e.Table.Columns) == 0 {
		inputBox(pdf, usable, inputHeight)
		return
	}
	colW := usable / float64(len(e.Table.Columns))
	pdf.SetFont("Helvetica", "B", 9)
	for _, col := range e.Table.Columns {
		pdf.CellFormat(colW, optionHeight, col.Label, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(optionHeight)
	rows := e.Table.MinRows
	if rows < 1 {
		rows = 1
	}
	for i := 0; i < rows; i++ {
		for range e.Table.Columns {
			pdf.CellFormat(colW, optionHeight, "", "1", 0, "L", false, 0, "")
		}
		pdf.Ln(optionHeight)
	}
}
