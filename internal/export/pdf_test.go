package export

import (
	"bytes"
	"testing"

	"github.com/google/uuid"

	"github.com/chartform/chartform/internal/domain/template"
)

func sampleContent() []template.Element {
	return []template.Element{
		{ID: uuid.New(), Type: template.TypeStaticText, Label: "Patient Intake", Description: "Complete all sections"},
		{ID: uuid.New(), Type: template.TypeText, Label: "Full Name", Required: true},
		{ID: uuid.New(), Type: template.TypeNumber, Label: "Age"},
		{ID: uuid.New(), Type: template.TypeDate, Label: "Date of Birth"},
		{ID: uuid.New(), Type: template.TypeTextarea, Label: "History"},
		{ID: uuid.New(), Type: template.TypeSelect, Label: "Blood Type", Options: []string{"A", "B", "O"}},
		{ID: uuid.New(), Type: template.TypeCheckbox, Label: "Allergies", Options: []string{"Penicillin", "Latex"}},
		{ID: uuid.New(), Type: template.TypeCheckbox, Label: "Consent given"},
		{ID: uuid.New(), Type: template.TypeRadio, Label: "Smoker", Options: []string{"Yes", "No"}},
		{ID: uuid.New(), Type: template.TypeTable, Label: "Medications", Table: &template.TableConfig{
			Columns: []template.TableColumn{
				{Label: "Name", Type: template.ColumnText},
				{Label: "Dose", Type: template.ColumnNumber},
			},
			MinRows: 2,
		}},
		{ID: uuid.New(), Type: template.TypeImage, Label: "Insurance Card"},
		{ID: uuid.New(), Type: template.TypeSignature, Label: "Patient Signature"},
		{ID: uuid.New(), Type: template.TypeButton, Label: "Submit"},
	}
}

func TestPDF_ProducesValidDocument(t *testing.T) {
	doc, err := PDF(sampleContent())
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Error("output does not start with the PDF magic")
	}
	if len(doc) < 500 {
		t.Errorf("document suspiciously small: %d bytes", len(doc))
	}
}

func TestPDF_EmptyContent(t *testing.T) {
	doc, err := PDF(nil)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Error("empty export must still be a valid document")
	}
}

func TestPDF_RepeatedExportIsByteIdentical(t *testing.T) {
	content := sampleContent()
	first, err := PDF(content)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	second, err := PDF(content)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("the same content must export to byte-identical documents")
	}
}

func TestPDF_DoesNotMutateContent(t *testing.T) {
	content := sampleContent()
	before := make([]template.Element, len(content))
	for i, e := range content {
		before[i] = e.Clone()
	}

	if _, err := PDF(content); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	for i := range content {
		if content[i].Label != before[i].Label || content[i].Type != before[i].Type {
			t.Fatalf("element %d changed during export", i)
		}
		if len(content[i].Options) != len(before[i].Options) {
			t.Fatalf("element %d options changed during export", i)
		}
	}
}

func TestPDF_TableWithoutColumnsFallsBack(t *testing.T) {
	doc, err := PDF([]template.Element{
		{ID: uuid.New(), Type: template.TypeTable, Label: "Empty Grid"},
	})
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Error("fallback export must still be a valid document")
	}
}
