package render

import (
	"github.com/google/uuid"

	"github.com/chartform/chartform/internal/domain/template"
)

// EmptyPlaceholder is shown when a template has no elements yet.
const EmptyPlaceholder = "No elements added to this template yet"

// Field names the read-only widget the preview shows for an element type.
type Field string

const (
	FieldStaticText Field = "static_text"
	FieldText       Field = "text"
	FieldTextarea   Field = "textarea"
	FieldNumber     Field = "number"
	FieldDate       Field = "date"
	FieldSelect     Field = "select"
	FieldCheckbox   Field = "checkbox"
	FieldRadioGroup Field = "radio_group"
	FieldTable      Field = "table"
	FieldImage      Field = "image"
	FieldSignature  Field = "signature"
	FieldButton     Field = "button"
)

// PreviewColumn is one rendered table column header.
type PreviewColumn struct {
	Label string              `json:"label"`
	Type  template.ColumnType `json:"type"`
}

// PreviewItem is one element rendered as a fillable-looking but inert
// control. Nothing in a preview item is wired back to a mutation.
type PreviewItem struct {
	ID          uuid.UUID       `json:"id"`
	Field       Field           `json:"field"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Placeholder string          `json:"placeholder,omitempty"`
	Required    bool            `json:"required"`
	Layout      template.Layout `json:"layout"`
	Options     []string        `json:"options,omitempty"`
	Columns     []PreviewColumn `json:"columns,omitempty"`
}

// PreviewView is the read-only rendering of a template's content.
type PreviewView struct {
	TemplateID  uuid.UUID     `json:"template_id"`
	Name        string        `json:"name"`
	Items       []PreviewItem `json:"items"`
	Placeholder string        `json:"placeholder,omitempty"`
}

// fieldFor maps an element type to its preview widget. Unknown types return
// false and are skipped rather than rendered, so content written by a newer
// build never crashes an older preview.
func fieldFor(t template.ElementType) (Field, bool) {
	switch t {
	case template.TypeStaticText:
		return FieldStaticText, true
	case template.TypeText:
		return FieldText, true
	case template.TypeTextarea:
		return FieldTextarea, true
	case template.TypeNumber:
		return FieldNumber, true
	case template.TypeDate:
		return FieldDate, true
	case template.TypeSelect:
		return FieldSelect, true
	case template.TypeCheckbox:
		return FieldCheckbox, true
	case template.TypeRadio:
		return FieldRadioGroup, true
	case template.TypeTable:
		return FieldTable, true
	case template.TypeImage:
		return FieldImage, true
	case template.TypeSignature:
		return FieldSignature, true
	case template.TypeButton:
		return FieldButton, true
	}
	return "", false
}

// BuildPreviewView renders content as a read-only form. Empty content
// produces the placeholder text; elements of unknown type are silently
// skipped.
func BuildPreviewView(t *template.Template) PreviewView {
	view := PreviewView{Items: []PreviewItem{}}
	if t == nil {
		view.Placeholder = EmptyPlaceholder
		return view
	}
	view.TemplateID = t.ID
	view.Name = t.Name
	for _, e := range t.Content {
		field, ok := fieldFor(e.Type)
		if !ok {
			continue
		}
		item := PreviewItem{
			ID:          e.ID,
			Field:       field,
			Label:       e.Label,
			Description: e.Description,
			Placeholder: e.Placeholder,
			Required:    e.Required && e.Type.SupportsRequired(),
			Layout:      e.Layout,
		}
		if e.Type.OptionBearing() {
			item.Options = append([]string{}, e.Options...)
		}
		if e.Type == template.TypeTable && e.Table != nil {
			for _, col := range e.Table.Columns {
				item.Columns = append(item.Columns, PreviewColumn{Label: col.Label, Type: col.Type})
			}
		}
		view.Items = append(view.Items, item)
	}
	if len(view.Items) == 0 {
		view.Placeholder = EmptyPlaceholder
	}
	return view
}
