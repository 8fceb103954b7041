package render

import (
	"github.com/google/uuid"

	"github.com/chartform/chartform/internal/domain/template"
)

// Control names the editable widget the editor shows for an element type.
type Control string

const (
	ControlStaticText Control = "static_text"
	ControlTextInput  Control = "text_input"
	ControlTextarea   Control = "textarea"
	ControlNumber     Control = "number_input"
	ControlDatePicker Control = "date_picker"
	ControlSelect     Control = "select"
	ControlCheckbox   Control = "checkbox"
	ControlRadioGroup Control = "radio_group"
	ControlTable      Control = "table_editor"
	ControlImage      Control = "image_upload"
	ControlSignature  Control = "signature_pad"
	ControlButton     Control = "button"
)

// Rect is an element's computed frame in the editor canvas, in abstract
// layout units with the origin at the top-left.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// MidY is the vertical center of the frame, the commit threshold for
// drag-and-drop reordering.
func (r Rect) MidY() float64 { return r.Y + r.H/2 }

// EditorItem is one element rendered as an editable, reorderable unit. Every
// item carries a remove affordance and a drag handle; the frame positions it
// in the wrapping two-column flow.
type EditorItem struct {
	ID       uuid.UUID            `json:"id"`
	Index    int                  `json:"index"`
	Type     template.ElementType `json:"type"`
	Control  Control              `json:"control"`
	Label    string               `json:"label"`
	Required bool                 `json:"required"`
	Layout   template.Layout      `json:"layout"`
	Options  []string             `json:"options"`
	Frame    Rect                 `json:"frame"`
}

// EditorView is the full editable rendering of a template's content.
type EditorView struct {
	TemplateID uuid.UUID    `json:"template_id"`
	Items      []EditorItem `json:"items"`
	Height     float64      `json:"height"`
}

// controlFor maps an element type to its editor widget. The switch is
// exhaustive over the known type set.
func controlFor(t template.ElementType) (Control, bool) {
	switch t {
	case template.TypeStaticText:
		return ControlStaticText, true
	case template.TypeText:
		return ControlTextInput, true
	case template.TypeTextarea:
		return ControlTextarea, true
	case template.TypeNumber:
		return ControlNumber, true
	case template.TypeDate:
		return ControlDatePicker, true
	case template.TypeSelect:
		return ControlSelect, true
	case template.TypeCheckbox:
		return ControlCheckbox, true
	case template.TypeRadio:
		return ControlRadioGroup, true
	case template.TypeTable:
		return ControlTable, true
	case template.TypeImage:
		return ControlImage, true
	case template.TypeSignature:
		return ControlSignature, true
	case template.TypeButton:
		return ControlButton, true
	}
	return "", false
}

// rowHeight gives each control a fixed canvas height. Option-bearing
// controls grow with their option count.
func rowHeight(e template.Element) float64 {
	switch e.Type {
	case template.TypeTextarea:
		return 96
	case template.TypeTable:
		return 128
	case template.TypeSignature, template.TypeImage:
		return 112
	case template.TypeSelect, template.TypeRadio, template.TypeCheckbox:
		h := 48 + float64(len(e.Options))*20
		return h
	default:
		return 56
	}
}

// BuildEditorView renders content as editable items positioned by a wrapping
// flow layout: full-width elements take the whole container row, half-width
// elements flow side by side in source order and wrap when a row is full.
// Changing one element's layout reflows everything after it.
func BuildEditorView(t *template.Template, width float64) EditorView {
	view := EditorView{Items: []EditorItem{}}
	if t == nil {
		return view
	}
	view.TemplateID = t.ID
	view.Items = make([]EditorItem, 0, len(t.Content))

	var x, y, rowH float64
	for i, e := range t.Content {
		ctrl, ok := controlFor(e.Type)
		if !ok {
			ctrl = ControlTextInput
		}
		w := width
		if e.Layout == template.LayoutHalf {
			w = width / 2
		}
		if x+w > width {
			x = 0
			y += rowH
			rowH = 0
		}
		h := rowHeight(e)
		item := EditorItem{
			ID:       e.ID,
			Index:    i,
			Type:     e.Type,
			Control:  ctrl,
			Label:    e.Label,
			Required: e.Required,
			Layout:   e.Layout,
			Options:  append([]string{}, e.Options...),
			Frame:    Rect{X: x, Y: y, W: w, H: h},
		}
		view.Items = append(view.Items, item)
		if h > rowH {
			rowH = h
		}
		if e.Layout == template.LayoutHalf {
			x += w
			if x >= width {
				x = 0
				y += rowH
				rowH = 0
			}
		} else {
			x = 0
			y += rowH
			rowH = 0
		}
	}
	view.Height = y + rowH
	return view
}
