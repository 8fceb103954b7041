package template

import (
	"time"

	"github.com/google/uuid"
)

// ElementType identifies the kind of form field an Element represents. The
// set is closed: renderers switch over it exhaustively and the per-type
// configuration structs below are only meaningful for their matching type.
type ElementType string

const (
	TypeStaticText ElementType = "static_text"
	TypeText       ElementType = "text"
	TypeTextarea   ElementType = "textarea"
	TypeNumber     ElementType = "number"
	TypeDate       ElementType = "date"
	TypeSelect     ElementType = "select"
	TypeCheckbox   ElementType = "checkbox"
	TypeRadio      ElementType = "radio"
	TypeTable      ElementType = "table"
	TypeImage      ElementType = "image"
	TypeSignature  ElementType = "signature"
	TypeButton     ElementType = "button"
)

// Layout controls two-column placement in the editor and preview.
type Layout string

const (
	LayoutFull Layout = "full"
	LayoutHalf Layout = "half"
)

// ElementTypes lists every known element type in a stable order.
var ElementTypes = []ElementType{
	TypeStaticText, TypeText, TypeTextarea, TypeNumber, TypeDate,
	TypeSelect, TypeCheckbox, TypeRadio, TypeTable, TypeImage,
	TypeSignature, TypeButton,
}

// Known reports whether t is a member of the closed element type set.
func (t ElementType) Known() bool {
	for _, k := range ElementTypes {
		if t == k {
			return true
		}
	}
	return false
}

// OptionBearing reports whether elements of this type carry an options list.
func (t ElementType) OptionBearing() bool {
	return t == TypeSelect || t == TypeRadio || t == TypeCheckbox
}

// SupportsRequired reports whether the required flag is meaningful for this
// type. Static text and buttons collect nothing, so "required" is ignored.
func (t ElementType) SupportsRequired() bool {
	return t != TypeStaticText && t != TypeButton
}

// ValidationConfig holds input validation rules for text, textarea, number
// and image elements.
type ValidationConfig struct {
	Min               *float64 `json:"min,omitempty"`
	Max               *float64 `json:"max,omitempty"`
	Pattern           string   `json:"pattern,omitempty"`
	AcceptedFileTypes []string `json:"accepted_file_types,omitempty"`
	MaxSizeBytes      *int64   `json:"max_size_bytes,omitempty"`
}

// DateConfig constrains the selectable range of a date element.
type DateConfig struct {
	AllowPast   bool       `json:"allow_past"`
	AllowFuture bool       `json:"allow_future"`
	MinDate     *time.Time `json:"min_date,omitempty"`
	MaxDate     *time.Time `json:"max_date,omitempty"`
}

// ColumnType identifies the input kind of a single table column.
type ColumnType string

const (
	ColumnText   ColumnType = "text"
	ColumnNumber ColumnType = "number"
	ColumnDate   ColumnType = "date"
	ColumnSelect ColumnType = "select"
	ColumnStatic ColumnType = "static"
)

// TableColumn describes one column of a table element. Select columns carry
// their own option list; static columns carry a fixed display value.
type TableColumn struct {
	Label       string     `json:"label"`
	Type        ColumnType `json:"type"`
	Options     []string   `json:"options,omitempty"`
	StaticValue string     `json:"static_value,omitempty"`
}

// TableConfig is the schema of a table element.
type TableConfig struct {
	Columns []TableColumn `json:"columns"`
	MinRows int           `json:"min_rows"`
	MaxRows int           `json:"max_rows"`
}

// ImageConfig constrains uploaded images.
type ImageConfig struct {
	MaxWidth  int    `json:"max_width,omitempty"`
	MaxHeight int    `json:"max_height,omitempty"`
	AltText   string `json:"alt_text,omitempty"`
}

// SignatureConfig controls how a signature pad is rendered.
type SignatureConfig struct {
	PenColor     string `json:"pen_color,omitempty"`
	CanvasWidth  int    `json:"canvas_width,omitempty"`
	CanvasHeight int    `json:"canvas_height,omitempty"`
}

// ButtonAction is what pressing a button element does.
type ButtonAction string

const (
	ActionSubmit   ButtonAction = "submit"
	ActionNavigate ButtonAction = "navigate"
)

// ButtonConfig describes a button element's appearance and behavior.
type ButtonConfig struct {
	Variant    string       `json:"variant,omitempty"`
	Size       string       `json:"size,omitempty"`
	Action     ButtonAction `json:"action,omitempty"`
	TargetURL  string       `json:"target_url,omitempty"`
	OpenTarget string       `json:"open_target,omitempty"`
}

// Element is a single typed form field inside a template's content. The id
// is assigned once at creation and is the sole correlation key between the
// tree, rendered views and drag handles. At most one of the configuration
// pointers is meaningful, keyed by Type; consumers must check Type before
// reading a config.
type Element struct {
	ID          uuid.UUID   `json:"id"`
	Type        ElementType `json:"type"`
	Label       string      `json:"label"`
	Description string      `json:"description,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Value       string      `json:"value"`
	Required    bool        `json:"required"`
	Layout      Layout      `json:"layout"`
	Options     []string    `json:"options"`

	Validation *ValidationConfig `json:"validation,omitempty"`
	Date       *DateConfig       `json:"date,omitempty"`
	Table      *TableConfig      `json:"table,omitempty"`
	Image      *ImageConfig      `json:"image,omitempty"`
	Signature  *SignatureConfig  `json:"signature,omitempty"`
	Button     *ButtonConfig     `json:"button,omitempty"`
}

// Clone returns a deep copy of the element.
func (e Element) Clone() Element {
	cp := e
	cp.Options = append([]string(nil), e.Options...)
	if e.Options != nil && cp.Options == nil {
		cp.Options = []string{}
	}
	if e.Validation != nil {
		v := *e.Validation
		v.AcceptedFileTypes = append([]string(nil), e.Validation.AcceptedFileTypes...)
		if e.Validation.Min != nil {
			m := *e.Validation.Min
			v.Min = &m
		}
		if e.Validation.Max != nil {
			m := *e.Validation.Max
			v.Max = &m
		}
		if e.Validation.MaxSizeBytes != nil {
			m := *e.Validation.MaxSizeBytes
			v.MaxSizeBytes = &m
		}
		cp.Validation = &v
	}
	if e.Date != nil {
		d := *e.Date
		if e.Date.MinDate != nil {
			t := *e.Date.MinDate
			d.MinDate = &t
		}
		if e.Date.MaxDate != nil {
			t := *e.Date.MaxDate
			d.MaxDate = &t
		}
		cp.Date = &d
	}
	if e.Table != nil {
		t := TableConfig{MinRows: e.Table.MinRows, MaxRows: e.Table.MaxRows}
		t.Columns = make([]TableColumn, len(e.Table.Columns))
		for i, col := range e.Table.Columns {
			c := col
			c.Options = append([]string(nil), col.Options...)
			t.Columns[i] = c
		}
		cp.Table = &t
	}
	if e.Image != nil {
		img := *e.Image
		cp.Image = &img
	}
	if e.Signature != nil {
		s := *e.Signature
		cp.Signature = &s
	}
	if e.Button != nil {
		b := *e.Button
		cp.Button = &b
	}
	return cp
}

// ElementPatch is a shallow-merge update for a single element. Nil fields
// leave the current value untouched; configuration structs are replaced
// wholesale when present. There is deliberately no ID field.
type ElementPatch struct {
	Type        *ElementType `json:"type,omitempty"`
	Label       *string      `json:"label,omitempty"`
	Description *string      `json:"description,omitempty"`
	Placeholder *string      `json:"placeholder,omitempty"`
	Value       *string      `json:"value,omitempty"`
	Required    *bool        `json:"required,omitempty"`
	Layout      *Layout      `json:"layout,omitempty"`
	Options     *[]string    `json:"options,omitempty"`

	Validation *ValidationConfig `json:"validation,omitempty"`
	Date       *DateConfig       `json:"date,omitempty"`
	Table      *TableConfig      `json:"table,omitempty"`
	Image      *ImageConfig      `json:"image,omitempty"`
	Signature  *SignatureConfig  `json:"signature,omitempty"`
	Button     *ButtonConfig     `json:"button,omitempty"`
}

// apply merges the patch into e. The element's ID is never modified.
func (e *Element) apply(p ElementPatch) {
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Label != nil {
		e.Label = *p.Label
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Placeholder != nil {
		e.Placeholder = *p.Placeholder
	}
	if p.Value != nil {
		e.Value = *p.Value
	}
	if p.Required != nil {
		e.Required = *p.Required
	}
	if p.Layout != nil {
		e.Layout = *p.Layout
	}
	if p.Options != nil {
		e.Options = append([]string{}, (*p.Options)...)
	}
	if p.Validation != nil {
		e.Validation = p.Validation
	}
	if p.Date != nil {
		e.Date = p.Date
	}
	if p.Table != nil {
		e.Table = p.Table
	}
	if p.Image != nil {
		e.Image = p.Image
	}
	if p.Signature != nil {
		e.Signature = p.Signature
	}
	if p.Button != nil {
		e.Button = p.Button
	}
}
