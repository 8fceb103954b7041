package render

import (
	"github.com/google/uuid"

	"github.com/chartform/chartform/internal/domain/template"
)

// Mover is the slice of the mutation API drag-and-drop needs. The template
// store satisfies it.
type Mover interface {
	MoveElement(from, to int)
	AddElement(partial template.NewElement) (template.Element, bool)
}

// DragEvent is one opaque event from the drag system: which element is held,
// where it started and where the pointer is now. The controller only
// translates these into mutations; hit-testing and gesture physics stay
// outside.
type DragEvent struct {
	DraggedID   uuid.UUID `json:"dragged_id"`
	SourceIndex int       `json:"source_index"`
	PointerY    float64   `json:"pointer_y"`
}

// DropController turns drag events into reorder mutations using a
// midpoint-crossing rule: hovering over a target commits a move only once
// the pointer crosses the target's vertical midpoint in the direction of
// travel. Dragging down commits past the lower half, dragging up past the
// upper half. This keeps a single gesture from flipping indices back and
// forth while the pointer hovers near a boundary.
type DropController struct {
	mover   Mover
	frames  []Rect
	dragged uuid.UUID
	lastY   float64
}

// NewDropController builds a controller over the current editor frames.
func NewDropController(mover Mover, view EditorView) *DropController {
	frames := make([]Rect, len(view.Items))
	for i, item := range view.Items {
		frames[i] = item.Frame
	}
	return &DropController{mover: mover, frames: frames}
}

// Reframe replaces the frame set after a reflow.
func (c *DropController) Reframe(view EditorView) {
	frames := make([]Rect, len(view.Items))
	for i, item := range view.Items {
		frames[i] = item.Frame
	}
	c.frames = frames
}

// targetAt returns the index of the frame containing the pointer's vertical
// position, or -1.
func (c *DropController) targetAt(y float64) int {
	for i, f := range c.frames {
		if y >= f.Y && y < f.Y+f.H {
			return i
		}
	}
	return -1
}

// Hover processes a drag movement. It returns the committed target index and
// true when the midpoint rule fired a move, or -1 and false when the event
// changed nothing.
//
// A change of dragged element starts a new gesture: its first event only
// records the baseline position, so direction of travel is always derived
// from movement within the same gesture, never from where the previous one
// ended.
func (c *DropController) Hover(ev DragEvent) (int, bool) {
	if ev.DraggedID != c.dragged {
		c.dragged = ev.DraggedID
		c.lastY = ev.PointerY
		return -1, false
	}
	prevY := c.lastY
	c.lastY = ev.PointerY

	target := c.targetAt(ev.PointerY)
	if target < 0 || target == ev.SourceIndex {
		return -1, false
	}
	mid := c.frames[target].MidY()
	movingDown := ev.PointerY > prevY
	if movingDown && ev.PointerY <= mid {
		return -1, false
	}
	if !movingDown && ev.PointerY >= mid {
		return -1, false
	}
	c.mover.MoveElement(ev.SourceIndex, target)
	return target, true
}

// Reset clears gesture state. Call it when a drag ends so re-dragging the
// same element starts from a fresh baseline.
func (c *DropController) Reset() {
	c.dragged = uuid.Nil
	c.lastY = 0
}

// DropNew handles dropping a brand-new element type onto the canvas: it adds
// the element instead of moving one. The new element lands at the end of
// content per the add-element contract.
func (c *DropController) DropNew(partial template.NewElement) (template.Element, bool) {
	return c.mover.AddElement(partial)
}
