package render

import (
	"testing"

	"github.com/google/uuid"

	"github.com/chartform/chartform/internal/domain/template"
)

type mockMover struct {
	moves [][2]int
	added []template.NewElement
}

func (m *mockMover) MoveElement(from, to int) {
	m.moves = append(m.moves, [2]int{from, to})
}

func (m *mockMover) AddElement(partial template.NewElement) (template.Element, bool) {
	m.added = append(m.added, partial)
	return template.Element{ID: uuid.New(), Type: partial.Type, Layout: template.LayoutFull}, true
}

// threeRows builds a controller over three stacked full-width frames:
// rows at y 0-56, 56-112 and 112-168, with midpoints 28, 84 and 140.
func threeRows(m Mover) *DropController {
	view := BuildEditorView(tpl(
		el(template.TypeText, template.LayoutFull),
		el(template.TypeText, template.LayoutFull),
		el(template.TypeText, template.LayoutFull),
	), testWidth)
	return NewDropController(m, view)
}

func TestHover_DownCommitsOnlyPastMidpoint(t *testing.T) {
	mover := &mockMover{}
	c := threeRows(mover)
	drag := uuid.New()

	// Dragging row 0 down into row 1's upper half: no move yet.
	if _, committed := c.Hover(DragEvent{DraggedID: drag, SourceIndex: 0, PointerY: 60}); committed {
		t.Fatal("upper half must not commit on a downward drag")
	}
	if len(mover.moves) != 0 {
		t.Fatalf("unexpected move %v", mover.moves)
	}

	// Crossing row 1's midpoint (84) commits.
	target, committed := c.Hover(DragEvent{DraggedID: drag, SourceIndex: 0, PointerY: 90})
	if !committed || target != 1 {
		t.Fatalf("expected commit onto row 1, got target=%d committed=%v", target, committed)
	}
	if len(mover.moves) != 1 || mover.moves[0] != [2]int{0, 1} {
		t.Errorf("moves = %v, want [[0 1]]", mover.moves)
	}
}

func TestHover_UpCommitsOnlyPastMidpoint(t *testing.T) {
	mover := &mockMover{}
	c := threeRows(mover)
	drag := uuid.New()

	// Establish the pointer inside the dragged row itself; same-row hovers
	// never commit.
	if _, committed := c.Hover(DragEvent{DraggedID: drag, SourceIndex: 2, PointerY: 150}); committed {
		t.Fatal("hovering the source row must not commit")
	}

	// Upward into row 1's lower half: still short of the midpoint.
	if _, committed := c.Hover(DragEvent{DraggedID: drag, SourceIndex: 2, PointerY: 100}); committed {
		t.Fatal("lower half must not commit on an upward drag")
	}

	// Crossing row 1's midpoint (84) going up commits.
	target, committed := c.Hover(DragEvent{DraggedID: drag, SourceIndex: 2, PointerY: 80})
	if !committed || target != 1 {
		t.Fatalf("expected commit onto row 1, got target=%d committed=%v", target, committed)
	}
	if len(mover.moves) != 1 || mover.moves[0] != [2]int{2, 1} {
		t.Errorf("moves = %v, want [[2 1]]", mover.moves)
	}
}

func TestHover_NewDragStartsFreshBaseline(t *testing.T) {
	mover := &mockMover{}
	c := threeRows(mover)

	// First gesture drags row 0 down and ends at y=90.
	first := uuid.New()
	c.Hover(DragEvent{DraggedID: first, SourceIndex: 0, PointerY: 60})
	c.Hover(DragEvent{DraggedID: first, SourceIndex: 0, PointerY: 90})
	if len(mover.moves) != 1 {
		t.Fatalf("setup gesture: moves = %v", mover.moves)
	}

	// A second gesture opens at y=80, above where the first ended. Direction
	// must come from this gesture's own movement, not from y=90: its first
	// event only sets the baseline.
	second := uuid.New()
	if _, committed := c.Hover(DragEvent{DraggedID: second, SourceIndex: 2, PointerY: 80}); committed {
		t.Fatal("the opening event of a gesture must not commit")
	}
	if len(mover.moves) != 1 {
		t.Fatalf("baseline event moved an element: %v", mover.moves)
	}

	// The gesture then moves down past row 1's midpoint and commits.
	target, committed := c.Hover(DragEvent{DraggedID: second, SourceIndex: 2, PointerY: 90})
	if !committed || target != 1 {
		t.Fatalf("expected commit onto row 1, got target=%d committed=%v", target, committed)
	}
}

func TestReset_ClearsGestureState(t *testing.T) {
	mover := &mockMover{}
	c := threeRows(mover)

	// Drag an element, drop it, then pick the same element up again. After
	// Reset the re-drag must re-baseline instead of inheriting y=150.
	drag := uuid.New()
	c.Hover(DragEvent{DraggedID: drag, SourceIndex: 2, PointerY: 150})
	c.Reset()

	if _, committed := c.Hover(DragEvent{DraggedID: drag, SourceIndex: 2, PointerY: 80}); committed {
		t.Fatal("re-dragging after Reset must start with a baseline event")
	}
	if len(mover.moves) != 0 {
		t.Errorf("unexpected move %v", mover.moves)
	}
}

func TestHover_OutsideAnyFrame(t *testing.T) {
	mover := &mockMover{}
	c := threeRows(mover)

	if _, committed := c.Hover(DragEvent{SourceIndex: 0, PointerY: 999}); committed {
		t.Error("pointer outside every frame must not commit")
	}
	if len(mover.moves) != 0 {
		t.Errorf("unexpected move %v", mover.moves)
	}
}

func TestReframe_TracksReflowedLayout(t *testing.T) {
	mover := &mockMover{}
	c := threeRows(mover)

	// Reflow to a single tall row; the old y=90 commit point now sits inside
	// row 0 instead of row 1.
	view := BuildEditorView(tpl(el(template.TypeTextarea, template.LayoutFull)), testWidth)
	c.Reframe(view)

	if got := c.targetAt(90); got != 0 {
		t.Errorf("targetAt(90) after reflow = %d, want 0", got)
	}
}

func TestDropNew_AddsElement(t *testing.T) {
	mover := &mockMover{}
	c := threeRows(mover)

	e, ok := c.DropNew(template.NewElement{Type: template.TypeDate, Label: "DOB"})
	if !ok {
		t.Fatal("expected add to succeed")
	}
	if e.Type != template.TypeDate {
		t.Errorf("added type = %s", e.Type)
	}
	if len(mover.added) != 1 || mover.added[0].Label != "DOB" {
		t.Errorf("added = %+v", mover.added)
	}
}
