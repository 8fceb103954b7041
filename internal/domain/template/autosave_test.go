package template

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type saveSpy struct {
	mu    sync.Mutex
	calls []uuid.UUID
	err   error
}

func (p *saveSpy) save(_ context.Context, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, id)
	return p.err
}

func (p *saveSpy) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *saveSpy) last() uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[len(p.calls)-1]
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestAutosaver_TrailingEdgeDebounce(t *testing.T) {
	spy := &saveSpy{}
	a := NewAutosaver(30*time.Millisecond, spy.save, zerolog.Nop())
	defer a.Stop()

	id := uuid.New()
	for i := 0; i < 10; i++ {
		a.Trigger(id)
		time.Sleep(2 * time.Millisecond)
	}

	waitFor(t, func() bool { return spy.count() > 0 }, "save never fired")
	time.Sleep(60 * time.Millisecond)

	if n := spy.count(); n != 1 {
		t.Errorf("expected one coalesced save, got %d", n)
	}
	if spy.last() != id {
		t.Errorf("expected save for %s, got %s", id, spy.last())
	}
}

func TestAutosaver_NewTemplateSupersedesPending(t *testing.T) {
	spy := &saveSpy{}
	a := NewAutosaver(30*time.Millisecond, spy.save, zerolog.Nop())
	defer a.Stop()

	first := uuid.New()
	second := uuid.New()
	a.Trigger(first)
	a.Trigger(second)

	waitFor(t, func() bool { return spy.count() > 0 }, "save never fired")
	if spy.last() != second {
		t.Errorf("expected the later template to win, got %s", spy.last())
	}
	if n := spy.count(); n != 1 {
		t.Errorf("expected the pending save for the first template to be abandoned, got %d saves", n)
	}
}

func TestAutosaver_StopCancelsPending(t *testing.T) {
	spy := &saveSpy{}
	a := NewAutosaver(30*time.Millisecond, spy.save, zerolog.Nop())

	a.Trigger(uuid.New())
	a.Stop()

	time.Sleep(80 * time.Millisecond)
	if n := spy.count(); n != 0 {
		t.Errorf("expected no save after Stop, got %d", n)
	}

	// Triggers after Stop are ignored.
	a.Trigger(uuid.New())
	time.Sleep(80 * time.Millisecond)
	if n := spy.count(); n != 0 {
		t.Errorf("expected trigger after Stop to be ignored, got %d saves", n)
	}
}

func TestAutosaver_FlushRunsImmediately(t *testing.T) {
	spy := &saveSpy{}
	a := NewAutosaver(time.Hour, spy.save, zerolog.Nop())
	defer a.Stop()

	id := uuid.New()
	a.Trigger(id)
	a.Flush()

	if spy.count() != 1 || spy.last() != id {
		t.Fatalf("expected flush to run the pending save, got %d calls", spy.count())
	}

	// Nothing pending: flush is a no-op.
	a.Flush()
	if spy.count() != 1 {
		t.Errorf("expected no save without a pending trigger, got %d", spy.count())
	}
}

func TestAutosaver_ErrorsSurfaceOnChannel(t *testing.T) {
	spy := &saveSpy{err: fmt.Errorf("gateway down")}
	a := NewAutosaver(10*time.Millisecond, spy.save, zerolog.Nop())
	defer a.Stop()

	a.Trigger(uuid.New())

	select {
	case err := <-a.Errors():
		if err == nil {
			t.Fatal("expected non-nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected error on the channel")
	}
}
