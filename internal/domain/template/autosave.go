package template

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultAutosaveDelay is the debounce window between the last edit and the
// background save it schedules.
const DefaultAutosaveDelay = 2 * time.Second

// Autosaver debounces save requests on the trailing edge: every Trigger
// resets the timer, and the save function runs once the configured delay has
// elapsed with no further triggers. Triggering for a different template id
// abandons the pending save for the previous one.
type Autosaver struct {
	delay time.Duration
	save  func(ctx context.Context, id uuid.UUID) error
	log   zerolog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending uuid.UUID
	gen     uint64
	stopped bool
	errs    chan error
}

// NewAutosaver builds an Autosaver around a save function. A non-positive
// delay falls back to DefaultAutosaveDelay.
func NewAutosaver(delay time.Duration, save func(ctx context.Context, id uuid.UUID) error, log zerolog.Logger) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Autosaver{
		delay: delay,
		save:  save,
		log:   log,
		errs:  make(chan error, 8),
	}
}

// Trigger schedules (or reschedules) a save for the given template id after
// the debounce delay. Calling it repeatedly within the window coalesces into
// one save.
func (a *Autosaver) Trigger(id uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.pending = id
	a.gen++
	gen := a.gen
	a.timer = time.AfterFunc(a.delay, func() { a.fire(gen) })
}

// Stop cancels any pending save. Further triggers are ignored.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// Flush runs any pending save immediately instead of waiting out the delay.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	if a.stopped || a.timer == nil {
		a.mu.Unlock()
		return
	}
	a.timer.Stop()
	a.timer = nil
	gen := a.gen
	a.mu.Unlock()
	a.fire(gen)
}

// Errors exposes save failures for callers that want them. The channel is
// buffered; when nobody listens, failures are logged and dropped.
func (a *Autosaver) Errors() <-chan error { return a.errs }

func (a *Autosaver) fire(gen uint64) {
	a.mu.Lock()
	if a.stopped || gen != a.gen {
		a.mu.Unlock()
		return
	}
	id := a.pending
	a.timer = nil
	a.mu.Unlock()

	if err := a.save(context.Background(), id); err != nil {
		a.log.Error().Err(err).Str("template_id", id.String()).Msg("autosave failed")
		select {
		case a.errs <- err:
		default:
		}
	}
}
