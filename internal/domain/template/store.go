package template

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ScopeFunc resolves the caller's organization scope from a context. The
// second return is false when no scope is available.
type ScopeFunc func(ctx context.Context) (string, bool)

// IdentityFunc resolves the acting user id from a context, for created_by
// stamping. It may return "".
type IdentityFunc func(ctx context.Context) string

// NewElement is the caller-supplied part of an add-element mutation. The
// store fills in the id and the remaining defaults.
type NewElement struct {
	Type        ElementType       `json:"type"`
	Label       string            `json:"label"`
	Description string            `json:"description,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Required    bool              `json:"required,omitempty"`
	Layout      Layout            `json:"layout,omitempty"`
	Options     []string          `json:"options,omitempty"`
	Validation  *ValidationConfig `json:"validation,omitempty"`
	Date        *DateConfig       `json:"date,omitempty"`
	Table       *TableConfig      `json:"table,omitempty"`
	Image       *ImageConfig      `json:"image,omitempty"`
	Signature   *SignatureConfig  `json:"signature,omitempty"`
	Button      *ButtonConfig     `json:"button,omitempty"`
}

// Metadata is the user-editable template header saved alongside content.
type Metadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Store owns one editing session's template list and current-template slot.
// All mutations are synchronous with respect to the in-memory tree; the
// mutex serializes them so no two mutations interleave. Persistence is
// asynchronous relative to mutations: rapid edits coalesce through the
// autosaver into fewer writes, and only the final state is guaranteed to
// eventually persist.
type Store struct {
	repo     Repository
	scope    ScopeFunc
	identity IdentityFunc
	log      zerolog.Logger
	now      func() time.Time

	mu        sync.Mutex
	templates []*Template
	current   *Template
	dirty     bool
	mutseq    uint64
	loadSeq   uint64
	autosave  *Autosaver
	closed    bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithIdentity sets the resolver used to stamp created_by on new templates.
func WithIdentity(fn IdentityFunc) Option {
	return func(s *Store) { s.identity = fn }
}

// WithAutosave enables debounced background saves with the given delay.
func WithAutosave(delay time.Duration) Option {
	return func(s *Store) {
		s.autosave = NewAutosaver(delay, s.autosaveFire, s.log)
	}
}

// WithClock overrides the store's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore builds a Store over a persistence gateway and a scope resolver.
func NewStore(repo Repository, scope ScopeFunc, opts ...Option) *Store {
	s := &Store{
		repo:     repo,
		scope:    scope,
		identity: func(context.Context) string { return "" },
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close tears the session down, canceling any pending autosave. A scheduled
// save that has not fired yet will not fire after Close returns.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	if s.autosave != nil {
		s.autosave.Stop()
	}
}

// AutosaveErrors exposes background save failures, or nil when autosave is
// disabled.
func (s *Store) AutosaveErrors() <-chan error {
	if s.autosave == nil {
		return nil
	}
	return s.autosave.Errors()
}

// FetchTemplates loads every template visible in the caller's scope into the
// store's list, newest first.
func (s *Store) FetchTemplates(ctx context.Context) ([]*Template, error) {
	org, ok := s.scope(ctx)
	if !ok {
		return nil, ErrNoScope
	}
	items, err := s.repo.List(ctx, org)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	s.mu.Lock()
	s.templates = items
	out := cloneList(items)
	s.mu.Unlock()
	return out, nil
}

// LoadTemplate fetches one template by id within the current scope and makes
// it the current template, clearing the dirty flag. A cross-scope id behaves
// identically to a missing one. Two racing loads settle last-call-wins: the
// slot always ends up holding the template of the most recent call,
// regardless of which fetch finished first.
func (s *Store) LoadTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	org, ok := s.scope(ctx)
	if !ok {
		return nil, ErrNoScope
	}

	s.mu.Lock()
	s.loadSeq++
	token := s.loadSeq
	s.mu.Unlock()

	t, err := s.repo.GetByID(ctx, org, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "load", Err: err}
	}

	s.mu.Lock()
	if token == s.loadSeq {
		s.current = t
		s.dirty = false
	}
	out := t.Clone()
	s.mu.Unlock()
	return out, nil
}

// CreateNewTemplate synthesizes a template with default name, empty content,
// version 1 and active=true, persists it immediately and makes it current.
func (s *Store) CreateNewTemplate(ctx context.Context) (*Template, error) {
	org, ok := s.scope(ctx)
	if !ok {
		return nil, ErrNoScope
	}
	now := s.now().UTC()
	t := &Template{
		ID:        uuid.New(),
		OrgID:     org,
		Name:      DefaultName,
		Tags:      []string{},
		Version:   1,
		IsActive:  true,
		Content:   []Element{},
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: s.identity(ctx),
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, &PersistenceError{Op: "create", Err: err}
	}
	s.mu.Lock()
	s.current = t
	s.dirty = false
	s.templates = append([]*Template{t}, s.templates...)
	out := t.Clone()
	s.mu.Unlock()
	return out, nil
}

// SaveTemplate merges the given metadata into the current template, stamps
// updated_at, bumps the version and upserts the whole template. It no-ops
// when there is no current template or no resolvable scope. On success the
// current slot is updated optimistically from the merged values rather than
// re-fetched; the dirty flag is cleared only if no mutation landed while the
// write was in flight.
func (s *Store) SaveTemplate(ctx context.Context, meta Metadata) (*Template, error) {
	org, ok := s.scope(ctx)
	if !ok {
		return nil, nil
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil, nil
	}
	s.current.Name = meta.Name
	s.current.Description = meta.Description
	s.current.Tags = append([]string{}, meta.Tags...)
	// The merge is a mutation like any other: mark dirty before the write so
	// a failed upsert leaves the divergence visible and retryable.
	s.markDirtyLocked()
	seq := s.mutseq
	snap := s.current.Clone()
	s.mu.Unlock()

	snap.OrgID = org
	snap.UpdatedAt = s.now().UTC()
	snap.Version++

	if err := s.repo.Upsert(ctx, snap); err != nil {
		return nil, &PersistenceError{Op: "save", Err: err}
	}

	s.mu.Lock()
	if s.current != nil && s.current.ID == snap.ID {
		s.current.Version = snap.Version
		s.current.UpdatedAt = snap.UpdatedAt
		if s.mutseq == seq {
			s.dirty = false
		}
	}
	s.replaceInList(snap)
	out := snap.Clone()
	s.mu.Unlock()
	return out, nil
}

// DeleteTemplate removes the template through the gateway and drops it from
// the in-memory list. Deleting the current template clears the slot.
func (s *Store) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	org, ok := s.scope(ctx)
	if !ok {
		return ErrNoScope
	}
	if err := s.repo.Delete(ctx, org, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return &PersistenceError{Op: "delete", Err: err}
	}
	s.mu.Lock()
	for i, t := range s.templates {
		if t.ID == id {
			s.templates = append(s.templates[:i], s.templates[i+1:]...)
			break
		}
	}
	if s.current != nil && s.current.ID == id {
		s.current = nil
		s.dirty = false
	}
	s.mu.Unlock()
	return nil
}

// AddElement appends a new element built from the partial plus a generated
// id and defaults (empty value, empty options, full layout) to the current
// content and marks the template dirty. It returns the finished element, or
// false when there is no current template.
func (s *Store) AddElement(partial NewElement) (Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Element{}, false
	}
	e := Element{
		ID:          uuid.New(),
		Type:        partial.Type,
		Label:       partial.Label,
		Description: partial.Description,
		Placeholder: partial.Placeholder,
		Required:    partial.Required,
		Layout:      partial.Layout,
		Value:       "",
		Options:     []string{},
		Validation:  partial.Validation,
		Date:        partial.Date,
		Table:       partial.Table,
		Image:       partial.Image,
		Signature:   partial.Signature,
		Button:      partial.Button,
	}
	if e.Layout == "" {
		e.Layout = LayoutFull
	}
	if len(partial.Options) > 0 {
		e.Options = append([]string{}, partial.Options...)
	}
	s.current.Content = append(s.current.Content, e)
	s.markDirtyLocked()
	return e.Clone(), true
}

// UpdateElement shallow-merges the patch into the element with the given id.
// An id not present in content is a silent no-op that leaves the tree and
// the dirty flag untouched.
func (s *Store) UpdateElement(id uuid.UUID, patch ElementPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	i := indexOf(s.current.Content, id)
	if i < 0 {
		return
	}
	s.current.Content[i].apply(patch)
	s.markDirtyLocked()
}

// RemoveElement filters the element with the given id out of content. A
// missing id is a silent no-op.
func (s *Store) RemoveElement(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	i := indexOf(s.current.Content, id)
	if i < 0 {
		return
	}
	s.current.Content = append(s.current.Content[:i], s.current.Content[i+1:]...)
	s.markDirtyLocked()
}

// MoveElement removes the element at from and reinserts it at to, preserving
// every other relative order. Out-of-range indices are clamped; a move that
// lands where it started changes nothing and does not mark dirty.
func (s *Store) MoveElement(from, to int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || len(s.current.Content) == 0 {
		return
	}
	n := len(s.current.Content)
	from = clamp(from, 0, n-1)
	to = clamp(to, 0, n-1)
	if from == to {
		return
	}
	e := s.current.Content[from]
	rest := append(s.current.Content[:from:from], s.current.Content[from+1:]...)
	content := make([]Element, 0, n)
	content = append(content, rest[:to]...)
	content = append(content, e)
	content = append(content, rest[to:]...)
	s.current.Content = content
	s.markDirtyLocked()
}

// Current returns a deep copy of the current template, or nil when no
// template is loaded.
func (s *Store) Current() *Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Content returns a deep copy of the current template's element list.
func (s *Store) Content() []Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return cloneContent(s.current.Content)
}

// Templates returns a deep copy of the cached template list.
func (s *Store) Templates() []*Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneList(s.templates)
}

// IsDirty reports whether in-memory state diverges from the last persisted
// state.
func (s *Store) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Store) markDirtyLocked() {
	s.dirty = true
	s.mutseq++
	if s.autosave != nil && !s.closed && s.current != nil {
		s.autosave.Trigger(s.current.ID)
	}
}

// autosaveFire is the debounced save callback. It persists whatever the tree
// looks like at fire time, which may coalesce several edits into one write.
// Failures keep the dirty flag set so a later edit or explicit save retries.
func (s *Store) autosaveFire(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	if s.closed || s.current == nil || s.current.ID != id || !s.dirty {
		s.mu.Unlock()
		return nil
	}
	seq := s.mutseq
	snap := s.current.Clone()
	s.mu.Unlock()

	snap.UpdatedAt = s.now().UTC()
	snap.Version++

	if err := s.repo.Upsert(ctx, snap); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}

	s.mu.Lock()
	if s.current != nil && s.current.ID == snap.ID {
		s.current.Version = snap.Version
		s.current.UpdatedAt = snap.UpdatedAt
		if s.mutseq == seq {
			s.dirty = false
		}
	}
	s.replaceInList(snap)
	s.mu.Unlock()
	s.log.Debug().Str("template_id", id.String()).Msg("autosaved template")
	return nil
}

// replaceInList swaps the cached list entry with the same id, if any.
// Callers must hold mu.
func (s *Store) replaceInList(t *Template) {
	for i, cached := range s.templates {
		if cached.ID == t.ID {
			s.templates[i] = t.Clone()
			return
		}
	}
}

func cloneList(items []*Template) []*Template {
	if items == nil {
		return nil
	}
	out := make([]*Template, len(items))
	for i, t := range items {
		out[i] = t.Clone()
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
