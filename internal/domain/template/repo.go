package template

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence gateway for templates. Every call is scoped
// by organization id; implementations must make a scope mismatch
// indistinguishable from a missing row (ErrNotFound for both).
type Repository interface {
	// List returns all templates for the organization, newest first by
	// updated_at.
	List(ctx context.Context, org string) ([]*Template, error)
	// GetByID returns the template with the given id within the
	// organization, or ErrNotFound.
	GetByID(ctx context.Context, org string, id uuid.UUID) (*Template, error)
	// Insert persists a brand-new template row.
	Insert(ctx context.Context, t *Template) error
	// Upsert writes the whole template (metadata and content).
	Upsert(ctx context.Context, t *Template) error
	// Delete removes the template within the organization. Deleting an id
	// that does not exist in scope returns ErrNotFound.
	Delete(ctx context.Context, org string, id uuid.UUID) error
}
