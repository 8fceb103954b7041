package template

import (
	"time"

	"github.com/google/uuid"
)

// DefaultName is the name given to freshly created templates.
const DefaultName = "Untitled Template"

// Template is one document/form definition: ordered element content plus
// metadata. Content order is render and document order and is preserved
// exactly across mutations and persistence round trips.
type Template struct {
	ID          uuid.UUID `db:"id" json:"id"`
	OrgID       string    `db:"org_id" json:"org_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Tags        []string  `db:"tags" json:"tags"`
	Version     int       `db:"version" json:"version"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	Content     []Element `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
}

// Clone returns a deep copy safe to hand to consumers or to persist while
// the original keeps mutating.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Tags = append([]string(nil), t.Tags...)
	if t.Tags != nil && cp.Tags == nil {
		cp.Tags = []string{}
	}
	cp.Content = cloneContent(t.Content)
	return &cp
}

func cloneContent(content []Element) []Element {
	if content == nil {
		return nil
	}
	out := make([]Element, len(content))
	for i, e := range content {
		out[i] = e.Clone()
	}
	return out
}

// indexOf returns the position of the element with the given id in content,
// or -1 when absent.
func indexOf(content []Element, id uuid.UUID) int {
	for i, e := range content {
		if e.ID == id {
			return i
		}
	}
	return -1
}
