package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Repository backed by the document_template table.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const templateCols = `id, org_id, name, description, tags, version, is_active, content, created_at, updated_at, created_by`

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	var content []byte
	err := row.Scan(&t.ID, &t.OrgID, &t.Name, &t.Description, &t.Tags, &t.Version,
		&t.IsActive, &content, &t.CreatedAt, &t.UpdatedAt, &t.CreatedBy)
	if err != nil {
		return nil, err
	}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &t.Content); err != nil {
			return nil, fmt.Errorf("decode template content: %w", err)
		}
	}
	if t.Content == nil {
		t.Content = []Element{}
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}

func encodeContent(content []Element) ([]byte, error) {
	if content == nil {
		content = []Element{}
	}
	return json.Marshal(content)
}

func (r *repoPG) List(ctx context.Context, org string) ([]*Template, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+templateCols+`
		FROM document_template WHERE org_id = $1 ORDER BY updated_at DESC`, org)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, org string, id uuid.UUID) (*Template, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateCols+`
		FROM document_template WHERE id = $1 AND org_id = $2`, id, org))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *repoPG) Insert(ctx context.Context, t *Template) error {
	content, err := encodeContent(t.Content)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO document_template (id, org_id, name, description, tags, version, is_active, content, created_at, updated_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		t.ID, t.OrgID, t.Name, t.Description, t.Tags, t.Version,
		t.IsActive, content, t.CreatedAt, t.UpdatedAt, t.CreatedBy)
	return err
}

func (r *repoPG) Upsert(ctx context.Context, t *Template) error {
	content, err := encodeContent(t.Content)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO document_template (id, org_id, name, description, tags, version, is_active, content, created_at, updated_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			tags = EXCLUDED.tags,
			version = EXCLUDED.version,
			is_active = EXCLUDED.is_active,
			content = EXCLUDED.content,
			updated_at = EXCLUDED.updated_at
		WHERE document_template.org_id = EXCLUDED.org_id`,
		t.ID, t.OrgID, t.Name, t.Description, t.Tags, t.Version,
		t.IsActive, content, t.CreatedAt, t.UpdatedAt, t.CreatedBy)
	return err
}

func (r *repoPG) Delete(ctx context.Context, org string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM document_template WHERE id = $1 AND org_id = $2`, id, org)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
