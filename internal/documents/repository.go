package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mediport/mediport/internal/platform/httpx"
)

// Repository persists document metadata in Postgres. The file bytes live on
// disk; only their paths are stored here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a document repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const documentColumns = `id, user_id, uploader_id, name, file_path, content_type, storage_key, created_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.UserID, &d.UploaderID, &d.Name, &d.FilePath,
		&d.ContentType, &d.StorageKey, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Insert stores a new document row.
func (r *Repository) Insert(ctx context.Context, d Document) (*Document, error) {
	const q = `
		INSERT INTO documents (user_id, uploader_id, name, file_path, content_type, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + documentColumns

	doc, err := scanDocument(r.pool.QueryRow(ctx, q,
		d.UserID, d.UploaderID, d.Name, d.FilePath, d.ContentType, d.StorageKey))
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

// FindByStorageKey fetches a document by its public identifier.
func (r *Repository) FindByStorageKey(ctx context.Context, key string) (*Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE storage_key = $1`

	doc, err := scanDocument(r.pool.QueryRow(ctx, q, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document %s: %w", key, httpx.ErrNotFound)
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

// ListForUser returns a patient's documents, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]Document, error) {
	const q = `SELECT ` + documentColumns + `
		FROM documents WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *doc)
	}
	return out, rows.Err()
}

// Delete removes a document row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
