package postgres

import (
	"context"
	"database/sql"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// insertDocument writes one document row. It runs inside
// CasePostgres.CreateAssessment's transaction; document rows are never
// created outside an assessment.
func insertDocument(ctx context.Context, db querier, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, case_id, filename, storage_path, size, content_type, document_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, case_id, filename, storage_path, size, content_type, document_type, created_at
	`
	row := db.QueryRowContext(ctx, q,
		doc.ID,
		doc.CaseID,
		doc.Filename,
		doc.StoragePath,
		doc.Size,
		doc.ContentType,
		string(doc.Role),
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT id, case_id, filename, storage_path, size, content_type, document_type, created_at
		FROM documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// ListByCase returns a case's documents in upload order (created_at is set
// sequentially at upload time, so this is the merge-precedence order too).
func (r *DocumentPostgres) ListByCase(ctx context.Context, caseID string) ([]model.Document, error) {
	const q = `
		SELECT id, case_id, filename, storage_path, size, content_type, document_type, created_at
		FROM documents
		WHERE case_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	return items, rows.Err()
}

// Delete removes a document by ID. It does not return an error if the row
// does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var d model.Document
	var role string
	if err := row.Scan(
		&d.ID,
		&d.CaseID,
		&d.Filename,
		&d.StoragePath,
		&d.Size,
		&d.ContentType,
		&role,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.Role = model.DocumentRole(role)
	return &d, nil
}
