package repository

import (
	"context"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
)

// DocumentRepository defines data access for stored case documents using SQL
// queries only. No business logic here — strictly persistence operations.
// Document rows are written by CaseRepository.CreateAssessment, inside the
// same transaction as their case.
type DocumentRepository interface {
	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListByCase returns the documents of one case in upload order.
	ListByCase(ctx context.Context, caseID string) ([]model.Document, error)

	// Delete removes a document by ID. It returns nil if the row was deleted
	// or did not exist.
	Delete(ctx context.Context, id string) error
}
