package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sponsorcomplians/ai-qualification-compliance/internal/model"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/repository"
	"github.com/sponsorcomplians/ai-qualification-compliance/internal/storage"
)

var ErrDocumentNotFound = errors.New("document not found")

// downloadURLExpiry bounds how long a presigned evidence link stays valid.
const downloadURLExpiry = 15 * time.Minute

// DocumentService defines the use cases for the evidence files attached to a
// case. Uploads happen through AssessmentService.AssessCase; this service
// covers retrieval and removal.
type DocumentService interface {
	// ListByCase returns a case's documents in upload order.
	ListByCase(ctx context.Context, caseID string) ([]model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// DownloadURL returns a time-limited presigned URL for the document's
	// stored object.
	DownloadURL(ctx context.Context, id string) (string, error)

	// Delete removes a document by ID from both storage and repository.
	Delete(ctx context.Context, id string) error
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store storage.Storage
	repo  repository.DocumentRepository
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository) DocumentService {
	return &documentService{store: store, repo: repo}
}

func (s *documentService) ListByCase(ctx context.Context, caseID string) ([]model.Document, error) {
	if caseID == "" {
		return nil, ErrIDRequired
	}
	return s.repo.ListByCase(ctx, caseID)
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) DownloadURL(ctx context.Context, id string) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, doc.StoragePath, downloadURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return url, nil
}

// Delete removes the stored object first; if that fails the DB row stays so
// the storage reference is not lost.
func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, doc.ID)
}
