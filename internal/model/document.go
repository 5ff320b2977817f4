package model

import "time"

// Document represents a stored case file in the system.
// This is a pure domain model with no database-specific dependencies or tags.
// Raw extracted text is discarded after fact extraction; only derived facts
// and this metadata record are persisted.
type Document struct {
	ID          string       `json:"id"`
	CaseID      string       `json:"case_id"`
	Filename    string       `json:"filename"`
	StoragePath string       `json:"storage_path"`
	Size        int64        `json:"size"`
	ContentType string       `json:"content_type"`
	Role        DocumentRole `json:"document_type"`
	CreatedAt   time.Time    `json:"created_at"`
}
