// Package documents provides the document store the profile registry and the
// clash orchestrator persist through. Documents are opaque JSON addressed by
// collection and ID; Save is an upsert.
package documents

//go:generate mockgen -destination=mock/mock_repository.go -package=documentsmock github.com/KirkDiggler/rpg-community-bot/internal/repositories/documents Repository

import (
	"context"
	"encoding/json"
	"time"
)

// Document is a stored JSON payload plus bookkeeping
type Document struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Data       json.RawMessage `json:"data"`

	// Version increments on every save, starting at 1
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository defines the interface for document persistence
type Repository interface {
	// Get retrieves a document
	// Returns errors.InvalidArgument for empty collection or ID
	// Returns errors.NotFound if the document doesn't exist
	// Returns errors.Internal for storage failures
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Save creates the document or replaces the data of an existing one
	// Returns errors.InvalidArgument for empty collection, ID or data
	// Returns errors.Internal for storage failures
	Save(ctx context.Context, input SaveInput) (*SaveOutput, error)

	// List returns every document in a collection
	// Returns errors.InvalidArgument for an empty collection
	// Returns errors.Internal for storage failures
	List(ctx context.Context, input ListInput) (*ListOutput, error)

	// Delete removes a document
	// Returns errors.NotFound if the document doesn't exist
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
}

// GetInput defines the input for getting a document
type GetInput struct {
	Collection string
	ID         string
}

// GetOutput defines the output for getting a document
type GetOutput struct {
	Document *Document
}

// SaveInput defines the input for saving a document
type SaveInput struct {
	Collection string
	ID         string
	Data       json.RawMessage
}

// SaveOutput defines the output for saving a document
type SaveOutput struct {
	Document *Document
}

// ListInput defines the input for listing a collection
type ListInput struct {
	Collection string
}

// ListOutput defines the output for listing a collection
type ListOutput struct {
	Documents []*Document
}

// DeleteInput defines the input for deleting a document
type DeleteInput struct {
	Collection string
	ID         string
}

// DeleteOutput defines the output for deleting a document
type DeleteOutput struct{}
