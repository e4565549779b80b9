package documents

import (
	"context"
	"sort"
	"sync"

	"github.com/KirkDiggler/rpg-community-bot/internal/errors"
	"github.com/KirkDiggler/rpg-community-bot/internal/pkg/clock"
)

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	clock clock.Clock

	mu    sync.RWMutex
	store map[string]map[string]*Document
}

// NewInMemory creates a new in-memory repository. A nil clock uses system time.
func NewInMemory(c clock.Clock) *InMemoryRepository {
	if c == nil {
		c = clock.New()
	}
	return &InMemoryRepository{
		clock: c,
		store: make(map[string]map[string]*Document),
	}
}

// Ensure InMemoryRepository implements Repository
var _ Repository = (*InMemoryRepository)(nil)

// Get retrieves a document
func (r *InMemoryRepository) Get(_ context.Context, input GetInput) (*GetOutput, error) {
	if err := validateKey(input.Collection, input.ID); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.store[input.Collection][input.ID]
	if !ok {
		return nil, notFound(input.Collection, input.ID)
	}

	// Return a copy to prevent external modification
	return &GetOutput{Document: copyDocument(doc)}, nil
}

// Save upserts a document
func (r *InMemoryRepository) Save(_ context.Context, input SaveInput) (*SaveOutput, error) {
	if err := validateKey(input.Collection, input.ID); err != nil {
		return nil, err
	}
	if len(input.Data) == 0 {
		return nil, errors.InvalidArgument(errDataEmpty)
	}

	now := r.clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	coll, ok := r.store[input.Collection]
	if !ok {
		coll = make(map[string]*Document)
		r.store[input.Collection] = coll
	}

	doc := &Document{
		Collection: input.Collection,
		ID:         input.ID,
		Data:       append([]byte(nil), input.Data...),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if existing, ok := coll[input.ID]; ok {
		doc.Version = existing.Version + 1
		doc.CreatedAt = existing.CreatedAt
	}
	coll[input.ID] = doc

	return &SaveOutput{Document: copyDocument(doc)}, nil
}

// List returns the documents of a collection ordered by ID
func (r *InMemoryRepository) List(_ context.Context, input ListInput) (*ListOutput, error) {
	if input.Collection == "" {
		return nil, errors.InvalidArgument(errCollectionEmpty)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	coll := r.store[input.Collection]
	docs := make([]*Document, 0, len(coll))
	for _, doc := range coll {
		docs = append(docs, copyDocument(doc))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	return &ListOutput{Documents: docs}, nil
}

// Delete removes a document
func (r *InMemoryRepository) Delete(_ context.Context, input DeleteInput) (*DeleteOutput, error) {
	if err := validateKey(input.Collection, input.ID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[input.Collection][input.ID]; !ok {
		return nil, notFound(input.Collection, input.ID)
	}
	delete(r.store[input.Collection], input.ID)

	return &DeleteOutput{}, nil
}

func copyDocument(doc *Document) *Document {
	cp := *doc
	cp.Data = append([]byte(nil), doc.Data...)
	return &cp
}
