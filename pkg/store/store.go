// Package store persists folded pathways for later retrieval through
// the API. MongoStore is the production backend; MemoryStore backs
// tests and deployments without a database.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/storyfold/pkg/errors"
	"github.com/matzehuels/storyfold/pkg/graph"
)

// Pathway is a stored folding result.
type Pathway struct {
	ID        string      `bson:"_id" json:"id"`
	EOI       string      `bson:"eoi" json:"eoi"`
	Policy    string      `bson:"policy" json:"policy"`
	Hash      string      `bson:"hash" json:"hash"`
	Stories   int         `bson:"stories" json:"stories"`
	Graph     graph.Graph `bson:"graph" json:"graph"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}

// Store is the persistence interface for pathways.
type Store interface {
	// Save persists a pathway. A missing ID is assigned.
	Save(ctx context.Context, p *Pathway) error

	// Get retrieves a pathway by ID. Returns ErrCodePathwayNotFound
	// when it does not exist.
	Get(ctx context.Context, id string) (*Pathway, error)

	// List returns pathways, newest first, optionally filtered by EOI.
	List(ctx context.Context, eoi string, limit int) ([]*Pathway, error)

	// Delete removes a pathway by ID.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// prepare assigns server-side fields before a save.
func prepare(p *Pathway) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}

func notFound(id string) error {
	return errors.New(errors.ErrCodePathwayNotFound, "pathway %s not found", id)
}
