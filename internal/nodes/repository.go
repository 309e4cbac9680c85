package nodes

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository abstracts the content-tree lookups required by group resolution.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Node, error)
	Create(ctx context.Context, record *Node) (*Node, error)
}

// NewNodeRepository creates a go-repository-bun backed repository for Node entities.
func NewNodeRepository(db *bun.DB) repository.Repository[*Node] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Node]{
		NewRecord: func() *Node { return &Node{} },
		GetID: func(n *Node) uuid.UUID {
			return n.ID
		},
		SetID: func(n *Node, id uuid.UUID) {
			n.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(n *Node) string {
			return n.Slug
		},
	})
}
