package nodes

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryNodeRepository is an in-memory implementation for scaffolding and tests.
type MemoryNodeRepository struct {
	mu    sync.RWMutex
	nodes map[uuid.UUID]*Node
}

// NewMemoryNodeRepository creates an empty in-memory node repository.
func NewMemoryNodeRepository() *MemoryNodeRepository {
	return &MemoryNodeRepository{
		nodes: make(map[uuid.UUID]*Node),
	}
}

// Put inserts or replaces a node.
func (m *MemoryNodeRepository) Put(node *Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *node
	m.nodes[node.ID] = &copied
}

// GetByID retrieves a node by identifier.
func (m *MemoryNodeRepository) GetByID(_ context.Context, id uuid.UUID) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, ok := m.nodes[id]
	if !ok {
		return nil, &NodeNotFoundError{Key: id.String()}
	}
	copied := *node
	return &copied, nil
}

// Create inserts the supplied node.
func (m *MemoryNodeRepository) Create(_ context.Context, record *Node) (*Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *record
	m.nodes[copied.ID] = &copied
	out := copied
	return &out, nil
}
