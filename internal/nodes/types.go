package nodes

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Node is one entry in the content tree. Depth starts at 1 for root nodes;
// every non-root node carries its parent identifier so callers can walk the
// hierarchy towards the root.
type Node struct {
	bun.BaseModel `bun:"table:content_nodes,alias:cn"`

	ID            uuid.UUID  `bun:",pk,type:uuid"                     json:"id"`
	ParentID      *uuid.UUID `bun:"parent_id,type:uuid,nullzero"      json:"parent_id,omitempty"`
	ContentTypeID uuid.UUID  `bun:"content_type_id,notnull,type:uuid" json:"content_type_id"`
	Depth         int        `bun:"depth,notnull,default:1"           json:"depth"`
	Slug          string     `bun:"slug,notnull"                      json:"slug"`
	Title         string     `bun:"title,notnull"                     json:"title"`
	CreatedBy     uuid.UUID  `bun:"created_by,notnull,type:uuid"      json:"created_by"`
	DeletedAt     *time.Time `bun:"deleted_at,nullzero"               json:"deleted_at,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// IsRoot reports whether the node sits at the top of the content tree.
func (n *Node) IsRoot() bool {
	return n == nil || n.Depth <= 1 || n.ParentID == nil
}
