package approvals

import (
	"time"

	"github.com/goliatone/go-approvals/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Kind selects the completion behaviour applied when an instance's final step
// is approved. It is stored on the instance so completion can replay after a
// restart without re-deriving the variant.
type Kind string

const (
	// KindPublish schedules the approved node for publication on completion.
	KindPublish Kind = "publish"
	// KindContentReview records completion without touching the node.
	KindContentReview Kind = "content_review"
)

// WorkflowInstance is one approval journey for one content submission.
//
// TotalSteps is set the first time the resolver discovers the step count for
// the active assignment level and never decreases afterwards. Tasks are linked
// through CorrelationID rather than the primary key so task rows survive
// instance re-reads under the same token.
type WorkflowInstance struct {
	bun.BaseModel `bun:"table:approval_instances,alias:ai"`

	ID            uuid.UUID             `bun:",pk,type:uuid"                      json:"id"`
	NodeID        uuid.UUID             `bun:"node_id,notnull,type:uuid"          json:"node_id"`
	AuthorID      uuid.UUID             `bun:"author_id,notnull,type:uuid"        json:"author_id"`
	Comment       string                `bun:"comment"                            json:"comment,omitempty"`
	Kind          Kind                  `bun:"kind,notnull,default:'publish'"     json:"kind"`
	Status        domain.WorkflowStatus `bun:"status"                             json:"status"`
	ScheduledAt   *time.Time            `bun:"scheduled_at,nullzero"              json:"scheduled_at,omitempty"`
	TotalSteps    int                   `bun:"total_steps,notnull,default:0"      json:"total_steps"`
	CorrelationID uuid.UUID             `bun:"correlation_id,notnull,type:uuid"   json:"correlation_id"`
	CreatedAt     time.Time             `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	CompletedAt   *time.Time            `bun:"completed_at,nullzero"              json:"completed_at,omitempty"`

	Tasks []*TaskInstance `bun:"rel:has-many,join:correlation_id=correlation_id" json:"tasks,omitempty"`
}

// TaskInstance is one approval checkpoint within an instance. Step indices are
// zero based and contiguous; at most one task per instance is pending at any
// observation point.
type TaskInstance struct {
	bun.BaseModel `bun:"table:approval_tasks,alias:at"`

	ID            uuid.UUID         `bun:",pk,type:uuid"                    json:"id"`
	CorrelationID uuid.UUID         `bun:"correlation_id,notnull,type:uuid" json:"correlation_id"`
	NodeID        uuid.UUID         `bun:"node_id,notnull,type:uuid"        json:"node_id"`
	StepIndex     int               `bun:"step_index,notnull"               json:"step_index"`
	Status        domain.TaskStatus `bun:"status"                           json:"status"`
	GroupID       *uuid.UUID        `bun:"group_id,type:uuid,nullzero"      json:"group_id,omitempty"`
	ActionedBy    *uuid.UUID        `bun:"actioned_by,type:uuid,nullzero"   json:"actioned_by,omitempty"`
	Comment       string            `bun:"comment"                          json:"comment,omitempty"`
	CreatedAt     time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	CompletedAt   *time.Time        `bun:"completed_at,nullzero"            json:"completed_at,omitempty"`

	Group *ApproverGroup `bun:"rel:belongs-to,join:group_id=id" json:"group,omitempty"`
}

// ApproverGroup is a named set of user identifiers responsible for one
// approval stage. Scoping rules:
//   - NodeID set: explicit assignment for that node.
//   - NodeID nil, ContentTypeID set: assignment for every node of that type.
//   - both nil: the single system-wide default approver.
//
// StepIndex orders the assignments owned by one scope into an approval chain.
type ApproverGroup struct {
	bun.BaseModel `bun:"table:approver_groups,alias:ag"`

	ID            uuid.UUID   `bun:",pk,type:uuid"                       json:"id"`
	Name          string      `bun:"name,notnull"                        json:"name"`
	NodeID        *uuid.UUID  `bun:"node_id,type:uuid,nullzero"          json:"node_id,omitempty"`
	ContentTypeID *uuid.UUID  `bun:"content_type_id,type:uuid,nullzero"  json:"content_type_id,omitempty"`
	StepIndex     int         `bun:"step_index,notnull,default:0"        json:"step_index"`
	MemberIDs     []uuid.UUID `bun:"member_ids,type:jsonb"               json:"member_ids"`
	CreatedAt     time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// IsDefault reports whether the group is the system-wide fallback approver.
func (g *ApproverGroup) IsDefault() bool {
	return g != nil && g.NodeID == nil && g.ContentTypeID == nil
}

// NormalizeKind coerces arbitrary kind strings into a known variant,
// defaulting to publish.
func NormalizeKind(input string) Kind {
	switch Kind(input) {
	case KindContentReview:
		return KindContentReview
	default:
		return KindPublish
	}
}
