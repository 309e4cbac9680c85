package approvals

import (
	"context"

	"github.com/goliatone/go-approvals/internal/domain"
	"github.com/google/uuid"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// InstanceRepository persists workflow instances.
type InstanceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*WorkflowInstance, error)
	// GetByCorrelation loads the instance owning the correlation token along
	// with its tasks ordered by step index.
	GetByCorrelation(ctx context.Context, token uuid.UUID) (*WorkflowInstance, error)
	Create(ctx context.Context, instance *WorkflowInstance) (*WorkflowInstance, error)
	Update(ctx context.Context, instance *WorkflowInstance) (*WorkflowInstance, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]*WorkflowInstance, int, error)
	ListByStatus(ctx context.Context, status domain.WorkflowStatus, limit, offset int) ([]*WorkflowInstance, int, error)
	ListByNode(ctx context.Context, nodeID uuid.UUID, limit, offset int) ([]*WorkflowInstance, int, error)
}

// TaskRepository persists approval tasks.
type TaskRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*TaskInstance, error)
	Create(ctx context.Context, task *TaskInstance) (*TaskInstance, error)
	Update(ctx context.Context, task *TaskInstance) (*TaskInstance, error)
	// ListByCorrelation returns every task under the token ordered by step.
	ListByCorrelation(ctx context.Context, token uuid.UUID) ([]*TaskInstance, error)
	// ListPendingByGroups returns pending tasks whose group is one of the
	// provided identifiers, newest first.
	ListPendingByGroups(ctx context.Context, groupIDs []uuid.UUID, limit, offset int) ([]*TaskInstance, int, error)
	ListByNode(ctx context.Context, nodeID uuid.UUID, limit, offset int) ([]*TaskInstance, int, error)
	// ListByActionedBy returns tasks the user has approved, rejected or
	// cancelled, newest first.
	ListByActionedBy(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*TaskInstance, int, error)
	// ListAll returns every stored task, newest first.
	ListAll(ctx context.Context, limit, offset int) ([]*TaskInstance, int, error)
}

// GroupRepository persists approver group assignments.
type GroupRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ApproverGroup, error)
	// ListByNode returns the groups explicitly assigned to the node ordered
	// by step index.
	ListByNode(ctx context.Context, nodeID uuid.UUID) ([]*ApproverGroup, error)
	// ListByContentType returns the groups assigned to the content type,
	// excluding node-scoped rows, ordered by step index.
	ListByContentType(ctx context.Context, contentTypeID uuid.UUID) ([]*ApproverGroup, error)
	// GetDefault returns the system-wide fallback group, if configured.
	GetDefault(ctx context.Context) (*ApproverGroup, error)
	// ListByMember returns every group containing the user.
	ListByMember(ctx context.Context, userID uuid.UUID) ([]*ApproverGroup, error)
	List(ctx context.Context, limit, offset int) ([]*ApproverGroup, int, error)
	Create(ctx context.Context, group *ApproverGroup) (*ApproverGroup, error)
	Update(ctx context.Context, group *ApproverGroup) (*ApproverGroup, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ReplaceAll swaps the full assignment set, used by settings import.
	ReplaceAll(ctx context.Context, groups []*ApproverGroup) error
}

// NewInstanceRepository builds the bun-backed instance store.
func NewInstanceRepository(db *bun.DB) repository.Repository[*WorkflowInstance] {
	handlers := repository.ModelHandlers[*WorkflowInstance]{
		NewRecord: func() *WorkflowInstance { return &WorkflowInstance{} },
		GetID: func(record *WorkflowInstance) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *WorkflowInstance, id uuid.UUID) { record.ID = id },
		GetIdentifier: func() string { return "correlation_id" },
		GetIdentifierValue: func(record *WorkflowInstance) string {
			if record == nil {
				return ""
			}
			return record.CorrelationID.String()
		},
	}
	return repository.MustNewRepository[*WorkflowInstance](db, handlers)
}

// NewTaskRepository builds the bun-backed task store.
func NewTaskRepository(db *bun.DB) repository.Repository[*TaskInstance] {
	handlers := repository.ModelHandlers[*TaskInstance]{
		NewRecord: func() *TaskInstance { return &TaskInstance{} },
		GetID: func(record *TaskInstance) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *TaskInstance, id uuid.UUID) { record.ID = id },
		GetIdentifier: func() string { return "id" },
		GetIdentifierValue: func(record *TaskInstance) string {
			if record == nil {
				return ""
			}
			return record.ID.String()
		},
	}
	return repository.MustNewRepository[*TaskInstance](db, handlers)
}

// NewGroupRepository builds the bun-backed approver group store.
func NewGroupRepository(db *bun.DB) repository.Repository[*ApproverGroup] {
	handlers := repository.ModelHandlers[*ApproverGroup]{
		NewRecord: func() *ApproverGroup { return &ApproverGroup{} },
		GetID: func(record *ApproverGroup) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *ApproverGroup, id uuid.UUID) { record.ID = id },
		GetIdentifier: func() string { return "name" },
		GetIdentifierValue: func(record *ApproverGroup) string {
			if record == nil {
				return ""
			}
			return record.Name
		},
	}
	return repository.MustNewRepository[*ApproverGroup](db, handlers)
}
