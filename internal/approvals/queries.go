package approvals

import (
	"context"

	"github.com/goliatone/go-approvals/internal/domain"
	"github.com/google/uuid"
)

// Queries exposes the read-only projections consumed by backoffice listings.
// None of these mutate workflow state.
type Queries interface {
	// InstanceByCorrelation loads an instance with its ordered task chain.
	InstanceByCorrelation(ctx context.Context, token uuid.UUID) (*WorkflowInstance, error)
	// PendingTasksForUser lists open tasks whose responsible group contains
	// the user, newest first.
	PendingTasksForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*TaskInstance, int, error)
	// TasksByNode lists every task ever opened against a content node.
	TasksByNode(ctx context.Context, nodeID uuid.UUID, limit, offset int) ([]*TaskInstance, int, error)
	// AllTasks lists every stored task, newest first.
	AllTasks(ctx context.Context, limit, offset int) ([]*TaskInstance, int, error)
	// ApprovalsByUser lists tasks the user has acted on.
	ApprovalsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*TaskInstance, int, error)
	// SubmissionsByAuthor lists the workflows a user initiated.
	SubmissionsByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]*WorkflowInstance, int, error)
	// InstancesByStatus lists workflows currently in the given status.
	InstancesByStatus(ctx context.Context, status domain.WorkflowStatus, limit, offset int) ([]*WorkflowInstance, int, error)
	// InstancesByNode lists every workflow opened against a content node.
	InstancesByNode(ctx context.Context, nodeID uuid.UUID, limit, offset int) ([]*WorkflowInstance, int, error)
}

type queries struct {
	instances InstanceRepository
	tasks     TaskRepository
	groups    GroupRepository
}

// NewQueries builds the read-side service over the same stores the engine writes.
func NewQueries(instances InstanceRepository, tasks TaskRepository, groups GroupRepository) Queries {
	return &queries{instances: instances, tasks: tasks, groups: groups}
}

func (q *queries) InstanceByCorrelation(ctx context.Context, token uuid.UUID) (*WorkflowInstance, error) {
	return q.instances.GetByCorrelation(ctx, token)
}

func (q *queries) PendingTasksForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*TaskInstance, int, error) {
	memberships, err := q.groups.ListByMember(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if len(memberships) == 0 {
		return nil, 0, nil
	}
	groupIDs := make([]uuid.UUID, 0, len(memberships))
	for _, group := range memberships {
		groupIDs = append(groupIDs, group.ID)
	}
	return q.tasks.ListPendingByGroups(ctx, groupIDs, limit, offset)
}

func (q *queries) TasksByNode(ctx context.Context, nodeID uuid.UUID, limit, offset int) ([]*TaskInstance, int, error) {
	return q.tasks.ListByNode(ctx, nodeID, limit, offset)
}

func (q *queries) AllTasks(ctx context.Context, limit, offset int) ([]*TaskInstance, int, error) {
	return q.tasks.ListAll(ctx, limit, offset)
}

func (q *queries) ApprovalsByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*TaskInstance, int, error) {
	return q.tasks.ListByActionedBy(ctx, userID, limit, offset)
}

func (q *queries) SubmissionsByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]*WorkflowInstance, int, error) {
	return q.instances.ListByAuthor(ctx, authorID, limit, offset)
}

func (q *queries) InstancesByStatus(ctx context.Context, status domain.WorkflowStatus, limit, offset int) ([]*WorkflowInstance, int, error) {
	return q.instances.ListByStatus(ctx, status, limit, offset)
}

func (q *queries) InstancesByNode(ctx context.Context, nodeID uuid.UUID, limit, offset int) ([]*WorkflowInstance, int, error) {
	return q.instances.ListByNode(ctx, nodeID, limit, offset)
}
