package approvals_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-approvals/internal/approvals"
	"github.com/goliatone/go-approvals/internal/domain"
	"github.com/google/uuid"
)

func TestPendingTasksForUser(t *testing.T) {
	ctx := context.Background()
	taskRepo := approvals.NewMemoryTaskRepository()
	instanceRepo := approvals.NewMemoryInstanceRepository(taskRepo)
	groupRepo := approvals.NewMemoryGroupRepository()
	queries := approvals.NewQueries(instanceRepo, taskRepo, groupRepo)

	reviewer := uuid.New()
	mine := &approvals.ApproverGroup{ID: uuid.New(), Name: "Mine", MemberIDs: []uuid.UUID{reviewer}}
	other := &approvals.ApproverGroup{ID: uuid.New(), Name: "Other", MemberIDs: []uuid.UUID{uuid.New()}}
	groupRepo.Put(mine)
	groupRepo.Put(other)

	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	taskRepo.Put(&approvals.TaskInstance{
		ID: uuid.New(), CorrelationID: uuid.New(), NodeID: uuid.New(),
		Status: domain.TaskStatusPendingApproval, GroupID: &mine.ID, CreatedAt: now,
	})
	taskRepo.Put(&approvals.TaskInstance{
		ID: uuid.New(), CorrelationID: uuid.New(), NodeID: uuid.New(),
		Status: domain.TaskStatusPendingApproval, GroupID: &other.ID, CreatedAt: now,
	})
	taskRepo.Put(&approvals.TaskInstance{
		ID: uuid.New(), CorrelationID: uuid.New(), NodeID: uuid.New(),
		Status: domain.TaskStatusApproved, GroupID: &mine.ID, CreatedAt: now,
	})

	tasks, total, err := queries.PendingTasksForUser(ctx, reviewer, 10, 0)
	if err != nil {
		t.Fatalf("PendingTasksForUser() error = %v", err)
	}
	if total != 1 || len(tasks) != 1 {
		t.Fatalf("got %d tasks (total %d), want 1", len(tasks), total)
	}
	if *tasks[0].GroupID != mine.ID {
		t.Fatalf("task group = %s, want %s", tasks[0].GroupID, mine.ID)
	}

	none, total, err := queries.PendingTasksForUser(ctx, uuid.New(), 10, 0)
	if err != nil {
		t.Fatalf("PendingTasksForUser() error = %v", err)
	}
	if total != 0 || len(none) != 0 {
		t.Fatalf("got %d tasks for a user with no memberships, want 0", len(none))
	}
}

func TestSubmissionsByAuthorPagination(t *testing.T) {
	ctx := context.Background()
	taskRepo := approvals.NewMemoryTaskRepository()
	instanceRepo := approvals.NewMemoryInstanceRepository(taskRepo)
	queries := approvals.NewQueries(instanceRepo, taskRepo, approvals.NewMemoryGroupRepository())

	author := uuid.New()
	base := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		instanceRepo.Put(&approvals.WorkflowInstance{
			ID:            uuid.New(),
			NodeID:        uuid.New(),
			AuthorID:      author,
			Status:        domain.WorkflowStatusPendingApproval,
			CorrelationID: uuid.New(),
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
	}
	instanceRepo.Put(&approvals.WorkflowInstance{
		ID: uuid.New(), NodeID: uuid.New(), AuthorID: uuid.New(),
		CorrelationID: uuid.New(), CreatedAt: base,
	})

	page, total, err := queries.SubmissionsByAuthor(ctx, author, 2, 2)
	if err != nil {
		t.Fatalf("SubmissionsByAuthor() error = %v", err)
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	// Newest first: offset 2 of 5 lands on the third most recent.
	want := base.Add(2 * time.Minute)
	if !page[0].CreatedAt.Equal(want) {
		t.Fatalf("page[0].CreatedAt = %v, want %v", page[0].CreatedAt, want)
	}
}

func TestInstancesByStatusAndNode(t *testing.T) {
	ctx := context.Background()
	taskRepo := approvals.NewMemoryTaskRepository()
	instanceRepo := approvals.NewMemoryInstanceRepository(taskRepo)
	queries := approvals.NewQueries(instanceRepo, taskRepo, approvals.NewMemoryGroupRepository())

	nodeID := uuid.New()
	instanceRepo.Put(&approvals.WorkflowInstance{
		ID: uuid.New(), NodeID: nodeID, AuthorID: uuid.New(),
		Status: domain.WorkflowStatusCompleted, CorrelationID: uuid.New(),
	})
	instanceRepo.Put(&approvals.WorkflowInstance{
		ID: uuid.New(), NodeID: nodeID, AuthorID: uuid.New(),
		Status: domain.WorkflowStatusPendingApproval, CorrelationID: uuid.New(),
	})

	completed, total, err := queries.InstancesByStatus(ctx, domain.WorkflowStatusCompleted, 10, 0)
	if err != nil {
		t.Fatalf("InstancesByStatus() error = %v", err)
	}
	if total != 1 || len(completed) != 1 {
		t.Fatalf("completed instances = %d (total %d), want 1", len(completed), total)
	}

	byNode, total, err := queries.InstancesByNode(ctx, nodeID, 10, 0)
	if err != nil {
		t.Fatalf("InstancesByNode() error = %v", err)
	}
	if total != 2 || len(byNode) != 2 {
		t.Fatalf("instances by node = %d (total %d), want 2", len(byNode), total)
	}
}

func TestApprovalsByUserListsActionedTasks(t *testing.T) {
	ctx := context.Background()
	taskRepo := approvals.NewMemoryTaskRepository()
	instanceRepo := approvals.NewMemoryInstanceRepository(taskRepo)
	queries := approvals.NewQueries(instanceRepo, taskRepo, approvals.NewMemoryGroupRepository())

	reviewer := uuid.New()
	base := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		completed := base.Add(time.Duration(i) * time.Minute)
		taskRepo.Put(&approvals.TaskInstance{
			ID: uuid.New(), CorrelationID: uuid.New(), NodeID: uuid.New(),
			Status: domain.TaskStatusApproved, ActionedBy: &reviewer,
			CreatedAt: base, CompletedAt: &completed,
		})
	}
	taskRepo.Put(&approvals.TaskInstance{
		ID: uuid.New(), CorrelationID: uuid.New(), NodeID: uuid.New(),
		Status: domain.TaskStatusPendingApproval, CreatedAt: base,
	})

	tasks, total, err := queries.ApprovalsByUser(ctx, reviewer, 10, 0)
	if err != nil {
		t.Fatalf("ApprovalsByUser() error = %v", err)
	}
	if total != 3 || len(tasks) != 3 {
		t.Fatalf("got %d tasks (total %d), want 3", len(tasks), total)
	}
	// Newest completion first.
	if !tasks[0].CompletedAt.After(*tasks[2].CompletedAt) {
		t.Fatalf("expected newest-first ordering, got %v then %v", tasks[0].CompletedAt, tasks[2].CompletedAt)
	}

	all, total, err := queries.AllTasks(ctx, 2, 0)
	if err != nil {
		t.Fatalf("AllTasks() error = %v", err)
	}
	if total != 4 {
		t.Fatalf("AllTasks total = %d, want 4", total)
	}
	if len(all) != 2 {
		t.Fatalf("AllTasks page = %d, want 2", len(all))
	}
}

func TestNegativeOffsetListsFromStart(t *testing.T) {
	ctx := context.Background()
	taskRepo := approvals.NewMemoryTaskRepository()

	tasks, total, err := taskRepo.ListByNode(ctx, uuid.New(), 10, -1)
	if err != nil {
		t.Fatalf("ListByNode() error = %v", err)
	}
	if total != 0 || len(tasks) != 0 {
		t.Fatalf("got %d tasks (total %d) from an empty store, want 0", len(tasks), total)
	}

	nodeID := uuid.New()
	base := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		taskRepo.Put(&approvals.TaskInstance{
			ID: uuid.New(), CorrelationID: uuid.New(), NodeID: nodeID,
			Status: domain.TaskStatusPendingApproval, StepIndex: i,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	tasks, total, err = taskRepo.ListByNode(ctx, nodeID, 2, -5)
	if err != nil {
		t.Fatalf("ListByNode() error = %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(tasks) != 2 {
		t.Fatalf("page = %d, want 2", len(tasks))
	}

	instanceRepo := approvals.NewMemoryInstanceRepository(taskRepo)
	queries := approvals.NewQueries(instanceRepo, taskRepo, approvals.NewMemoryGroupRepository())
	all, _, err := queries.AllTasks(ctx, 10, -1)
	if err != nil {
		t.Fatalf("AllTasks() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("AllTasks = %d, want 3", len(all))
	}
}
