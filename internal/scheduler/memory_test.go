package scheduler_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-approvals/internal/scheduler"
	"github.com/goliatone/go-approvals/pkg/interfaces"
	"github.com/google/uuid"
)

func TestEnqueueReplacesJobWithSameKey(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	sched := scheduler.NewInMemory(scheduler.WithClock(func() time.Time { return now }))

	nodeID := uuid.New()
	key := scheduler.NodePublishJobKey(nodeID)

	first, err := sched.Enqueue(ctx, interfaces.JobSpec{
		Key:   key,
		Type:  scheduler.JobTypeNodePublish,
		RunAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	second, err := sched.Enqueue(ctx, interfaces.JobSpec{
		Key:   key,
		Type:  scheduler.JobTypeNodePublish,
		RunAt: now.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected replacement to allocate a new job id")
	}

	stored, err := sched.GetByKey(ctx, key)
	if err != nil {
		t.Fatalf("get by key: %v", err)
	}
	if !stored.RunAt.Equal(now.Add(2 * time.Hour)) {
		t.Fatalf("run at = %s, want the replacement schedule", stored.RunAt)
	}
	if _, err := sched.Get(ctx, first.ID); err != interfaces.ErrJobNotFound {
		t.Fatalf("expected original job to be dropped, got %v", err)
	}
}

func TestCancelByKeyStopsPendingJob(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	sched := scheduler.NewInMemory(scheduler.WithClock(func() time.Time { return now }))

	key := scheduler.NodePublishJobKey(uuid.New())
	if _, err := sched.Enqueue(ctx, interfaces.JobSpec{
		Key:   key,
		Type:  scheduler.JobTypeNodePublish,
		RunAt: now.Add(-time.Minute),
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if err := sched.CancelByKey(ctx, key); err != nil {
		t.Fatalf("cancel by key: %v", err)
	}

	due, err := sched.ListDue(ctx, now, 10)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(due) != 0 {
		t.Fatalf("expected no due jobs after cancellation, got %d", len(due))
	}
	if _, err := sched.GetByKey(ctx, key); err != interfaces.ErrJobNotFound {
		t.Fatalf("expected key to be released, got %v", err)
	}
}

func TestEnqueueRequiresRunAt(t *testing.T) {
	sched := scheduler.NewInMemory()
	if _, err := sched.Enqueue(context.Background(), interfaces.JobSpec{Type: scheduler.JobTypeNodePublish}); err == nil {
		t.Fatal("expected error for zero run_at")
	}
}
