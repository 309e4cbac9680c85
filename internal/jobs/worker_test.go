package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-approvals/internal/jobs"
	"github.com/goliatone/go-approvals/internal/scheduler"
	"github.com/goliatone/go-approvals/pkg/interfaces"
	"github.com/google/uuid"
)

type publishCall struct {
	NodeID uuid.UUID
	RunAt  time.Time
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []publishCall
	err   error
}

func (p *fakePublisher) PublishNode(_ context.Context, nodeID uuid.UUID, runAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, publishCall{NodeID: nodeID, RunAt: runAt})
	return nil
}

type activityCapture struct {
	mu      sync.Mutex
	records []interfaces.ActivityRecord
}

func (a *activityCapture) Log(_ context.Context, record interfaces.ActivityRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestProcessPublishesDueNodes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	sched := scheduler.NewInMemory(scheduler.WithClock(fixedClock(now)))

	nodeID := uuid.New()
	author := uuid.New()
	runAt := now.Add(-time.Minute)
	job, err := sched.Enqueue(ctx, interfaces.JobSpec{
		Key:   scheduler.NodePublishJobKey(nodeID),
		Type:  scheduler.JobTypeNodePublish,
		RunAt: runAt,
		Payload: map[string]any{
			"node_id":        nodeID.String(),
			"correlation_id": uuid.NewString(),
			"author_id":      author.String(),
		},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	publisher := &fakePublisher{}
	activity := &activityCapture{}
	worker := jobs.NewWorker(sched, publisher,
		jobs.WithClock(fixedClock(now)),
		jobs.WithActivitySink(activity),
	)

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(publisher.calls) != 1 {
		t.Fatalf("publish calls = %d, want 1", len(publisher.calls))
	}
	if publisher.calls[0].NodeID != nodeID {
		t.Fatalf("published node = %s, want %s", publisher.calls[0].NodeID, nodeID)
	}
	if !publisher.calls[0].RunAt.Equal(runAt) {
		t.Fatalf("run at = %s, want %s", publisher.calls[0].RunAt, runAt)
	}

	stored, err := sched.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusCompleted {
		t.Fatalf("job status = %q, want completed", stored.Status)
	}

	if len(activity.records) != 1 {
		t.Fatalf("activity records = %d, want 1", len(activity.records))
	}
	record := activity.records[0]
	if record.Verb != "approvals.node.published" {
		t.Fatalf("verb = %q", record.Verb)
	}
	if record.ObjectID != nodeID.String() {
		t.Fatalf("object id = %q, want %s", record.ObjectID, nodeID)
	}
	if record.ActorID != author {
		t.Fatalf("actor = %s, want %s", record.ActorID, author)
	}
}

func TestProcessLeavesFutureJobsPending(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	sched := scheduler.NewInMemory(scheduler.WithClock(fixedClock(now)))

	nodeID := uuid.New()
	job, err := sched.Enqueue(ctx, interfaces.JobSpec{
		Type:    scheduler.JobTypeNodePublish,
		RunAt:   now.Add(time.Hour),
		Payload: map[string]any{"node_id": nodeID.String()},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	publisher := &fakePublisher{}
	worker := jobs.NewWorker(sched, publisher, jobs.WithClock(fixedClock(now)))
	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(publisher.calls) != 0 {
		t.Fatalf("expected no publications, got %d", len(publisher.calls))
	}
	stored, err := sched.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusPending {
		t.Fatalf("job status = %q, want pending", stored.Status)
	}
}

func TestProcessHandsFailuresToRetryPolicy(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	sched := scheduler.NewInMemory(
		scheduler.WithClock(fixedClock(now)),
		scheduler.WithDefaultMaxAttempts(2),
	)

	nodeID := uuid.New()
	job, err := sched.Enqueue(ctx, interfaces.JobSpec{
		Type:    scheduler.JobTypeNodePublish,
		RunAt:   now.Add(-time.Minute),
		Payload: map[string]any{"node_id": nodeID.String()},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	publisher := &fakePublisher{err: errors.New("cdn unreachable")}
	worker := jobs.NewWorker(sched, publisher, jobs.WithClock(fixedClock(now)))

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}
	stored, err := sched.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if stored.Status != interfaces.JobStatusPending {
		t.Fatalf("status after first failure = %q, want pending", stored.Status)
	}
	if stored.LastError != "cdn unreachable" {
		t.Fatalf("last error = %q", stored.LastError)
	}

	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process retry: %v", err)
	}
	stored, err = sched.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job after retry: %v", err)
	}
	if stored.Status != interfaces.JobStatusFailed {
		t.Fatalf("status after retries exhausted = %q, want failed", stored.Status)
	}
}

func TestProcessSkipsBrokenPayloads(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	sched := scheduler.NewInMemory(scheduler.WithClock(fixedClock(now)))

	if _, err := sched.Enqueue(ctx, interfaces.JobSpec{
		Type:    scheduler.JobTypeNodePublish,
		RunAt:   now.Add(-time.Minute),
		Payload: map[string]any{"node_id": "not-a-uuid"},
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	publisher := &fakePublisher{}
	worker := jobs.NewWorker(sched, publisher, jobs.WithClock(fixedClock(now)))
	if err := worker.Process(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(publisher.calls) != 0 {
		t.Fatalf("expected no publications, got %d", len(publisher.calls))
	}
}
