// Package jobs drains the publication scheduler and applies due publish jobs
// to the host's content tree.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-approvals/internal/logging"
	"github.com/goliatone/go-approvals/internal/scheduler"
	"github.com/goliatone/go-approvals/pkg/interfaces"
	"github.com/google/uuid"
)

// Publisher applies a node publication. Host applications implement this to
// flip their own content records live; the default implementation only logs.
type Publisher interface {
	PublishNode(ctx context.Context, nodeID uuid.UUID, runAt time.Time) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, nodeID uuid.UUID, runAt time.Time) error

func (f PublisherFunc) PublishNode(ctx context.Context, nodeID uuid.UUID, runAt time.Time) error {
	return f(ctx, nodeID, runAt)
}

// Worker processes due publish jobs produced by completed approval workflows.
type Worker struct {
	scheduler interfaces.Scheduler
	publisher Publisher
	activity  interfaces.ActivitySink
	logger    interfaces.Logger
	now       func() time.Time
	batchSize int
}

type Option func(*Worker)

func WithClock(clock func() time.Time) Option {
	return func(w *Worker) {
		if clock != nil {
			w.now = clock
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func WithActivitySink(sink interfaces.ActivitySink) Option {
	return func(w *Worker) {
		w.activity = sink
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorker builds a publish worker over the supplied scheduler. A nil
// publisher falls back to logging each publication.
func NewWorker(sched interfaces.Scheduler, publisher Publisher, opts ...Option) *Worker {
	w := &Worker{
		scheduler: sched,
		publisher: publisher,
		logger:    logging.NoOp(),
		now:       time.Now,
		batchSize: 50,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.publisher == nil {
		logger := w.logger
		w.publisher = PublisherFunc(func(_ context.Context, nodeID uuid.UUID, runAt time.Time) error {
			logger.Info("node publication due", "node_id", nodeID, "run_at", runAt)
			return nil
		})
	}
	return w
}

// Process drains one batch of due jobs. Failed jobs are handed back to the
// scheduler so its retry policy decides whether they run again.
func (w *Worker) Process(ctx context.Context) error {
	if w.scheduler == nil {
		return errors.New("jobs: scheduler is nil")
	}
	deadline := w.now()
	due, err := w.scheduler.ListDue(ctx, deadline, w.batchSize)
	if err != nil {
		return err
	}
	for _, job := range due {
		if job == nil {
			continue
		}
		if err := w.handleJob(ctx, job, deadline); err != nil {
			w.logger.Warn("publish job failed",
				"job_id", job.ID,
				"job_type", job.Type,
				"error", err,
			)
			_ = w.scheduler.MarkFailed(ctx, job.ID, err)
			continue
		}
		_ = w.scheduler.MarkDone(ctx, job.ID)
	}
	return nil
}

func (w *Worker) handleJob(ctx context.Context, job *interfaces.Job, now time.Time) error {
	switch job.Type {
	case scheduler.JobTypeNodePublish:
		return w.processNodePublish(ctx, job, now)
	default:
		return nil
	}
}

func (w *Worker) processNodePublish(ctx context.Context, job *interfaces.Job, now time.Time) error {
	nodeID, err := payloadUUID(job.Payload, "node_id")
	if err != nil {
		return err
	}

	runAt := job.RunAt
	if runAt.IsZero() {
		runAt = now
	}
	if err := w.publisher.PublishNode(ctx, nodeID, runAt); err != nil {
		return err
	}

	w.emitActivity(ctx, job, nodeID, now)
	return nil
}

func (w *Worker) emitActivity(ctx context.Context, job *interfaces.Job, nodeID uuid.UUID, now time.Time) {
	if w.activity == nil {
		return
	}

	authorID, _ := payloadUUID(job.Payload, "author_id")
	record := interfaces.ActivityRecord{
		ActorID:    authorID,
		UserID:     authorID,
		Verb:       "approvals.node.published",
		ObjectType: "content_node",
		ObjectID:   nodeID.String(),
		Channel:    "approvals",
		OccurredAt: now,
		Data: map[string]any{
			"job_id":         job.ID,
			"job_type":       job.Type,
			"correlation_id": job.Payload["correlation_id"],
		},
	}
	if err := w.activity.Log(ctx, record); err != nil {
		w.logger.Warn("activity record dropped",
			"verb", record.Verb,
			"node_id", nodeID,
			"error", err,
		)
	}
}

func payloadUUID(payload map[string]any, key string) (uuid.UUID, error) {
	raw, ok := payload[key]
	if !ok {
		return uuid.Nil, fmt.Errorf("jobs: payload missing %s", key)
	}
	value, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("jobs: payload %s is not a string", key)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("jobs: payload %s: %w", key, err)
	}
	return id, nil
}
