package approvals

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-approvals/internal/logging"
	"github.com/goliatone/go-approvals/internal/scheduler"
	"github.com/goliatone/go-approvals/pkg/interfaces"
)

// CompletionHook runs the terminal action for a fully approved instance. The
// variant is selected by the instance's Kind at creation time, so completion
// behaviour replays correctly after a restart.
type CompletionHook interface {
	Complete(ctx context.Context, instance *WorkflowInstance) error
}

// CompletionHookFunc adapts a function to the CompletionHook interface.
type CompletionHookFunc func(ctx context.Context, instance *WorkflowInstance) error

func (f CompletionHookFunc) Complete(ctx context.Context, instance *WorkflowInstance) error {
	return f(ctx, instance)
}

// HookRegistry maps workflow kinds to their completion behaviour.
type HookRegistry map[Kind]CompletionHook

// Lookup returns the hook for the kind, falling back to a no-op so unknown
// kinds still complete cleanly.
func (r HookRegistry) Lookup(kind Kind) CompletionHook {
	if r != nil {
		if hook, ok := r[kind]; ok && hook != nil {
			return hook
		}
	}
	return CompletionHookFunc(func(context.Context, *WorkflowInstance) error { return nil })
}

// PublishHook schedules the approved node for publication. The publish job is
// keyed by node so re-approving the same node replaces any earlier schedule.
type PublishHook struct {
	scheduler interfaces.Scheduler
	clock     func() time.Time
	logger    interfaces.Logger
}

// NewPublishHook builds the publish completion hook.
func NewPublishHook(sched interfaces.Scheduler, clock func() time.Time, logger interfaces.Logger) *PublishHook {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = logging.NoOp()
	}
	return &PublishHook{scheduler: sched, clock: clock, logger: logger}
}

func (h *PublishHook) Complete(ctx context.Context, instance *WorkflowInstance) error {
	if h.scheduler == nil {
		h.logger.Warn("publish hook invoked without a scheduler, node will not be published",
			"node_id", instance.NodeID,
			"correlation_id", instance.CorrelationID,
		)
		return nil
	}

	runAt := h.clock()
	if instance.ScheduledAt != nil && instance.ScheduledAt.After(runAt) {
		runAt = *instance.ScheduledAt
	}

	job, err := h.scheduler.Enqueue(ctx, interfaces.JobSpec{
		Key:   scheduler.NodePublishJobKey(instance.NodeID),
		Type:  scheduler.JobTypeNodePublish,
		RunAt: runAt,
		Payload: map[string]any{
			"node_id":        instance.NodeID.String(),
			"correlation_id": instance.CorrelationID.String(),
			"author_id":      instance.AuthorID.String(),
		},
	})
	if err != nil {
		return fmt.Errorf("schedule publish for node %s: %w", instance.NodeID, err)
	}

	h.logger.Info("scheduled node publication",
		"node_id", instance.NodeID,
		"correlation_id", instance.CorrelationID,
		"job_id", job.ID,
		"run_at", runAt,
	)
	return nil
}

// ReviewHook records the completion of a content review. Reviews have no
// publication side effect; the durable Completed status is the outcome.
type ReviewHook struct {
	logger interfaces.Logger
}

// NewReviewHook builds the content review completion hook.
func NewReviewHook(logger interfaces.Logger) *ReviewHook {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &ReviewHook{logger: logger}
}

func (h *ReviewHook) Complete(ctx context.Context, instance *WorkflowInstance) error {
	h.logger.Info("content review completed",
		"node_id", instance.NodeID,
		"correlation_id", instance.CorrelationID,
	)
	return nil
}
