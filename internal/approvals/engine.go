package approvals

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-approvals/internal/domain"
	"github.com/goliatone/go-approvals/internal/logging"
	"github.com/goliatone/go-approvals/internal/nodes"
	"github.com/goliatone/go-approvals/pkg/interfaces"
	"github.com/google/uuid"
)

// Action is a human decision applied to a pending approval task.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// InitiateInput carries a new submission into the engine.
type InitiateInput struct {
	NodeID      uuid.UUID
	AuthorID    uuid.UUID
	Comment     string
	Kind        Kind
	ScheduledAt *time.Time
}

// Engine is the approval workflow state machine. Operations run to completion
// against one instance; concurrent calls against the same correlation token
// are serialized internally.
type Engine interface {
	// Initiate opens a workflow for a content node, creates the step-0 task,
	// and auto-advances through every step whose group contains the author.
	Initiate(ctx context.Context, input InitiateInput) (*WorkflowInstance, error)
	// Action applies an approve or reject decision to the instance's pending
	// task. The instance must be in pending approval.
	Action(ctx context.Context, instance *WorkflowInstance, action Action, userID uuid.UUID, comment string) (*WorkflowInstance, error)
	// Cancel withdraws the workflow, cancelling any pending task.
	Cancel(ctx context.Context, instance *WorkflowInstance, userID uuid.UUID, reason string) (*WorkflowInstance, error)
	// Status reports the current workflow status for a correlation token.
	Status(ctx context.Context, token uuid.UUID) (domain.WorkflowStatus, error)
}

type engine struct {
	instances InstanceRepository
	tasks     TaskRepository
	groups    GroupRepository
	factory   *TaskFactory
	notifier  interfaces.Notifier
	activity  interfaces.ActivitySink
	hooks     HookRegistry
	locks     *keyedMutex
	clock     func() time.Time
	idgen     func() uuid.UUID
	delay     time.Duration
	logger    interfaces.Logger
}

// EngineOption configures the engine.
type EngineOption func(*engine)

// WithClock overrides the time source, used by tests for deterministic timestamps.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithIDGenerator overrides instance, task, and correlation token generation.
func WithIDGenerator(idgen func() uuid.UUID) EngineOption {
	return func(e *engine) {
		if idgen != nil {
			e.idgen = idgen
		}
	}
}

// WithNotifier installs the delivery channel for workflow notifications.
func WithNotifier(notifier interfaces.Notifier) EngineOption {
	return func(e *engine) { e.notifier = notifier }
}

// WithActivitySink installs the audit trail sink.
func WithActivitySink(sink interfaces.ActivitySink) EngineOption {
	return func(e *engine) { e.activity = sink }
}

// WithCompletionHook registers the terminal behaviour for a workflow kind.
func WithCompletionHook(kind Kind, hook CompletionHook) EngineOption {
	return func(e *engine) {
		if e.hooks == nil {
			e.hooks = HookRegistry{}
		}
		e.hooks[kind] = hook
	}
}

// WithPublishDelay sets the gap between approval and scheduled publication
// applied when the submission does not carry an explicit date.
func WithPublishDelay(delay time.Duration) EngineOption {
	return func(e *engine) {
		if delay >= 0 {
			e.delay = delay
		}
	}
}

// WithEngineLogger overrides the engine logger.
func WithEngineLogger(logger interfaces.Logger) EngineOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine wires the workflow state machine over its stores. The content
// tree lookup feeds group resolution only.
func NewEngine(
	instances InstanceRepository,
	tasks TaskRepository,
	groups GroupRepository,
	nodeRepo nodes.Repository,
	opts ...EngineOption,
) Engine {
	e := &engine{
		instances: instances,
		tasks:     tasks,
		groups:    groups,
		hooks:     HookRegistry{},
		locks:     newKeyedMutex(),
		clock:     time.Now,
		idgen:     uuid.New,
		logger:    logging.NoOp(),
	}
	for _, opt := range opts {
		opt(e)
	}

	resolver := NewResolver(groups, nodeRepo, e.logger)
	e.factory = NewTaskFactory(tasks, instances, resolver, e.clock, e.idgen)
	return e
}

func (e *engine) Initiate(ctx context.Context, input InitiateInput) (*WorkflowInstance, error) {
	if input.NodeID == uuid.Nil {
		return nil, fmt.Errorf("%w: node id is required", ErrInvalidInput)
	}
	if input.AuthorID == uuid.Nil {
		return nil, fmt.Errorf("%w: author id is required", ErrInvalidInput)
	}

	now := e.clock()
	instance := &WorkflowInstance{
		ID:            e.idgen(),
		NodeID:        input.NodeID,
		AuthorID:      input.AuthorID,
		Comment:       input.Comment,
		Kind:          NormalizeKind(string(input.Kind)),
		CorrelationID: e.idgen(),
		CreatedAt:     now,
	}
	instance.ScheduledAt = e.scheduleFor(instance, input.ScheduledAt, now)

	unlock := e.locks.Lock(instance.CorrelationID)
	defer unlock()

	created, err := e.instances.Create(ctx, instance)
	if err != nil {
		return nil, err
	}

	task, err := e.factory.CreateTask(ctx, created)
	if err != nil {
		return nil, err
	}

	e.logger.Info("workflow initiated",
		"correlation_id", created.CorrelationID,
		"node_id", created.NodeID,
		"author_id", created.AuthorID,
		"kind", created.Kind,
	)
	e.audit(ctx, created, created.AuthorID, "approvals.workflow.initiated", nil)

	return e.advance(ctx, created, task)
}

func (e *engine) Action(ctx context.Context, instance *WorkflowInstance, action Action, userID uuid.UUID, comment string) (*WorkflowInstance, error) {
	if instance == nil {
		return nil, fmt.Errorf("%w: no instance supplied", ErrInstanceNotFound)
	}
	if action != ActionApprove && action != ActionReject {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}

	unlock := e.locks.Lock(instance.CorrelationID)
	defer unlock()

	current, err := e.instances.GetByCorrelation(ctx, instance.CorrelationID)
	if err != nil {
		return nil, err
	}
	if current.Status != domain.WorkflowStatusPendingApproval {
		return nil, &ClosedError{CorrelationID: current.CorrelationID, Status: string(current.Status)}
	}

	task := activeTask(current)
	if task == nil {
		return nil, &NotFoundError{Resource: "task", Key: current.CorrelationID.String()}
	}
	if err := e.hydrateGroup(ctx, task); err != nil {
		return nil, err
	}
	if !IsMember(task.Group, userID) {
		return nil, fmt.Errorf("%w: user %s is not in group %q", ErrNotAuthorized, userID, task.Group.Name)
	}

	switch action {
	case ActionReject:
		return e.reject(ctx, current, task, userID, comment)
	default:
		return e.approve(ctx, current, task, userID, comment)
	}
}

func (e *engine) Cancel(ctx context.Context, instance *WorkflowInstance, userID uuid.UUID, reason string) (*WorkflowInstance, error) {
	if instance == nil {
		return nil, fmt.Errorf("%w: no instance supplied", ErrInstanceNotFound)
	}

	unlock := e.locks.Lock(instance.CorrelationID)
	defer unlock()

	current, err := e.instances.GetByCorrelation(ctx, instance.CorrelationID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, &ClosedError{CorrelationID: current.CorrelationID, Status: string(current.Status)}
	}

	now := e.clock()
	var cancelled *TaskInstance
	if task := activeTask(current); task != nil {
		task.Status = domain.TaskStatusCancelled
		task.ActionedBy = &userID
		task.Comment = reason
		task.CompletedAt = &now
		if _, err := e.tasks.Update(ctx, task); err != nil {
			return nil, err
		}
		cancelled = task
	}

	current.Status = domain.WorkflowStatusCancelled
	current.CompletedAt = &now
	updated, err := e.instances.Update(ctx, current)
	if err != nil {
		return nil, err
	}
	updated.Tasks = current.Tasks

	e.logger.Info("workflow cancelled",
		"correlation_id", updated.CorrelationID,
		"node_id", updated.NodeID,
		"user_id", userID,
	)
	e.notify(ctx, interfaces.NotificationWorkflowCancelled, updated, cancelled, reason)
	e.audit(ctx, updated, userID, "approvals.workflow.cancelled", map[string]any{"reason": reason})

	return updated, nil
}

func (e *engine) Status(ctx context.Context, token uuid.UUID) (domain.WorkflowStatus, error) {
	current, err := e.instances.GetByCorrelation(ctx, token)
	if err != nil {
		return "", err
	}
	return current.Status, nil
}

func (e *engine) approve(ctx context.Context, instance *WorkflowInstance, task *TaskInstance, userID uuid.UUID, comment string) (*WorkflowInstance, error) {
	now := e.clock()
	if task.Status == domain.TaskStatusPendingApproval {
		task.Status = domain.TaskStatusApproved
	}
	task.ActionedBy = &userID
	task.Comment = comment
	task.CompletedAt = &now
	if _, err := e.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	e.logger.Info("task approved",
		"correlation_id", instance.CorrelationID,
		"step_index", task.StepIndex,
		"user_id", userID,
	)
	e.audit(ctx, instance, userID, "approvals.task.approved", map[string]any{"step_index": task.StepIndex})

	if instance.TotalSteps > len(instance.Tasks) {
		next, err := e.factory.CreateTask(ctx, instance)
		if err != nil {
			return nil, err
		}
		return e.advance(ctx, instance, next)
	}
	return e.complete(ctx, instance)
}

func (e *engine) reject(ctx context.Context, instance *WorkflowInstance, task *TaskInstance, userID uuid.UUID, comment string) (*WorkflowInstance, error) {
	now := e.clock()
	task.Status = domain.TaskStatusRejected
	task.ActionedBy = &userID
	task.Comment = comment
	task.CompletedAt = &now
	if _, err := e.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	instance.Status = domain.WorkflowStatusRejected
	instance.CompletedAt = &now
	updated, err := e.instances.Update(ctx, instance)
	if err != nil {
		return nil, err
	}
	updated.Tasks = instance.Tasks

	e.logger.Info("workflow rejected",
		"correlation_id", updated.CorrelationID,
		"step_index", task.StepIndex,
		"user_id", userID,
	)
	e.notify(ctx, interfaces.NotificationApprovalRejection, updated, task, comment)
	e.audit(ctx, updated, userID, "approvals.workflow.rejected", map[string]any{"step_index": task.StepIndex})

	return updated, nil
}

// advance drives the pending/auto-resolve branching for a freshly created
// task. Steps whose group contains the author resolve without a human action;
// the loop opens subsequent tasks until a human step is reached or every
// required step is exhausted.
func (e *engine) advance(ctx context.Context, instance *WorkflowInstance, task *TaskInstance) (*WorkflowInstance, error) {
	for {
		if RequiresApproval(task, instance.AuthorID) {
			instance.Status = domain.WorkflowStatusPendingApproval
			updated, err := e.instances.Update(ctx, instance)
			if err != nil {
				return nil, err
			}
			updated.Tasks = instance.Tasks

			e.notify(ctx, interfaces.NotificationApprovalRequest, updated, task, instance.Comment)
			return updated, nil
		}

		now := e.clock()
		task.Status = domain.TaskStatusNotRequired
		task.Comment = fmt.Sprintf("Approval at stage %d not required", task.StepIndex+1)
		task.CompletedAt = &now
		if _, err := e.tasks.Update(ctx, task); err != nil {
			return nil, err
		}
		e.logger.Debug("task auto-resolved",
			"correlation_id", instance.CorrelationID,
			"step_index", task.StepIndex,
		)

		if instance.TotalSteps > len(instance.Tasks) {
			next, err := e.factory.CreateTask(ctx, instance)
			if err != nil {
				return nil, err
			}
			task = next
			continue
		}
		return e.complete(ctx, instance)
	}
}

// complete marks the instance terminal and runs the kind-specific hook. The
// status write lands before the hook so completion survives hook failures;
// a hook error still surfaces to the caller.
func (e *engine) complete(ctx context.Context, instance *WorkflowInstance) (*WorkflowInstance, error) {
	now := e.clock()
	instance.Status = domain.WorkflowStatusCompleted
	instance.CompletedAt = &now
	updated, err := e.instances.Update(ctx, instance)
	if err != nil {
		return nil, err
	}
	updated.Tasks = instance.Tasks

	e.logger.Info("workflow completed",
		"correlation_id", updated.CorrelationID,
		"node_id", updated.NodeID,
		"kind", updated.Kind,
	)
	e.audit(ctx, updated, updated.AuthorID, "approvals.workflow.completed", nil)

	if err := e.hooks.Lookup(updated.Kind).Complete(ctx, updated); err != nil {
		return nil, fmt.Errorf("completion hook for kind %q: %w", updated.Kind, err)
	}
	return updated, nil
}

// scheduleFor computes the publication date policy: an explicit submission
// date wins, otherwise publish kinds get the configured delay from now.
func (e *engine) scheduleFor(instance *WorkflowInstance, explicit *time.Time, now time.Time) *time.Time {
	if explicit != nil {
		scheduled := *explicit
		return &scheduled
	}
	if instance.Kind != KindPublish || e.delay <= 0 {
		return nil
	}
	scheduled := now.Add(e.delay)
	return &scheduled
}

func (e *engine) hydrateGroup(ctx context.Context, task *TaskInstance) error {
	if task.Group != nil {
		return nil
	}
	if task.GroupID == nil {
		return &NotFoundError{Resource: "approver_group", Key: task.ID.String()}
	}
	group, err := e.groups.GetByID(ctx, *task.GroupID)
	if err != nil {
		return err
	}
	task.Group = group
	return nil
}

// notify dispatches a workflow notification. Delivery failures are logged and
// never roll back the mutation already persisted.
func (e *engine) notify(ctx context.Context, kind interfaces.NotificationKind, instance *WorkflowInstance, task *TaskInstance, comment string) {
	if e.notifier == nil {
		return
	}

	notification := interfaces.Notification{
		Kind:          kind,
		InstanceID:    instance.ID,
		CorrelationID: instance.CorrelationID,
		NodeID:        instance.NodeID,
		AuthorID:      instance.AuthorID,
		Status:        string(instance.Status),
		Comment:       comment,
		OccurredAt:    e.clock(),
	}
	if task != nil {
		notification.StepIndex = task.StepIndex
		if task.GroupID != nil {
			notification.GroupID = *task.GroupID
		}
		if task.Group != nil {
			notification.GroupName = task.Group.Name
		}
	}

	if err := e.notifier.Send(ctx, notification); err != nil {
		e.logger.Error("notification delivery failed",
			"kind", kind,
			"correlation_id", instance.CorrelationID,
			"error", err,
		)
	}
}

// audit records the action on the activity trail. Failures are logged only.
func (e *engine) audit(ctx context.Context, instance *WorkflowInstance, actorID uuid.UUID, verb string, data map[string]any) {
	if e.activity == nil {
		return
	}

	record := interfaces.ActivityRecord{
		ActorID:    actorID,
		UserID:     instance.AuthorID,
		Verb:       verb,
		ObjectType: "approval_workflow",
		ObjectID:   instance.CorrelationID.String(),
		Channel:    "approvals",
		OccurredAt: e.clock(),
		Data:       data,
	}
	if err := e.activity.Log(ctx, record); err != nil {
		e.logger.Warn("activity record dropped",
			"verb", verb,
			"correlation_id", instance.CorrelationID,
			"error", err,
		)
	}
}

// activeTask returns the instance's single open task, preferring the highest
// step index. Terminal tasks are skipped.
func activeTask(instance *WorkflowInstance) *TaskInstance {
	for i := len(instance.Tasks) - 1; i >= 0; i-- {
		task := instance.Tasks[i]
		if task.Status == domain.TaskStatusPendingApproval {
			return task
		}
	}
	return nil
}
