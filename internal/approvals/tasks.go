package approvals

import (
	"context"
	"time"

	"github.com/goliatone/go-approvals/internal/domain"
	"github.com/google/uuid"
)

// TaskFactory opens the next approval checkpoint on an instance. The new
// task's step index is the count of tasks already attached, keeping indices
// contiguous from zero.
type TaskFactory struct {
	tasks     TaskRepository
	instances InstanceRepository
	resolver  *Resolver
	clock     func() time.Time
	idgen     func() uuid.UUID
}

// NewTaskFactory builds a TaskFactory. Clock and ID generation default to the
// wall clock and random UUIDs.
func NewTaskFactory(tasks TaskRepository, instances InstanceRepository, resolver *Resolver, clock func() time.Time, idgen func() uuid.UUID) *TaskFactory {
	if clock == nil {
		clock = time.Now
	}
	if idgen == nil {
		idgen = uuid.New
	}
	return &TaskFactory{
		tasks:     tasks,
		instances: instances,
		resolver:  resolver,
		clock:     clock,
		idgen:     idgen,
	}
}

// CreateTask resolves the responsible group for the instance's next step,
// persists the new task, and appends it to the instance's task collection.
// When resolution discovers a longer approval chain than the instance has
// recorded, the instance's step count is written through before the task is
// created. The caller must hold the instance's serialization lock.
func (f *TaskFactory) CreateTask(ctx context.Context, instance *WorkflowInstance) (*TaskInstance, error) {
	if instance == nil {
		return nil, ErrInvalidInput
	}

	step := len(instance.Tasks)
	resolution, err := f.resolver.Resolve(ctx, instance.NodeID, step)
	if err != nil {
		return nil, err
	}

	if resolution.TotalSteps > instance.TotalSteps {
		instance.TotalSteps = resolution.TotalSteps
		if _, err := f.instances.Update(ctx, instance); err != nil {
			return nil, err
		}
	}

	task := &TaskInstance{
		ID:            f.idgen(),
		CorrelationID: instance.CorrelationID,
		NodeID:        instance.NodeID,
		StepIndex:     step,
		Status:        domain.TaskStatusPendingApproval,
		GroupID:       &resolution.Group.ID,
		Group:         resolution.Group,
		CreatedAt:     f.clock(),
	}

	created, err := f.tasks.Create(ctx, task)
	if err != nil {
		return nil, err
	}
	// Keep the resolved group hydrated; stores are not required to return it.
	created.Group = resolution.Group

	instance.Tasks = append(instance.Tasks, created)
	return created, nil
}
