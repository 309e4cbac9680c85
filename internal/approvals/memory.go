package approvals

import (
	"context"
	"sort"
	"sync"

	"github.com/goliatone/go-approvals/internal/domain"
	"github.com/google/uuid"
)

// MemoryInstanceRepository is an in-memory InstanceRepository used in tests
// and in storage-less deployments.
type MemoryInstanceRepository struct {
	mu    sync.RWMutex
	rows  map[uuid.UUID]*WorkflowInstance
	tasks TaskRepository
}

// NewMemoryInstanceRepository builds the in-memory instance store. When a
// task repository is supplied, GetByCorrelation hydrates the task list the
// same way the bun store does.
func NewMemoryInstanceRepository(tasks TaskRepository) *MemoryInstanceRepository {
	return &MemoryInstanceRepository{
		rows:  map[uuid.UUID]*WorkflowInstance{},
		tasks: tasks,
	}
}

// Put seeds a record directly, bypassing validation.
func (r *MemoryInstanceRepository) Put(instance *WorkflowInstance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[instance.ID] = cloneInstance(instance)
}

func (r *MemoryInstanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*WorkflowInstance, error) {
	r.mu.RLock()
	record, ok := r.rows[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Resource: "instance", Key: id.String()}
	}
	return cloneInstance(record), nil
}

func (r *MemoryInstanceRepository) GetByCorrelation(ctx context.Context, token uuid.UUID) (*WorkflowInstance, error) {
	r.mu.RLock()
	var found *WorkflowInstance
	for _, record := range r.rows {
		if record.CorrelationID == token {
			found = cloneInstance(record)
			break
		}
	}
	r.mu.RUnlock()
	if found == nil {
		return nil, &NotFoundError{Resource: "instance", Key: token.String()}
	}
	if r.tasks != nil {
		tasks, err := r.tasks.ListByCorrelation(ctx, token)
		if err != nil {
			return nil, err
		}
		found.Tasks = tasks
	}
	return found, nil
}

func (r *MemoryInstanceRepository) Create(ctx context.Context, instance *WorkflowInstance) (*WorkflowInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if instance.ID == uuid.Nil {
		instance.ID = uuid.New()
	}
	r.rows[instance.ID] = cloneInstance(instance)
	return cloneInstance(instance), nil
}

func (r *MemoryInstanceRepository) Update(ctx context.Context, instance *WorkflowInstance) (*WorkflowInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[instance.ID]; !ok {
		return nil, &NotFoundError{Resource: "instance", Key: instance.ID.String()}
	}
	r.rows[instance.ID] = cloneInstance(instance)
	return cloneInstance(instance), nil
}

func (r *MemoryInstanceRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]*WorkflowInstance, int, error) {
	return r.filter(limit, offset, func(record *WorkflowInstance) bool {
		return record.AuthorID == authorID
	})
}

func (r *MemoryInstanceRepository) ListByStatus(ctx context.Context, status domain.WorkflowStatus, limit, offset int) ([]*WorkflowInstance, int, error) {
	return r.filter(limit, offset, func(record *WorkflowInstance) bool {
		return record.Status == status
	})
}

func (r *MemoryInstanceRepository) ListByNode(ctx context.Context, nodeID uuid.UUID, limit, offset int) ([]*WorkflowInstance, int, error) {
	return r.filter(limit, offset, func(record *WorkflowInstance) bool {
		return record.NodeID == nodeID
	})
}

func (r *MemoryInstanceRepository) filter(limit, offset int, keep func(*WorkflowInstance) bool) ([]*WorkflowInstance, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*WorkflowInstance, 0, len(r.rows))
	for _, record := range r.rows {
		if keep(record) {
			matched = append(matched, cloneInstance(record))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, limit, offset), len(matched), nil
}

// MemoryTaskRepository is an in-memory TaskRepository.
type MemoryTaskRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*TaskInstance
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{rows: map[uuid.UUID]*TaskInstance{}}
}

// Put seeds a record directly, bypassing validation.
func (r *MemoryTaskRepository) Put(task *TaskInstance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[task.ID] = cloneTask(task)
}

func (r *MemoryTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*TaskInstance, error) {
	r.mu.RLock()
	record, ok := r.rows[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Resource: "task", Key: id.String()}
	}
	return cloneTask(record), nil
}

func (r *MemoryTaskRepository) Create(ctx context.Context, task *TaskInstance) (*TaskInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	r.rows[task.ID] = cloneTask(task)
	return cloneTask(task), nil
}

func (r *MemoryTaskRepository) Update(ctx context.Context, task *TaskInstance) (*TaskInstance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[task.ID]; !ok {
		return nil, &NotFoundError{Resource: "task", Key: task.ID.String()}
	}
	r.rows[task.ID] = cloneTask(task)
	return cloneTask(task), nil
}

func (r *MemoryTaskRepository) ListByCorrelation(ctx context.Context, token uuid.UUID) ([]*TaskInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*TaskInstance, 0, len(r.rows))
	for _, record := range r.rows {
		if record.CorrelationID == token {
			matched = append(matched, cloneTask(record))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StepIndex < matched[j].StepIndex
	})
	return matched, nil
}

func (r *MemoryTaskRepository) ListPendingByGroups(ctx context.Context, groupIDs []uuid.UUID, limit, offset int) ([]*TaskInstance, int, error) {
	wanted := map[uuid.UUID]bool{}
	for _, id := range groupIDs {
		wanted[id] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*TaskInstance, 0, len(r.rows))
	for _, record := range r.rows {
		if record.Status != domain.TaskStatusPendingApproval {
			continue
		}
		if record.GroupID == nil || !wanted[*record.GroupID] {
			continue
		}
		matched = append(matched, cloneTask(record))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, limit, offset), len(matched), nil
}

func (r *MemoryTaskRepository) ListByNode(ctx context.Context, nodeID uuid.UUID, limit, offset int) ([]*TaskInstance, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*TaskInstance, 0, len(r.rows))
	for _, record := range r.rows {
		if record.NodeID == nodeID {
			matched = append(matched, cloneTask(record))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].StepIndex < matched[j].StepIndex
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, limit, offset), len(matched), nil
}

func (r *MemoryTaskRepository) ListByActionedBy(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*TaskInstance, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*TaskInstance, 0, len(r.rows))
	for _, record := range r.rows {
		if record.ActionedBy != nil && *record.ActionedBy == userID {
			matched = append(matched, cloneTask(record))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		left, right := matched[i].CompletedAt, matched[j].CompletedAt
		if left == nil || right == nil {
			return right == nil && left != nil
		}
		return left.After(*right)
	})
	return paginate(matched, limit, offset), len(matched), nil
}

func (r *MemoryTaskRepository) ListAll(ctx context.Context, limit, offset int) ([]*TaskInstance, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*TaskInstance, 0, len(r.rows))
	for _, record := range r.rows {
		matched = append(matched, cloneTask(record))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].StepIndex < matched[j].StepIndex
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, limit, offset), len(matched), nil
}

// MemoryGroupRepository is an in-memory GroupRepository.
type MemoryGroupRepository struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]*ApproverGroup
}

func NewMemoryGroupRepository() *MemoryGroupRepository {
	return &MemoryGroupRepository{rows: map[uuid.UUID]*ApproverGroup{}}
}

// Put seeds a record directly, bypassing validation.
func (r *MemoryGroupRepository) Put(group *ApproverGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[group.ID] = cloneGroup(group)
}

func (r *MemoryGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*ApproverGroup, error) {
	r.mu.RLock()
	record, ok := r.rows[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{Resource: "approver_group", Key: id.String()}
	}
	return cloneGroup(record), nil
}

func (r *MemoryGroupRepository) ListByNode(ctx context.Context, nodeID uuid.UUID) ([]*ApproverGroup, error) {
	return r.collect(func(group *ApproverGroup) bool {
		return group.NodeID != nil && *group.NodeID == nodeID
	}), nil
}

func (r *MemoryGroupRepository) ListByContentType(ctx context.Context, contentTypeID uuid.UUID) ([]*ApproverGroup, error) {
	return r.collect(func(group *ApproverGroup) bool {
		return group.NodeID == nil && group.ContentTypeID != nil && *group.ContentTypeID == contentTypeID
	}), nil
}

func (r *MemoryGroupRepository) GetDefault(ctx context.Context) (*ApproverGroup, error) {
	defaults := r.collect(func(group *ApproverGroup) bool {
		return group.IsDefault()
	})
	if len(defaults) == 0 {
		return nil, ErrNoDefaultGroup
	}
	return defaults[0], nil
}

func (r *MemoryGroupRepository) ListByMember(ctx context.Context, userID uuid.UUID) ([]*ApproverGroup, error) {
	return r.collect(func(group *ApproverGroup) bool {
		return IsMember(group, userID)
	}), nil
}

func (r *MemoryGroupRepository) List(ctx context.Context, limit, offset int) ([]*ApproverGroup, int, error) {
	all := r.collect(func(*ApproverGroup) bool { return true })
	sort.Slice(all, func(i, j int) bool {
		if all[i].Name == all[j].Name {
			return all[i].StepIndex < all[j].StepIndex
		}
		return all[i].Name < all[j].Name
	})
	return paginate(all, limit, offset), len(all), nil
}

func (r *MemoryGroupRepository) Create(ctx context.Context, group *ApproverGroup) (*ApproverGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	r.rows[group.ID] = cloneGroup(group)
	return cloneGroup(group), nil
}

func (r *MemoryGroupRepository) Update(ctx context.Context, group *ApproverGroup) (*ApproverGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[group.ID]; !ok {
		return nil, &NotFoundError{Resource: "approver_group", Key: group.ID.String()}
	}
	r.rows[group.ID] = cloneGroup(group)
	return cloneGroup(group), nil
}

func (r *MemoryGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return &NotFoundError{Resource: "approver_group", Key: id.String()}
	}
	delete(r.rows, id)
	return nil
}

func (r *MemoryGroupRepository) ReplaceAll(ctx context.Context, groups []*ApproverGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = map[uuid.UUID]*ApproverGroup{}
	for _, group := range groups {
		record := cloneGroup(group)
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
		r.rows[record.ID] = record
	}
	return nil
}

func (r *MemoryGroupRepository) collect(keep func(*ApproverGroup) bool) []*ApproverGroup {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*ApproverGroup, 0, len(r.rows))
	for _, group := range r.rows {
		if keep(group) {
			matched = append(matched, cloneGroup(group))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StepIndex < matched[j].StepIndex
	})
	return matched
}

func cloneInstance(in *WorkflowInstance) *WorkflowInstance {
	if in == nil {
		return nil
	}
	out := *in
	if in.ScheduledAt != nil {
		scheduled := *in.ScheduledAt
		out.ScheduledAt = &scheduled
	}
	if in.CompletedAt != nil {
		completed := *in.CompletedAt
		out.CompletedAt = &completed
	}
	if in.Tasks != nil {
		out.Tasks = make([]*TaskInstance, len(in.Tasks))
		for i, task := range in.Tasks {
			out.Tasks[i] = cloneTask(task)
		}
	}
	return &out
}

func cloneTask(in *TaskInstance) *TaskInstance {
	if in == nil {
		return nil
	}
	out := *in
	if in.GroupID != nil {
		gid := *in.GroupID
		out.GroupID = &gid
	}
	if in.ActionedBy != nil {
		actor := *in.ActionedBy
		out.ActionedBy = &actor
	}
	if in.CompletedAt != nil {
		completed := *in.CompletedAt
		out.CompletedAt = &completed
	}
	out.Group = cloneGroup(in.Group)
	return &out
}

func cloneGroup(in *ApproverGroup) *ApproverGroup {
	if in == nil {
		return nil
	}
	out := *in
	if in.NodeID != nil {
		nid := *in.NodeID
		out.NodeID = &nid
	}
	if in.ContentTypeID != nil {
		ctid := *in.ContentTypeID
		out.ContentTypeID = &ctid
	}
	out.MemberIDs = append([]uuid.UUID(nil), in.MemberIDs...)
	return &out
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
