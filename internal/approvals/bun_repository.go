package approvals

import (
	"context"
	"fmt"

	"github.com/goliatone/go-approvals/internal/domain"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunInstanceRepository is the bun-backed instance store used in production wiring.
type BunInstanceRepository struct {
	repo repository.Repository[*WorkflowInstance]
}

// NewBunInstanceRepository constructs an InstanceRepository backed by bun.
func NewBunInstanceRepository(db *bun.DB) *BunInstanceRepository {
	return &BunInstanceRepository{repo: NewInstanceRepository(db)}
}

func (r *BunInstanceRepository) GetByID(ctx context.Context, id uuid.UUID) (*WorkflowInstance, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapStoreError(err, "instance", id.String())
	}
	return record, nil
}

func (r *BunInstanceRepository) GetByCorrelation(ctx context.Context, token uuid.UUID) (*WorkflowInstance, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.correlation_id = ?", token).
				Relation("Tasks", func(q *bun.SelectQuery) *bun.SelectQuery {
					return q.Order("step_index ASC")
				})
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapStoreError(err, "instance", token.String())
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "instance", Key: token.String()}
	}
	return records[0], nil
}

func (r *BunInstanceRepository) Create(ctx context.Context, instance *WorkflowInstance) (*WorkflowInstance, error) {
	created, err := r.repo.Create(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("instance store error: %w", err)
	}
	return created, nil
}

func (r *BunInstanceRepository) Update(ctx context.Context, instance *WorkflowInstance) (*WorkflowInstance, error) {
	updated, err := r.repo.Update(ctx, instance,
		repository.UpdateByID(instance.ID.String()),
		repository.UpdateColumns("status", "scheduled_at", "total_steps", "completed_at", "comment"),
	)
	if err != nil {
		return nil, mapStoreError(err, "instance", instance.ID.String())
	}
	return updated, nil
}

func (r *BunInstanceRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]*WorkflowInstance, int, error) {
	return r.list(ctx, limit, offset, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.author_id = ?", authorID)
	})
}

func (r *BunInstanceRepository) ListByStatus(ctx context.Context, status domain.WorkflowStatus, limit, offset int) ([]*WorkflowInstance, int, error) {
	return r.list(ctx, limit, offset, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.status = ?", string(status))
	})
}

func (r *BunInstanceRepository) ListByNode(ctx context.Context, nodeID uuid.UUID, limit, offset int) ([]*WorkflowInstance, int, error) {
	return r.list(ctx, limit, offset, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.node_id = ?", nodeID)
	})
}

func (r *BunInstanceRepository) list(ctx context.Context, limit, offset int, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]*WorkflowInstance, int, error) {
	records, total, err := r.repo.List(ctx,
		repository.SelectRawProcessor(filter),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("created_at DESC")
		}),
		repository.SelectPaginate(normalizeLimit(limit), normalizeOffset(offset)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("instance store error: %w", err)
	}
	return records, total, nil
}

// BunTaskRepository is the bun-backed task store.
type BunTaskRepository struct {
	repo repository.Repository[*TaskInstance]
}

// NewBunTaskRepository constructs a TaskRepository backed by bun.
func NewBunTaskRepository(db *bun.DB) *BunTaskRepository {
	return &BunTaskRepository{repo: NewTaskRepository(db)}
}

func (r *BunTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*TaskInstance, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapStoreError(err, "task", id.String())
	}
	return record, nil
}

func (r *BunTaskRepository) Create(ctx context.Context, task *TaskInstance) (*TaskInstance, error) {
	created, err := r.repo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("task store error: %w", err)
	}
	return created, nil
}

func (r *BunTaskRepository) Update(ctx context.Context, task *TaskInstance) (*TaskInstance, error) {
	updated, err := r.repo.Update(ctx, task,
		repository.UpdateByID(task.ID.String()),
		repository.UpdateColumns("status", "actioned_by", "comment", "completed_at"),
	)
	if err != nil {
		return nil, mapStoreError(err, "task", task.ID.String())
	}
	return updated, nil
}

func (r *BunTaskRepository) ListByCorrelation(ctx context.Context, token uuid.UUID) ([]*TaskInstance, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.correlation_id = ?", token).
				Order("step_index ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("task store error: %w", err)
	}
	return records, nil
}

func (r *BunTaskRepository) ListPendingByGroups(ctx context.Context, groupIDs []uuid.UUID, limit, offset int) ([]*TaskInstance, int, error) {
	if len(groupIDs) == 0 {
		return nil, 0, nil
	}
	records, total, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.status = ?", string(domain.TaskStatusPendingApproval)).
				Where("?TableAlias.group_id IN (?)", bun.In(groupIDs)).
				Order("created_at DESC")
		}),
		repository.SelectPaginate(normalizeLimit(limit), normalizeOffset(offset)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("task store error: %w", err)
	}
	return records, total, nil
}

func (r *BunTaskRepository) ListByNode(ctx context.Context, nodeID uuid.UUID, limit, offset int) ([]*TaskInstance, int, error) {
	records, total, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.node_id = ?", nodeID).
				Order("created_at DESC").
				Order("step_index ASC")
		}),
		repository.SelectPaginate(normalizeLimit(limit), normalizeOffset(offset)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("task store error: %w", err)
	}
	return records, total, nil
}

func (r *BunTaskRepository) ListByActionedBy(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*TaskInstance, int, error) {
	records, total, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.actioned_by = ?", userID).
				Order("completed_at DESC")
		}),
		repository.SelectPaginate(normalizeLimit(limit), normalizeOffset(offset)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("task store error: %w", err)
	}
	return records, total, nil
}

func (r *BunTaskRepository) ListAll(ctx context.Context, limit, offset int) ([]*TaskInstance, int, error) {
	records, total, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("created_at DESC")
		}),
		repository.SelectPaginate(normalizeLimit(limit), normalizeOffset(offset)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("task store error: %w", err)
	}
	return records, total, nil
}

// BunGroupRepository is the bun-backed approver group store. Group rows are
// read on every resolution, so the repository accepts an optional cache layer.
type BunGroupRepository struct {
	repo repository.Repository[*ApproverGroup]
}

// NewBunGroupRepository constructs a GroupRepository backed by bun.
func NewBunGroupRepository(db *bun.DB) *BunGroupRepository {
	return NewBunGroupRepositoryWithCache(db, nil, nil)
}

// NewBunGroupRepositoryWithCache constructs a GroupRepository backed by bun
// with optional read caching.
func NewBunGroupRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunGroupRepository {
	base := NewGroupRepository(db)
	return &BunGroupRepository{repo: wrapWithCache(base, cacheService, keySerializer)}
}

func (r *BunGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*ApproverGroup, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapStoreError(err, "approver_group", id.String())
	}
	return record, nil
}

func (r *BunGroupRepository) ListByNode(ctx context.Context, nodeID uuid.UUID) ([]*ApproverGroup, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.node_id = ?", nodeID).
				Order("step_index ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("group store error: %w", err)
	}
	return records, nil
}

func (r *BunGroupRepository) ListByContentType(ctx context.Context, contentTypeID uuid.UUID) ([]*ApproverGroup, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.content_type_id = ?", contentTypeID).
				Where("?TableAlias.node_id IS NULL").
				Order("step_index ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("group store error: %w", err)
	}
	return records, nil
}

func (r *BunGroupRepository) GetDefault(ctx context.Context) (*ApproverGroup, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.node_id IS NULL").
				Where("?TableAlias.content_type_id IS NULL").
				Order("step_index ASC")
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("group store error: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoDefaultGroup
	}
	return records[0], nil
}

func (r *BunGroupRepository) ListByMember(ctx context.Context, userID uuid.UUID) ([]*ApproverGroup, error) {
	// Membership lives in a jsonb array, so this filters in memory over the
	// full assignment set. Assignment counts stay small in practice.
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("step_index ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("group store error: %w", err)
	}
	matched := make([]*ApproverGroup, 0, len(records))
	for _, group := range records {
		if IsMember(group, userID) {
			matched = append(matched, group)
		}
	}
	return matched, nil
}

func (r *BunGroupRepository) List(ctx context.Context, limit, offset int) ([]*ApproverGroup, int, error) {
	records, total, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("name ASC").Order("step_index ASC")
		}),
		repository.SelectPaginate(normalizeLimit(limit), normalizeOffset(offset)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("group store error: %w", err)
	}
	return records, total, nil
}

func (r *BunGroupRepository) Create(ctx context.Context, group *ApproverGroup) (*ApproverGroup, error) {
	created, err := r.repo.Create(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("group store error: %w", err)
	}
	return created, nil
}

func (r *BunGroupRepository) Update(ctx context.Context, group *ApproverGroup) (*ApproverGroup, error) {
	updated, err := r.repo.Update(ctx, group,
		repository.UpdateByID(group.ID.String()),
		repository.UpdateColumns("name", "node_id", "content_type_id", "step_index", "member_ids", "updated_at"),
	)
	if err != nil {
		return nil, mapStoreError(err, "approver_group", group.ID.String())
	}
	return updated, nil
}

func (r *BunGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.repo.Delete(ctx, &ApproverGroup{ID: id}); err != nil {
		return mapStoreError(err, "approver_group", id.String())
	}
	return nil
}

// ReplaceAll swaps the full assignment set. Settings import calls this after
// validating the incoming document.
func (r *BunGroupRepository) ReplaceAll(ctx context.Context, groups []*ApproverGroup) error {
	existing, _, err := r.List(ctx, 0, 0)
	if err != nil {
		return err
	}
	for _, group := range existing {
		if err := r.Delete(ctx, group.ID); err != nil {
			return err
		}
	}
	for _, group := range groups {
		if _, err := r.Create(ctx, group); err != nil {
			return err
		}
	}
	return nil
}

func mapStoreError(err error, resource, key string) error {
	if err == nil {
		return nil
	}

	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}

	return fmt.Errorf("%s store error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
