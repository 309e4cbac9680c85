package nodes

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunNodeRepository is the bun-backed content tree lookup used in production wiring.
type BunNodeRepository struct {
	repo repository.Repository[*Node]
}

// NewBunNodeRepository constructs a Repository backed by bun.
func NewBunNodeRepository(db *bun.DB) *BunNodeRepository {
	return NewBunNodeRepositoryWithCache(db, nil, nil)
}

// NewBunNodeRepositoryWithCache constructs a Repository backed by bun with optional caching.
// Node rows change rarely relative to how often the resolver walks them, so a
// cached wrapper pays off during multi-step resolution.
func NewBunNodeRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunNodeRepository {
	base := NewNodeRepository(db)
	return &BunNodeRepository{repo: wrapWithCache(base, cacheService, keySerializer)}
}

func (r *BunNodeRepository) GetByID(ctx context.Context, id uuid.UUID) (*Node, error) {
	record, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, id.String())
	}
	return record, nil
}

func (r *BunNodeRepository) Create(ctx context.Context, record *Node) (*Node, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("node repository error: %w", err)
	}
	return created, nil
}

func mapRepositoryError(err error, key string) error {
	if err == nil {
		return nil
	}

	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NodeNotFoundError{Key: key}
	}

	return fmt.Errorf("node repository error: %w", err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
