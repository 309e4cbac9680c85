package approvals_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-approvals/internal/approvals"
	"github.com/goliatone/go-approvals/internal/nodes"
	"github.com/google/uuid"
)

type resolverFixture struct {
	resolver *approvals.Resolver
	groups   *approvals.MemoryGroupRepository
	nodes    *nodes.MemoryNodeRepository
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	groups := approvals.NewMemoryGroupRepository()
	nodeRepo := nodes.NewMemoryNodeRepository()
	return &resolverFixture{
		resolver: approvals.NewResolver(groups, nodeRepo, nil),
		groups:   groups,
		nodes:    nodeRepo,
	}
}

func (f *resolverFixture) putNode(id uuid.UUID, parentID *uuid.UUID, contentTypeID uuid.UUID, depth int) {
	f.nodes.Put(&nodes.Node{
		ID:            id,
		ParentID:      parentID,
		ContentTypeID: contentTypeID,
		Depth:         depth,
		Slug:          id.String(),
	})
}

func TestResolvePrefersExplicitNodeAssignments(t *testing.T) {
	fixture := newResolverFixture(t)
	ctx := context.Background()

	nodeID := uuid.New()
	fixture.putNode(nodeID, nil, uuid.New(), 1)

	first := &approvals.ApproverGroup{ID: uuid.New(), Name: "First", NodeID: &nodeID, StepIndex: 0, MemberIDs: []uuid.UUID{uuid.New()}}
	second := &approvals.ApproverGroup{ID: uuid.New(), Name: "Second", NodeID: &nodeID, StepIndex: 1, MemberIDs: []uuid.UUID{uuid.New()}}
	fixture.groups.Put(first)
	fixture.groups.Put(second)
	fixture.groups.Put(&approvals.ApproverGroup{ID: uuid.New(), Name: "Default", MemberIDs: []uuid.UUID{uuid.New()}})

	resolution, err := fixture.resolver.Resolve(ctx, nodeID, 1)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolution.Group.ID != second.ID {
		t.Fatalf("resolved group = %q, want Second", resolution.Group.Name)
	}
	if resolution.TotalSteps != 2 {
		t.Fatalf("TotalSteps = %d, want 2", resolution.TotalSteps)
	}
}

func TestResolveAscendsToNearestAncestorWithAssignments(t *testing.T) {
	fixture := newResolverFixture(t)
	ctx := context.Background()

	contentType := uuid.New()
	rootID := uuid.New()
	midID := uuid.New()
	leafID := uuid.New()
	fixture.putNode(rootID, nil, contentType, 1)
	fixture.putNode(midID, &rootID, contentType, 2)
	fixture.putNode(leafID, &midID, contentType, 3)

	rootGroup := &approvals.ApproverGroup{ID: uuid.New(), Name: "Root Owners", NodeID: &rootID, StepIndex: 0, MemberIDs: []uuid.UUID{uuid.New()}}
	fixture.groups.Put(rootGroup)

	resolution, err := fixture.resolver.Resolve(ctx, leafID, 0)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolution.Group.ID != rootGroup.ID {
		t.Fatalf("resolved group = %q, want Root Owners", resolution.Group.Name)
	}
}

func TestResolveStepOutsideChainIsConfigurationError(t *testing.T) {
	fixture := newResolverFixture(t)
	ctx := context.Background()

	nodeID := uuid.New()
	fixture.putNode(nodeID, nil, uuid.New(), 1)
	fixture.groups.Put(&approvals.ApproverGroup{ID: uuid.New(), Name: "Only", NodeID: &nodeID, StepIndex: 0, MemberIDs: []uuid.UUID{uuid.New()}})

	_, err := fixture.resolver.Resolve(ctx, nodeID, 3)
	if !errors.Is(err, approvals.ErrGroupNotFound) {
		t.Fatalf("Resolve() error = %v, want ErrGroupNotFound", err)
	}
}

func TestResolveContentTypeExcludesNodeScopedRows(t *testing.T) {
	fixture := newResolverFixture(t)
	ctx := context.Background()

	contentType := uuid.New()
	nodeID := uuid.New()
	otherNode := uuid.New()
	fixture.putNode(nodeID, nil, contentType, 1)
	fixture.putNode(otherNode, nil, contentType, 1)

	// A node-scoped row for a different node must not leak into the
	// content-type chain.
	fixture.groups.Put(&approvals.ApproverGroup{ID: uuid.New(), Name: "Other Node", NodeID: &otherNode, ContentTypeID: &contentType, StepIndex: 0, MemberIDs: []uuid.UUID{uuid.New()}})
	typeGroup := &approvals.ApproverGroup{ID: uuid.New(), Name: "Type Chain", ContentTypeID: &contentType, StepIndex: 0, MemberIDs: []uuid.UUID{uuid.New()}}
	fixture.groups.Put(typeGroup)

	resolution, err := fixture.resolver.Resolve(ctx, nodeID, 0)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolution.Group.ID != typeGroup.ID {
		t.Fatalf("resolved group = %q, want Type Chain", resolution.Group.Name)
	}
	if resolution.TotalSteps != 1 {
		t.Fatalf("TotalSteps = %d, want 1", resolution.TotalSteps)
	}
}

func TestResolveUnknownNodeFails(t *testing.T) {
	fixture := newResolverFixture(t)
	ctx := context.Background()

	_, err := fixture.resolver.Resolve(ctx, uuid.New(), 0)
	if !errors.Is(err, nodes.ErrNodeNotFound) {
		t.Fatalf("Resolve() error = %v, want ErrNodeNotFound", err)
	}
}

func TestResolveNegativeStepIsRejected(t *testing.T) {
	fixture := newResolverFixture(t)
	ctx := context.Background()

	_, err := fixture.resolver.Resolve(ctx, uuid.New(), -1)
	if !errors.Is(err, approvals.ErrInvalidInput) {
		t.Fatalf("Resolve() error = %v, want ErrInvalidInput", err)
	}
}
