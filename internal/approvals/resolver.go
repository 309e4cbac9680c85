package approvals

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-approvals/internal/logging"
	"github.com/goliatone/go-approvals/internal/nodes"
	"github.com/goliatone/go-approvals/pkg/interfaces"
	"github.com/google/uuid"
)

// Resolution is the outcome of resolving the responsible group for one step.
// TotalSteps is the number of assignments discovered at the winning level and
// drives the instance's step count.
type Resolution struct {
	Group      *ApproverGroup
	TotalSteps int
}

// ResolutionError reports a failed group resolution for a node and step.
// It indicates missing approver configuration, not a transient fault.
type ResolutionError struct {
	NodeID    uuid.UUID
	StepIndex int
	Reason    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("approvals: cannot resolve approver group for node %s step %d: %v", e.NodeID, e.StepIndex, e.Reason)
}

func (e *ResolutionError) Unwrap() error { return e.Reason }

// Resolver finds the approver group responsible for a given content node and
// approval step. Lookup order: explicit node assignments, nearest ancestor's
// assignments, content-type assignments, the system-wide default.
type Resolver struct {
	groups GroupRepository
	nodes  nodes.Repository
	logger interfaces.Logger
}

// NewResolver builds a Resolver over the group and content-tree stores.
func NewResolver(groups GroupRepository, nodeRepo nodes.Repository, logger interfaces.Logger) *Resolver {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Resolver{groups: groups, nodes: nodeRepo, logger: logger}
}

// Resolve returns the group owning stepIndex for the node, ascending the
// content tree until an assignment level is found. The returned TotalSteps is
// authoritative for the level that produced the group.
func (r *Resolver) Resolve(ctx context.Context, nodeID uuid.UUID, stepIndex int) (*Resolution, error) {
	if stepIndex < 0 {
		return nil, &ResolutionError{NodeID: nodeID, StepIndex: stepIndex, Reason: ErrInvalidInput}
	}

	node, err := r.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return nil, &ResolutionError{NodeID: nodeID, StepIndex: stepIndex, Reason: err}
	}

	// Ascend the tree: the nearest node carrying explicit assignments owns
	// the whole approval chain for its subtree.
	current := node
	for {
		assigned, err := r.groups.ListByNode(ctx, current.ID)
		if err != nil {
			return nil, &ResolutionError{NodeID: nodeID, StepIndex: stepIndex, Reason: err}
		}
		if len(assigned) > 0 {
			return pickStep(nodeID, stepIndex, assigned)
		}
		if current.IsRoot() {
			break
		}
		parent, err := r.nodes.GetByID(ctx, *current.ParentID)
		if err != nil {
			return nil, &ResolutionError{NodeID: nodeID, StepIndex: stepIndex, Reason: err}
		}
		current = parent
	}

	if node.ContentTypeID != uuid.Nil {
		typed, err := r.groups.ListByContentType(ctx, node.ContentTypeID)
		if err != nil {
			return nil, &ResolutionError{NodeID: nodeID, StepIndex: stepIndex, Reason: err}
		}
		if len(typed) > 0 {
			return pickStep(nodeID, stepIndex, typed)
		}
	}

	fallback, err := r.groups.GetDefault(ctx)
	if err != nil {
		if errors.Is(err, ErrNoDefaultGroup) {
			r.logger.Error("approver resolution exhausted every level", "node_id", nodeID, "step_index", stepIndex)
		}
		return nil, &ResolutionError{NodeID: nodeID, StepIndex: stepIndex, Reason: err}
	}

	r.logger.Debug("resolved default approver group",
		"node_id", nodeID,
		"step_index", stepIndex,
		"group_id", fallback.ID,
	)
	return &Resolution{Group: fallback, TotalSteps: 1}, nil
}

// pickStep selects the assignment whose ordinal matches stepIndex from an
// already ordered assignment chain.
func pickStep(nodeID uuid.UUID, stepIndex int, chain []*ApproverGroup) (*Resolution, error) {
	for _, group := range chain {
		if group.StepIndex == stepIndex {
			return &Resolution{Group: group, TotalSteps: len(chain)}, nil
		}
	}
	return nil, &ResolutionError{NodeID: nodeID, StepIndex: stepIndex, Reason: ErrGroupNotFound}
}
