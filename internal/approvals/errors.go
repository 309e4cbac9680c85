package approvals

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInstanceNotFound is returned when no workflow instance matches the
	// provided identifier or correlation token.
	ErrInstanceNotFound = errors.New("approvals: instance not found")
	// ErrTaskNotFound is returned when no task matches the provided identifier.
	ErrTaskNotFound = errors.New("approvals: task not found")
	// ErrGroupNotFound is returned when no approver group matches the lookup.
	ErrGroupNotFound = errors.New("approvals: approver group not found")
	// ErrNoDefaultGroup is returned when the resolver falls through every
	// assignment level and the system-wide default approver is missing.
	ErrNoDefaultGroup = errors.New("approvals: default approver group not configured")
	// ErrWorkflowClosed is returned when an action targets an instance that
	// has already reached a terminal status.
	ErrWorkflowClosed = errors.New("approvals: workflow already closed")
	// ErrNotAuthorized is returned when the acting user is not a member of
	// the pending task's approver group.
	ErrNotAuthorized = errors.New("approvals: user not authorized to action task")
	// ErrInvalidInput is returned for structurally invalid requests.
	ErrInvalidInput = errors.New("approvals: invalid input")
)

// NotFoundError carries the resource and key of a failed lookup while
// unwrapping to the matching sentinel.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("approvals: %s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	switch e.Resource {
	case "task":
		return ErrTaskNotFound
	case "approver_group":
		return ErrGroupNotFound
	default:
		return ErrInstanceNotFound
	}
}

// ClosedError reports an action attempted against a terminal instance.
type ClosedError struct {
	CorrelationID uuid.UUID
	Status        string
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("approvals: instance %s is %s", e.CorrelationID, e.Status)
}

func (e *ClosedError) Unwrap() error { return ErrWorkflowClosed }
