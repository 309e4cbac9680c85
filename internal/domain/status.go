package domain

import "strings"

// WorkflowStatus represents lifecycle states for approval workflow instances.
type WorkflowStatus string

const (
	// WorkflowStatusPendingApproval marks an instance waiting on a human decision.
	WorkflowStatusPendingApproval WorkflowStatus = "pending_approval"
	// WorkflowStatusApproved marks an instance whose current step was approved.
	WorkflowStatusApproved WorkflowStatus = "approved"
	// WorkflowStatusRejected marks an instance terminated by a rejection.
	WorkflowStatusRejected WorkflowStatus = "rejected"
	// WorkflowStatusCancelled marks an instance terminated by its author or an admin.
	WorkflowStatusCancelled WorkflowStatus = "cancelled"
	// WorkflowStatusCompleted marks an instance whose final step was approved.
	WorkflowStatusCompleted WorkflowStatus = "completed"
)

// TaskStatus represents lifecycle states for individual approval tasks.
type TaskStatus string

const (
	// TaskStatusPendingApproval marks a task waiting on the responsible group.
	TaskStatusPendingApproval TaskStatus = "pending_approval"
	// TaskStatusApproved marks a task signed off by a group member.
	TaskStatusApproved TaskStatus = "approved"
	// TaskStatusRejected marks a task declined by a group member.
	TaskStatusRejected TaskStatus = "rejected"
	// TaskStatusNotRequired marks a task auto-resolved because the author belongs
	// to the responsible group.
	TaskStatusNotRequired TaskStatus = "not_required"
	// TaskStatusCancelled marks a task closed by a workflow cancellation.
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether the workflow status admits no further transitions.
func (s WorkflowStatus) IsTerminal() bool {
	switch s {
	case WorkflowStatusCompleted, WorkflowStatusRejected, WorkflowStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the task status admits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusApproved, TaskStatusRejected, TaskStatusNotRequired, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// NormalizeWorkflowStatus coerces arbitrary status strings into a known representation.
func NormalizeWorkflowStatus(input string) WorkflowStatus {
	return WorkflowStatus(strings.ToLower(strings.TrimSpace(input)))
}

// NormalizeTaskStatus coerces arbitrary status strings into a known representation.
func NormalizeTaskStatus(input string) TaskStatus {
	return TaskStatus(strings.ToLower(strings.TrimSpace(input)))
}
