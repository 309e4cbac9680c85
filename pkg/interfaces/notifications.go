package interfaces

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotificationKind identifies the typed emails dispatched for workflow events.
type NotificationKind string

const (
	// NotificationApprovalRequest asks the responsible group to review a submission.
	NotificationApprovalRequest NotificationKind = "approval_request"
	// NotificationApprovalRejection informs the author their submission was declined.
	NotificationApprovalRejection NotificationKind = "approval_rejection"
	// NotificationWorkflowCancelled informs participants the workflow was withdrawn.
	NotificationWorkflowCancelled NotificationKind = "workflow_cancelled"
)

// Notification carries the context a delivery channel needs to render a
// workflow email. It is a read-only snapshot of the instance at dispatch time.
type Notification struct {
	Kind          NotificationKind
	InstanceID    uuid.UUID
	CorrelationID uuid.UUID
	NodeID        uuid.UUID
	AuthorID      uuid.UUID
	GroupID       uuid.UUID
	GroupName     string
	StepIndex     int
	Status        string
	Comment       string
	OccurredAt    time.Time
}

// Notifier dispatches workflow notifications. The engine treats deliveries as
// fire-and-forget: a returned error is logged but never rolls back the
// workflow mutation that triggered it.
type Notifier interface {
	Send(ctx context.Context, notification Notification) error
}
