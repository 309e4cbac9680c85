package workflowcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-approvals/internal/approvals"
	"github.com/goliatone/go-approvals/internal/commands"
	"github.com/goliatone/go-approvals/pkg/interfaces"
	"github.com/google/uuid"
)

const cancelWorkflowMessageType = "approvals.workflow.cancel"

// CancelWorkflowCommand withdraws an in-flight workflow.
type CancelWorkflowCommand struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	UserID        uuid.UUID `json:"user_id"`
	Reason        string    `json:"reason,omitempty"`
}

// Type implements command.Message.
func (CancelWorkflowCommand) Type() string { return cancelWorkflowMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m CancelWorkflowCommand) Validate() error {
	errs := validation.Errors{}
	if m.CorrelationID == uuid.Nil {
		errs["correlation_id"] = validation.NewError("approvals.workflow.cancel.correlation_id_required", "correlation_id is required")
	}
	if m.UserID == uuid.Nil {
		errs["user_id"] = validation.NewError("approvals.workflow.cancel.user_id_required", "user_id is required")
	}
	if err := validation.Validate(m.Reason, validation.Length(0, 2000)); err != nil {
		errs["reason"] = validation.NewError("approvals.workflow.cancel.reason_too_long", "reason must be at most 2000 characters")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CancelWorkflowHandler withdraws workflows using the shared command handler
// foundation.
type CancelWorkflowHandler struct {
	inner *commands.Handler[CancelWorkflowCommand]
}

// NewCancelWorkflowHandler constructs a handler wired to the engine and read side.
func NewCancelWorkflowHandler(engine approvals.Engine, queries approvals.Queries, logger interfaces.Logger, opts ...commands.HandlerOption[CancelWorkflowCommand]) *CancelWorkflowHandler {
	exec := func(ctx context.Context, msg CancelWorkflowCommand) error {
		instance, err := queries.InstanceByCorrelation(ctx, msg.CorrelationID)
		if err != nil {
			return err
		}
		_, err = engine.Cancel(ctx, instance, msg.UserID, msg.Reason)
		return err
	}

	handlerOpts := []commands.HandlerOption[CancelWorkflowCommand]{
		commands.WithLogger[CancelWorkflowCommand](logger),
		commands.WithOperation[CancelWorkflowCommand]("workflow.cancel"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CancelWorkflowHandler{
		inner: commands.NewHandler[CancelWorkflowCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CancelWorkflowCommand].Execute.
func (h *CancelWorkflowHandler) Execute(ctx context.Context, msg CancelWorkflowCommand) error {
	return h.inner.Execute(ctx, msg)
}
