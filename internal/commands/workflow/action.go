package workflowcmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-approvals/internal/approvals"
	"github.com/goliatone/go-approvals/internal/commands"
	"github.com/goliatone/go-approvals/pkg/interfaces"
	"github.com/google/uuid"
)

const actionWorkflowMessageType = "approvals.workflow.action"

// ActionWorkflowCommand applies an approve or reject decision to the pending
// task of the workflow identified by correlation token.
type ActionWorkflowCommand struct {
	CorrelationID uuid.UUID `json:"correlation_id"`
	Action        string    `json:"action"`
	UserID        uuid.UUID `json:"user_id"`
	Comment       string    `json:"comment,omitempty"`
}

// Type implements command.Message.
func (ActionWorkflowCommand) Type() string { return actionWorkflowMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m ActionWorkflowCommand) Validate() error {
	errs := validation.Errors{}
	if m.CorrelationID == uuid.Nil {
		errs["correlation_id"] = validation.NewError("approvals.workflow.action.correlation_id_required", "correlation_id is required")
	}
	if m.UserID == uuid.Nil {
		errs["user_id"] = validation.NewError("approvals.workflow.action.user_id_required", "user_id is required")
	}
	if err := validation.Validate(m.Action, validation.Required, validation.In(string(approvals.ActionApprove), string(approvals.ActionReject))); err != nil {
		errs["action"] = validation.NewError("approvals.workflow.action.action_invalid", "action must be approve or reject")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ActionWorkflowHandler applies workflow decisions using the shared command
// handler foundation.
type ActionWorkflowHandler struct {
	inner *commands.Handler[ActionWorkflowCommand]
}

// NewActionWorkflowHandler constructs a handler wired to the engine and the
// read side used to load the instance by its correlation token.
func NewActionWorkflowHandler(engine approvals.Engine, queries approvals.Queries, logger interfaces.Logger, opts ...commands.HandlerOption[ActionWorkflowCommand]) *ActionWorkflowHandler {
	exec := func(ctx context.Context, msg ActionWorkflowCommand) error {
		instance, err := queries.InstanceByCorrelation(ctx, msg.CorrelationID)
		if err != nil {
			return err
		}
		_, err = engine.Action(ctx, instance, approvals.Action(msg.Action), msg.UserID, msg.Comment)
		return err
	}

	handlerOpts := []commands.HandlerOption[ActionWorkflowCommand]{
		commands.WithLogger[ActionWorkflowCommand](logger),
		commands.WithOperation[ActionWorkflowCommand]("workflow.action"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ActionWorkflowHandler{
		inner: commands.NewHandler[ActionWorkflowCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ActionWorkflowCommand].Execute.
func (h *ActionWorkflowHandler) Execute(ctx context.Context, msg ActionWorkflowCommand) error {
	return h.inner.Execute(ctx, msg)
}
