package workflowcmd

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-approvals/internal/approvals"
	"github.com/goliatone/go-approvals/internal/commands"
	"github.com/goliatone/go-approvals/pkg/interfaces"
	"github.com/google/uuid"
)

const initiateWorkflowMessageType = "approvals.workflow.initiate"

// InitiateWorkflowCommand submits a content node for approval.
type InitiateWorkflowCommand struct {
	NodeID      uuid.UUID  `json:"node_id"`
	AuthorID    uuid.UUID  `json:"author_id"`
	Comment     string     `json:"comment,omitempty"`
	Kind        string     `json:"kind,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// Type implements command.Message.
func (InitiateWorkflowCommand) Type() string { return initiateWorkflowMessageType }

// Validate ensures the message carries the required fields before reaching handlers.
func (m InitiateWorkflowCommand) Validate() error {
	errs := validation.Errors{}
	if m.NodeID == uuid.Nil {
		errs["node_id"] = validation.NewError("approvals.workflow.initiate.node_id_required", "node_id is required")
	}
	if m.AuthorID == uuid.Nil {
		errs["author_id"] = validation.NewError("approvals.workflow.initiate.author_id_required", "author_id is required")
	}
	if err := validation.Validate(m.Kind, validation.In("", string(approvals.KindPublish), string(approvals.KindContentReview))); err != nil {
		errs["kind"] = validation.NewError("approvals.workflow.initiate.kind_invalid", "kind must be publish or content_review")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// InitiateWorkflowHandler opens approval workflows via the engine using the
// shared command handler foundation.
type InitiateWorkflowHandler struct {
	inner *commands.Handler[InitiateWorkflowCommand]
}

// NewInitiateWorkflowHandler constructs a handler wired to the provided engine.
func NewInitiateWorkflowHandler(engine approvals.Engine, logger interfaces.Logger, opts ...commands.HandlerOption[InitiateWorkflowCommand]) *InitiateWorkflowHandler {
	exec := func(ctx context.Context, msg InitiateWorkflowCommand) error {
		_, err := engine.Initiate(ctx, approvals.InitiateInput{
			NodeID:      msg.NodeID,
			AuthorID:    msg.AuthorID,
			Comment:     msg.Comment,
			Kind:        approvals.NormalizeKind(msg.Kind),
			ScheduledAt: msg.ScheduledAt,
		})
		return err
	}

	handlerOpts := []commands.HandlerOption[InitiateWorkflowCommand]{
		commands.WithLogger[InitiateWorkflowCommand](logger),
		commands.WithOperation[InitiateWorkflowCommand]("workflow.initiate"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &InitiateWorkflowHandler{
		inner: commands.NewHandler[InitiateWorkflowCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[InitiateWorkflowCommand].Execute.
func (h *InitiateWorkflowHandler) Execute(ctx context.Context, msg InitiateWorkflowCommand) error {
	return h.inner.Execute(ctx, msg)
}
