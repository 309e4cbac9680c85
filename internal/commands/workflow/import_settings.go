package workflowcmd

import (
	"context"
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-approvals/internal/commands"
	"github.com/goliatone/go-approvals/internal/settings"
	"github.com/goliatone/go-approvals/pkg/interfaces"
)

const importSettingsMessageType = "approvals.settings.import"

// ImportSettingsCommand replaces the approver assignment set with the
// supplied document.
type ImportSettingsCommand struct {
	Document json.RawMessage `json:"document"`
}

// Type implements command.Message.
func (ImportSettingsCommand) Type() string { return importSettingsMessageType }

// Validate ensures the message carries a document before reaching handlers.
func (m ImportSettingsCommand) Validate() error {
	errs := validation.Errors{}
	if len(m.Document) == 0 {
		errs["document"] = validation.NewError("approvals.settings.import.document_required", "document is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ImportSettingsHandler applies approver topology documents using the shared
// command handler foundation.
type ImportSettingsHandler struct {
	inner *commands.Handler[ImportSettingsCommand]
}

// NewImportSettingsHandler constructs a handler wired to the settings service.
func NewImportSettingsHandler(service settings.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ImportSettingsCommand]) *ImportSettingsHandler {
	exec := func(ctx context.Context, msg ImportSettingsCommand) error {
		_, err := service.ImportJSON(ctx, msg.Document)
		return err
	}

	handlerOpts := []commands.HandlerOption[ImportSettingsCommand]{
		commands.WithLogger[ImportSettingsCommand](logger),
		commands.WithOperation[ImportSettingsCommand]("settings.import"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportSettingsHandler{
		inner: commands.NewHandler[ImportSettingsCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ImportSettingsCommand].Execute.
func (h *ImportSettingsHandler) Execute(ctx context.Context, msg ImportSettingsCommand) error {
	return h.inner.Execute(ctx, msg)
}
