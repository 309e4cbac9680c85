package commands

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced on wrapped command failures.
const (
	codeValidationFailed = "COMMAND_VALIDATION_FAILED"
	codeContextCanceled  = "COMMAND_CONTEXT_CANCELED"
	codeContextTimeout   = "COMMAND_CONTEXT_TIMEOUT"
	codeContextError     = "COMMAND_CONTEXT_ERROR"
	codeExecutionFailed  = "COMMAND_EXECUTION_FAILED"
)

// wrap attaches a category and text code unless the error is already a
// categorized goerrors value, so nested handlers do not double-wrap.
func wrap(err error, category goerrors.Category, msg, code string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, category, msg).WithTextCode(code)
}

func wrapValidationError(err error) error {
	return wrap(err, goerrors.CategoryValidation, "command validation failed", codeValidationFailed)
}

func wrapContextError(err error) error {
	switch err {
	case context.Canceled:
		return wrap(err, goerrors.CategoryCommand, "command execution cancelled", codeContextCanceled)
	case context.DeadlineExceeded:
		return wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded", codeContextTimeout)
	default:
		return wrap(err, goerrors.CategoryCommand, "command context error", codeContextError)
	}
}

func wrapExecuteError(err error) error {
	return wrap(err, goerrors.CategoryCommand, "command execution failed", codeExecutionFailed)
}
