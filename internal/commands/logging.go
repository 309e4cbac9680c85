package commands

import (
	"strings"

	"github.com/goliatone/go-approvals/internal/logging"
	"github.com/goliatone/go-approvals/pkg/interfaces"
)

const commandModuleRoot = "approvals.commands"

// CommandLogger returns a module-scoped logger for command handlers, enriched
// with consistent structured fields so executions can be correlated in logs.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	logger := logging.ModuleLogger(provider, commandModuleRoot+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
