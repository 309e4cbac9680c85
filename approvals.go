package approvals

import (
	workflow "github.com/goliatone/go-approvals/internal/approvals"
	"github.com/goliatone/go-approvals/internal/di"
	"github.com/goliatone/go-approvals/internal/domain"
	"github.com/goliatone/go-approvals/internal/jobs"
	"github.com/goliatone/go-approvals/internal/nodes"
	"github.com/goliatone/go-approvals/internal/settings"
	"github.com/goliatone/go-approvals/pkg/interfaces"
)

// Engine exports the workflow engine contract for consumers of the approvals package.
type Engine = workflow.Engine

// Queries exports the read-side query contract.
type Queries = workflow.Queries

// SettingsService exports the approver topology import/export contract.
type SettingsService = settings.Service

// WorkflowInstance exports the workflow instance record.
type WorkflowInstance = workflow.WorkflowInstance

// TaskInstance exports the approval task record.
type TaskInstance = workflow.TaskInstance

// ApproverGroup exports the approver group record.
type ApproverGroup = workflow.ApproverGroup

// InitiateInput exports the workflow initiation payload.
type InitiateInput = workflow.InitiateInput

// Kind exports the workflow kind tag.
type Kind = workflow.Kind

// Action exports the reviewer action verb.
type Action = workflow.Action

// Node exports the content tree record used during group resolution.
type Node = nodes.Node

// NodeRepository exports the content tree lookup contract so host
// applications can bridge their own content storage.
type NodeRepository = nodes.Repository

const (
	KindPublish       = workflow.KindPublish
	KindContentReview = workflow.KindContentReview

	ActionApprove = workflow.ActionApprove
	ActionReject  = workflow.ActionReject
)

// Workflow and task status values as persisted on the records.
const (
	WorkflowStatusPendingApproval = domain.WorkflowStatusPendingApproval
	WorkflowStatusApproved        = domain.WorkflowStatusApproved
	WorkflowStatusRejected        = domain.WorkflowStatusRejected
	WorkflowStatusCancelled       = domain.WorkflowStatusCancelled
	WorkflowStatusCompleted       = domain.WorkflowStatusCompleted

	TaskStatusPendingApproval = domain.TaskStatusPendingApproval
	TaskStatusApproved        = domain.TaskStatusApproved
	TaskStatusRejected        = domain.TaskStatusRejected
	TaskStatusNotRequired     = domain.TaskStatusNotRequired
	TaskStatusCancelled       = domain.TaskStatusCancelled
)

var (
	ErrInstanceNotFound = workflow.ErrInstanceNotFound
	ErrTaskNotFound     = workflow.ErrTaskNotFound
	ErrGroupNotFound    = workflow.ErrGroupNotFound
	ErrNoDefaultGroup   = workflow.ErrNoDefaultGroup
	ErrWorkflowClosed   = workflow.ErrWorkflowClosed
	ErrNotAuthorized    = workflow.ErrNotAuthorized
	ErrInvalidInput     = workflow.ErrInvalidInput
)

// Module is the top level approvals runtime façade.
type Module struct {
	container *di.Container
}

// New constructs an approvals module using the provided configuration and
// optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Engine returns the configured workflow engine.
func (m *Module) Engine() Engine {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Engine()
}

// Queries returns the read-side query service.
func (m *Module) Queries() Queries {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Queries()
}

// Settings returns the approver topology import/export service.
func (m *Module) Settings() SettingsService {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Settings()
}

// WorkflowCommands exports the bundled command handlers.
type WorkflowCommands = di.WorkflowCommands

// Commands returns the workflow command handlers, or nil when the command
// layer is disabled in configuration.
func (m *Module) Commands() *WorkflowCommands {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Commands()
}

// Publisher exports the host callback contract for applying due publications.
type Publisher = jobs.Publisher

// PublisherFunc adapts a function to the Publisher contract.
type PublisherFunc = jobs.PublisherFunc

// PublishWorker returns the worker that applies due publish jobs.
func (m *Module) PublishWorker() *jobs.Worker {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.PublishWorker()
}

// Scheduler returns the scheduler used for publish automation.
func (m *Module) Scheduler() interfaces.Scheduler {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Scheduler()
}

// Groups returns the approver group store for host integrations.
func (m *Module) Groups() workflow.GroupRepository {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.GroupRepository()
}

// Nodes returns the content tree lookup used during group resolution.
func (m *Module) Nodes() NodeRepository {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.NodeRepository()
}
