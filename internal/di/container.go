// Package di wires the approvals module's services over either bun-backed or
// in-memory storage, honoring the runtime configuration's feature flags.
package di

import (
	"time"

	"github.com/goliatone/go-approvals/internal/approvals"
	"github.com/goliatone/go-approvals/internal/commands"
	workflowcmd "github.com/goliatone/go-approvals/internal/commands/workflow"
	"github.com/goliatone/go-approvals/internal/jobs"
	"github.com/goliatone/go-approvals/internal/logging"
	"github.com/goliatone/go-approvals/internal/logging/gologger"
	"github.com/goliatone/go-approvals/internal/nodes"
	"github.com/goliatone/go-approvals/internal/notifications"
	"github.com/goliatone/go-approvals/internal/runtimeconfig"
	"github.com/goliatone/go-approvals/internal/scheduler"
	"github.com/goliatone/go-approvals/internal/settings"
	"github.com/goliatone/go-approvals/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	bunDB         *bun.DB
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	instanceRepo approvals.InstanceRepository
	taskRepo     approvals.TaskRepository
	groupRepo    approvals.GroupRepository
	nodeRepo     nodes.Repository

	notifier       interfaces.Notifier
	activity       interfaces.ActivitySink
	sched          interfaces.Scheduler
	loggerProvider interfaces.LoggerProvider

	publisher jobs.Publisher

	engine   approvals.Engine
	queries  approvals.Queries
	settings settings.Service
	worker   *jobs.Worker
	commands *WorkflowCommands
}

// WorkflowCommands bundles the command handlers the module exposes when the
// command layer is enabled.
type WorkflowCommands struct {
	Initiate       *workflowcmd.InitiateWorkflowHandler
	Action         *workflowcmd.ActionWorkflowHandler
	Cancel         *workflowcmd.CancelWorkflowHandler
	ImportSettings *workflowcmd.ImportSettingsHandler
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB binds the storage layer to a bun database handle.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the default cache service used for group and node reads.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithNotifier overrides the default notification sink.
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(c *Container) {
		c.notifier = notifier
	}
}

// WithActivitySink installs the audit trail sink.
func WithActivitySink(sink interfaces.ActivitySink) Option {
	return func(c *Container) {
		c.activity = sink
	}
}

// WithScheduler overrides the scheduler used for delayed publication.
func WithScheduler(sched interfaces.Scheduler) Option {
	return func(c *Container) {
		c.sched = sched
	}
}

// WithLoggerProvider overrides the logger provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithPublisher installs the host callback that flips a content node live
// when its scheduled publish job comes due.
func WithPublisher(publisher jobs.Publisher) Option {
	return func(c *Container) {
		c.publisher = publisher
	}
}

// WithNodeRepository overrides the content tree lookup, letting host
// applications bridge their own content storage into group resolution.
func WithNodeRepository(repo nodes.Repository) Option {
	return func(c *Container) {
		c.nodeRepo = repo
	}
}

// NewContainer assembles the module. Storage defaults to in-memory unless a
// bun handle is supplied and the configuration requests the bun provider.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.Cache.DefaultTTL
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cacheTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if err := c.configureCacheDefaults(); err != nil {
		return nil, err
	}
	c.configureRepositories()
	c.configureCollaborators()
	c.configureServices()

	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return nil
	}
	if c.Config.Logging.Provider == "gologger" {
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	}
	return nil
}

func (c *Container) configureCacheDefaults() error {
	if !c.Config.Cache.Enabled {
		c.cacheService = nil
		c.keySerializer = nil
		return nil
	}
	if c.cacheService != nil && c.keySerializer != nil {
		return nil
	}

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = c.cacheTTL
	service, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		return err
	}
	c.cacheService = service
	c.keySerializer = repocache.NewDefaultKeySerializer()
	return nil
}

func (c *Container) configureRepositories() {
	useBun := c.bunDB != nil && c.Config.Storage.Provider != "memory"

	if c.instanceRepo == nil {
		if useBun {
			c.instanceRepo = approvals.NewBunInstanceRepository(c.bunDB)
		}
	}
	if c.taskRepo == nil {
		if useBun {
			c.taskRepo = approvals.NewBunTaskRepository(c.bunDB)
		} else {
			c.taskRepo = approvals.NewMemoryTaskRepository()
		}
	}
	if c.instanceRepo == nil {
		c.instanceRepo = approvals.NewMemoryInstanceRepository(c.taskRepo)
	}
	if c.groupRepo == nil {
		if useBun {
			c.groupRepo = approvals.NewBunGroupRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		} else {
			c.groupRepo = approvals.NewMemoryGroupRepository()
		}
	}
	if c.nodeRepo == nil {
		if useBun {
			c.nodeRepo = nodes.NewBunNodeRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		} else {
			c.nodeRepo = nodes.NewMemoryNodeRepository()
		}
	}
}

func (c *Container) configureCollaborators() {
	if c.notifier == nil {
		if c.loggerProvider != nil {
			c.notifier = notifications.NewLogSink(c.loggerProvider)
		} else {
			c.notifier = notifications.NewNoOp()
		}
	}
	if c.sched == nil {
		if c.Config.Features.Scheduling {
			c.sched = scheduler.NewInMemory()
		} else {
			c.sched = scheduler.NewNoOp()
		}
	}
}

func (c *Container) configureServices() {
	engineLogger := logging.EngineLogger(c.loggerProvider)

	engineOpts := []approvals.EngineOption{
		approvals.WithNotifier(c.notifier),
		approvals.WithEngineLogger(engineLogger),
		approvals.WithCompletionHook(approvals.KindPublish,
			approvals.NewPublishHook(c.sched, nil, logging.SchedulerLogger(c.loggerProvider))),
		approvals.WithCompletionHook(approvals.KindContentReview,
			approvals.NewReviewHook(engineLogger)),
	}
	if c.Config.Schedule.PublishDelay > 0 {
		engineOpts = append(engineOpts, approvals.WithPublishDelay(c.Config.Schedule.PublishDelay))
	}
	if c.activity != nil && c.Config.Features.Activity {
		engineOpts = append(engineOpts, approvals.WithActivitySink(c.activity))
	}

	c.engine = approvals.NewEngine(c.instanceRepo, c.taskRepo, c.groupRepo, c.nodeRepo, engineOpts...)
	c.queries = approvals.NewQueries(c.instanceRepo, c.taskRepo, c.groupRepo)
	c.settings = settings.New(c.groupRepo,
		settings.WithLogger(logging.SettingsLogger(c.loggerProvider)),
	)

	workerOpts := []jobs.Option{
		jobs.WithLogger(logging.SchedulerLogger(c.loggerProvider)),
	}
	if c.activity != nil && c.Config.Features.Activity {
		workerOpts = append(workerOpts, jobs.WithActivitySink(c.activity))
	}
	c.worker = jobs.NewWorker(c.sched, c.publisher, workerOpts...)

	if c.Config.Commands.Enabled {
		commandLogger := commands.CommandLogger(c.loggerProvider, "workflow")
		c.commands = &WorkflowCommands{
			Initiate:       workflowcmd.NewInitiateWorkflowHandler(c.engine, commandLogger),
			Action:         workflowcmd.NewActionWorkflowHandler(c.engine, c.queries, commandLogger),
			Cancel:         workflowcmd.NewCancelWorkflowHandler(c.engine, c.queries, commandLogger),
			ImportSettings: workflowcmd.NewImportSettingsHandler(c.settings, commandLogger),
		}
	}
}

// Engine returns the workflow state machine.
func (c *Container) Engine() approvals.Engine { return c.engine }

// Queries returns the read-side projections.
func (c *Container) Queries() approvals.Queries { return c.queries }

// Settings returns the approver topology import/export service.
func (c *Container) Settings() settings.Service { return c.settings }

// Commands returns the workflow command handlers, or nil when the command
// layer is disabled.
func (c *Container) Commands() *WorkflowCommands { return c.commands }

// PublishWorker returns the worker that drains due publish jobs.
func (c *Container) PublishWorker() *jobs.Worker { return c.worker }

// Scheduler returns the publication scheduler.
func (c *Container) Scheduler() interfaces.Scheduler { return c.sched }

// Notifier returns the active notification sink.
func (c *Container) Notifier() interfaces.Notifier { return c.notifier }

// LoggerProvider returns the configured logger provider, which may be nil.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// InstanceRepository exposes the instance store for host integrations.
func (c *Container) InstanceRepository() approvals.InstanceRepository { return c.instanceRepo }

// TaskRepository exposes the task store for host integrations.
func (c *Container) TaskRepository() approvals.TaskRepository { return c.taskRepo }

// GroupRepository exposes the approver group store for host integrations.
func (c *Container) GroupRepository() approvals.GroupRepository { return c.groupRepo }

// NodeRepository exposes the content tree lookup.
func (c *Container) NodeRepository() nodes.Repository { return c.nodeRepo }
