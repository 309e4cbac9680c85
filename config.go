package approvals

import "github.com/goliatone/go-approvals/internal/runtimeconfig"

var (
	ErrStorageProviderUnknown     = runtimeconfig.ErrStorageProviderUnknown
	ErrCacheTTLInvalid            = runtimeconfig.ErrCacheTTLInvalid
	ErrPublishDelayInvalid        = runtimeconfig.ErrPublishDelayInvalid
	ErrScheduleRequiresScheduling = runtimeconfig.ErrScheduleRequiresScheduling
	ErrLoggingProviderRequired    = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config         = runtimeconfig.Config
	StorageConfig  = runtimeconfig.StorageConfig
	CacheConfig    = runtimeconfig.CacheConfig
	ScheduleConfig = runtimeconfig.ScheduleConfig
	CommandsConfig = runtimeconfig.CommandsConfig
	Features       = runtimeconfig.Features
	LoggingConfig  = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
