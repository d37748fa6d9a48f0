package types

type RunMode string

const (
	// ModeLocal runs the API server and the in-process scheduler together
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server; sweeps are triggered through the cron endpoints
	ModeAPI RunMode = "api"
	// ModeScheduler runs just the in-process scheduler
	ModeScheduler RunMode = "scheduler"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)
