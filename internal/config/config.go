// Package config defines and loads the application configuration.
package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// URL is a PostgreSQL connection string, or the literal "memory" to run
// against the in-memory stores (development and tests only; nothing is
// durable in that mode).
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// SchedulerConfig contains settings for the in-process reminder scheduler.
//
// Permission is the initial notification-permission state of the alerting
// boundary: "granted", "denied", or "undetermined" (the latter resolves
// through the configured prompter on the first scheduling attempt).
type SchedulerConfig struct {
	Permission     string `mapstructure:"permission"      validate:"required,oneof=granted denied undetermined"`
	DispatchBuffer int    `mapstructure:"dispatch_buffer" validate:"required,gte=1"`
}

// MemoryDatabaseURL is the DatabaseConfig.URL sentinel selecting the
// in-memory stores.
const MemoryDatabaseURL = "memory"
