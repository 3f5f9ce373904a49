package options

import (
	"github.com/gatewarden/gatewarden/pkg/logger"
)

// Logging contains all options required for configuring the logging
type Logging struct {
	AuthEnabled     bool           `cfg:"auth_logging" flag:"auth-logging"`
	AuthFormat      string         `cfg:"auth_logging_format" flag:"auth-logging-format"`
	StandardEnabled bool           `cfg:"standard_logging" flag:"standard-logging"`
	StandardFormat  string         `cfg:"standard_logging_format" flag:"standard-logging-format"`
	RequestEnabled  bool           `cfg:"request_logging" flag:"request-logging"`
	RequestFormat   string         `cfg:"request_logging_format" flag:"request-logging-format"`
	ExcludePaths    []string       `cfg:"exclude_logging_paths" flag:"exclude-logging-path"`
	SilencePing     bool           `cfg:"silence_ping_logging" flag:"silence-ping-logging"`
	RequestIDHeader string         `cfg:"request_id_header" flag:"request-id-header"`
	LocalTime       bool           `cfg:"logging_local_time" flag:"logging-local-time"`
	File            LogFileOptions `cfg:",squash"`
}

// LogFileOptions contains options for configuring logging to a file
type LogFileOptions struct {
	Filename   string `cfg:"logging_filename" flag:"logging-filename"`
	MaxSize    int    `cfg:"logging_max_size" flag:"logging-max-size"`
	MaxAge     int    `cfg:"logging_max_age" flag:"logging-max-age"`
	MaxBackups int    `cfg:"logging_max_backups" flag:"logging-max-backups"`
	Compress   bool   `cfg:"logging_compress" flag:"logging-compress"`
}

// loggingDefaults creates a Logging structure, populating each field with its
// default value.
func loggingDefaults() Logging {
	return Logging{
		ExcludePaths:    nil,
		LocalTime:       true,
		SilencePing:     false,
		RequestIDHeader: "X-Request-Id",
		AuthEnabled:     true,
		AuthFormat:      logger.DefaultAuthLoggingFormat,
		RequestEnabled:  true,
		RequestFormat:   logger.DefaultRequestLoggingFormat,
		StandardEnabled: true,
		StandardFormat:  logger.DefaultStandardLoggingFormat,
		File: LogFileOptions{
			Filename:   "",
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 0,
			Compress:   false,
		},
	}
}
