/*-------------------------------------------------------------------------
 *
 * log_context.go
 *    Structured logging helpers for Basecamp
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/metrics/log_context.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

/*
 * InitLogging configures the global zerolog logger. Level is one of
 * trace, debug, info, warn, error. Format "console" enables the
 * human-readable writer; anything else emits JSON.
 */
func InitLogging(level, format string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

/* InstanceLogger returns a logger bound to one procedure instance */
func InstanceLogger(instanceID string) zerolog.Logger {
	return log.With().Str("instance_id", instanceID).Logger()
}

/* RoleLogger returns a logger bound to one worker role */
func RoleLogger(role string) zerolog.Logger {
	return log.With().Str("role", role).Logger()
}

/* JobLogger returns a logger bound to one queued job */
func JobLogger(jobID, jobType string) zerolog.Logger {
	return log.With().Str("job_id", jobID).Str("job_type", jobType).Logger()
}
