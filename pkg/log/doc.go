/*
Package log provides structured logging for docker-dns using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers and configurable log levels. All logs include
timestamps and support filtering by severity level.

# Usage

Initialize once at startup, then derive component loggers:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("monitor")
	logger.Info().Str("container_id", id).Msg("container started")

Components receive their logger explicitly so they stay testable in
isolation; only process wiring touches the global instance.

# Output Formats

JSON (production):

	{"level":"info","component":"dns","time":"2024-03-01T10:00:00Z","message":"DNS server started"}

Console (development):

	2024-03-01T10:00:00Z INF DNS server started component=dns
*/
package log
