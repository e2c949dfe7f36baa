// Package logging provides structured logging utilities for portal components.
//
// # Overview
//
// This package wraps the standard library slog package with portal defaults
// so the CLI, API server and MCP server log in the same shape. It supports
// environment-based log level configuration, module/version context
// injection, and source location tracking for debug logs.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: per-call detail of registry and Git host requests, with source location
//   - INFO: submissions and server lifecycle (default)
//   - WARN/WARNING: degraded registry results
//   - ERROR: failures requiring attention
//
// # Usage
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("portald", version)
//	    slog.Info("change request created", "app", app, "url", url)
//	}
//
// The LOG_LEVEL environment variable controls verbosity when no explicit
// level is given:
//
//	LOG_LEVEL=debug portal submit --app orders-api ...
//
// # Output Format
//
// JSON to stderr:
//
//	{"time":"...","level":"INFO","msg":"change request created","module":"portald","version":"v1.0.0","app":"orders-api"}
//
// The MCP server speaks JSON-RPC on stdout, so logging to stderr keeps the
// protocol stream clean.
package logging
