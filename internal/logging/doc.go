// Package logging provides structured logging utilities for the inboxai application.
//
// All packages log through log/slog. This package holds the handler setup used by
// the CLI and shared attribute helpers, so that every log line names its operation,
// source and query in the same way.
//
// # Usage Patterns
//
// Create a logger scoped to a source:
//
//	logger := logging.WithSource(slog.Default(), "calendar")
//	logger.Info("events fetched",
//	    logging.QueryID(id),
//	    logging.Count(len(events)))
//
// Mask sensitive data before logging:
//
//	logger.Debug("completion key loaded",
//	    slog.String("key", logging.SanitizeToken(key)))
//
// # Security Considerations
//
//   - Credentials (OAuth tokens, completion API keys) are never logged directly
//   - Free-text user questions are logged as a length and a short hash
//   - Sender addresses are hashed by AnonymizeEmail
package logging
