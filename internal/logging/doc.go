// Package logging provides structured logging helpers for calresolve.
//
// All logging goes through the standard library's slog package. This package
// only centralizes attribute names so that log lines from the resolver, the
// disambiguation step, the calendar client and the MCP tools can be
// correlated.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "resolver.resolve")
//	logger.Info("request resolved",
//	    logging.Status(logging.StatusSuccess),
//	    logging.Outcome("confirmation"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("resolving request",
//	    logging.UserHash(account),
//	    logging.TextLength(userText))
//
// # Security Considerations
//
//   - Account emails are hashed to prevent PII leakage while allowing correlation
//   - Raw user requests are never logged above debug level, only their length
//   - Tokens are never logged directly
package logging
