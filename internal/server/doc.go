// Package server holds the state shared by the MCP tool handlers and the
// HTTP plumbing around them.
//
// ServerContext owns the action resolver and an LRU cache of per-account
// calendar clients. Clients are created on first use from stored OAuth
// tokens (see internal/google) and are dropped on Shutdown.
//
// HealthChecker serves /healthz, /readyz and /healthz/detailed for the
// streamable-http transport. MetricsServer exposes Prometheus metrics on a
// dedicated port, and InstrumentHTTP records request metrics for any handler.
package server
