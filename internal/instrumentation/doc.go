// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for calresolve.
//
// # Metrics
//
// Resolution:
//   - resolutions_total: resolutions by outcome (confirmation, disambiguation, or a failure category)
//   - resolution_duration_seconds: end-to-end resolution latency
//   - resolution_tool_iterations: tool round-trips per resolution
//
// Model and disambiguation:
//   - generation_calls_total: model calls by purpose (action, ranking) and status
//   - generation_duration_seconds: model call latency
//   - disambiguation_outcomes_total: auto_resolved, candidate_list and no_match counts
//
// Google Calendar:
//   - google_api_operations_total: Calendar API calls by operation and status
//   - google_api_operation_duration_seconds: Calendar API latency
//
// Server:
//   - http_requests_total and http_request_duration_seconds
//   - mcp_tool_invocations_total and mcp_tool_duration_seconds
//
// # Tracing
//
// Spans are created for resolutions (resolver.Resolve), tool round-trips
// (resolver.tool), disambiguation (disambiguation.Resolve), MCP tool calls
// (tool.<name>) and Calendar API calls (google.calendar.<operation>).
//
// # Configuration
//
// DefaultConfig reads:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: calresolve)
//   - METRICS_DETAILED_LABELS, AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII
//
// # Example
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordResolution(ctx, "confirmation", 1, time.Since(start))
package instrumentation
