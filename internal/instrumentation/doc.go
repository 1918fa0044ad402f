// Package instrumentation provides OpenTelemetry metrics and tracing for inboxai.
//
// # Metrics
//
// Server/HTTP:
//   - http_requests_total, http_request_duration_seconds (method, path, status)
//   - active_sessions: assistant sessions held by the server
//
// Google API:
//   - google_api_operations_total, google_api_operation_duration_seconds (service, operation, status)
//   - google_token_requests_total (result)
//
// Assistant:
//   - assistant_queries_total (status)
//   - assistant_source_fetch_total, assistant_source_fetch_duration_seconds (source, outcome)
//   - bridge_messages_total (message_type, status)
//
// Completion:
//   - completion_requests_total, completion_duration_seconds (provider, status)
//
// MCP tools:
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds (tool, status)
//
// # Tracing
//
// Spans are created for assistant queries (assistant.ask), each context fetch,
// Google API calls (google.<service>.<operation>), completion requests
// (completion.<provider>) and MCP tool invocations (tool.<name>).
//
// # Configuration
//
// LoadConfig reads the standard variables:
//   - INSTRUMENTATION_ENABLED (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default: 0.1)
//   - OTEL_SERVICE_NAME (default: inboxai)
//
// All Metrics methods are safe on a nil or zero receiver, so callers never need
// to check whether instrumentation is enabled.
package instrumentation
