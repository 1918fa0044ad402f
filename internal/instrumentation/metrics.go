package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrService   = "service"
	attrResult    = "result"
	attrTool      = "tool"
	attrSource    = "source"
	attrOutcome   = "outcome"
	attrProvider  = "provider"
	attrMessage   = "message_type"
)

// Metrics provides methods for recording observability metrics.
// A zero Metrics records nothing, which is what a disabled Provider hands out.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	activeSessions      metric.Int64UpDownCounter

	// Google API metrics
	googleAPIOperationsTotal   metric.Int64Counter
	googleAPIOperationDuration metric.Float64Histogram
	tokenRequestsTotal         metric.Int64Counter

	// Assistant metrics
	queriesTotal       metric.Int64Counter
	sourceFetchesTotal metric.Int64Counter
	sourceFetchLatency metric.Float64Histogram
	bridgeMessages     metric.Int64Counter

	// Completion metrics
	completionRequestsTotal metric.Int64Counter
	completionDuration      metric.Float64Histogram

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
}

var apiBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	counter := func(dst *metric.Int64Counter, name, desc, unit string) {
		if err != nil {
			return
		}
		*dst, err = meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			err = fmt.Errorf("failed to create %s counter: %w", name, err)
		}
	}
	histogram := func(dst *metric.Float64Histogram, name, desc string, buckets []float64) {
		if err != nil {
			return
		}
		*dst, err = meter.Float64Histogram(name,
			metric.WithDescription(desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(buckets...),
		)
		if err != nil {
			err = fmt.Errorf("failed to create %s histogram: %w", name, err)
		}
	}

	counter(&m.httpRequestsTotal, "http_requests_total", "Total number of HTTP requests", "{request}")
	histogram(&m.httpRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds",
		[]float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0})

	counter(&m.googleAPIOperationsTotal, "google_api_operations_total", "Total number of Google API operations", "{operation}")
	histogram(&m.googleAPIOperationDuration, "google_api_operation_duration_seconds", "Google API operation duration in seconds", apiBuckets)
	counter(&m.tokenRequestsTotal, "google_token_requests_total", "Total number of Google credential requests", "{request}")

	counter(&m.queriesTotal, "assistant_queries_total", "Total number of assistant queries", "{query}")
	counter(&m.sourceFetchesTotal, "assistant_source_fetch_total", "Context source fetches by source and outcome", "{fetch}")
	histogram(&m.sourceFetchLatency, "assistant_source_fetch_duration_seconds", "Context source fetch duration in seconds",
		[]float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 3.0, 4.0, 5.0})
	counter(&m.bridgeMessages, "bridge_messages_total", "Boundary messages handled by type and status", "{message}")

	counter(&m.completionRequestsTotal, "completion_requests_total", "Total number of AI completion requests", "{request}")
	histogram(&m.completionDuration, "completion_duration_seconds", "AI completion duration in seconds", apiBuckets)

	counter(&m.toolInvocationsTotal, "mcp_tool_invocations_total", "Total number of MCP tool invocations", "{invocation}")
	histogram(&m.toolDuration, "mcp_tool_duration_seconds", "MCP tool execution duration in seconds", apiBuckets)

	if err != nil {
		return nil, err
	}

	m.activeSessions, err = meter.Int64UpDownCounter(
		"active_sessions",
		metric.WithDescription("Number of active assistant sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_sessions gauge: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, NormalizePath(path)),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordGoogleAPIOperation records a Google API operation.
//
// Parameters:
//   - service: gmail or calendar
//   - operation: list, get or search
//   - status: "success" or "error"
func (m *Metrics) RecordGoogleAPIOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	if m == nil || m.googleAPIOperationsTotal == nil || m.googleAPIOperationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrService, service),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.googleAPIOperationsTotal.Add(ctx, 1, attrs)
	m.googleAPIOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTokenRequest records a credential acquisition with its result.
func (m *Metrics) RecordTokenRequest(ctx context.Context, result string) {
	if m == nil || m.tokenRequestsTotal == nil {
		return
	}
	m.tokenRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordQuery records one assistant query with its final status.
func (m *Metrics) RecordQuery(ctx context.Context, status string) {
	if m == nil || m.queriesTotal == nil {
		return
	}
	m.queriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordSourceFetch records one context fetch. Outcome is fetched, timeout or error.
func (m *Metrics) RecordSourceFetch(ctx context.Context, source, outcome string, duration time.Duration) {
	if m == nil || m.sourceFetchesTotal == nil || m.sourceFetchLatency == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrSource, source),
		attribute.String(attrOutcome, outcome),
	)
	m.sourceFetchesTotal.Add(ctx, 1, attrs)
	m.sourceFetchLatency.Record(ctx, duration.Seconds(), attrs)
}

// RecordBridgeMessage records one boundary message by type and status.
func (m *Metrics) RecordBridgeMessage(ctx context.Context, messageType, status string) {
	if m == nil || m.bridgeMessages == nil {
		return
	}
	m.bridgeMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMessage, messageType),
		attribute.String(attrStatus, status),
	))
}

// RecordCompletion records an AI completion request.
func (m *Metrics) RecordCompletion(ctx context.Context, provider, status string, duration time.Duration) {
	if m == nil || m.completionRequestsTotal == nil || m.completionDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrProvider, provider),
		attribute.String(attrStatus, status),
	)
	m.completionRequestsTotal.Add(ctx, 1, attrs)
	m.completionDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// IncrementActiveSessions increments the active sessions counter.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the active sessions counter.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}
