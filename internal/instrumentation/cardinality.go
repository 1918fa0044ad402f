package instrumentation

import "strings"

// Operation types for Google API metrics.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationSearch = "search"
)

// Context sources recorded by the assistant fetch metrics.
const (
	SourceCalendar = "calendar"
	SourceMail     = "mail"
)

// Fetch outcomes recorded per source.
const (
	OutcomeFetched = "fetched"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// knownPaths are the HTTP routes served by inboxai. Anything else is
// collapsed into "other" so scanners cannot grow the path label without bound.
var knownPaths = []string{
	"/mcp",
	"/api/messages",
	"/healthz",
	"/readyz",
	"/metrics",
}

// NormalizePath maps a request path to a bounded label value.
//
// Example:
//
//	NormalizePath("/mcp")              // "/mcp"
//	NormalizePath("/healthz/detailed") // "/healthz"
//	NormalizePath("/wp-admin")         // "other"
func NormalizePath(path string) string {
	for _, p := range knownPaths {
		if path == p || strings.HasPrefix(path, p+"/") {
			return p
		}
	}
	return "other"
}
