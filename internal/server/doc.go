// Package server provides the long-lived server context, per-conversation
// session management and the HTTP surface of inboxai.
//
// # Key Components
//
// ServerContext wires the Google clients, the API key store, the completion
// client, the context aggregator and the assistant together. It is shared by
// the CLI commands, the MCP tools and the HTTP handlers.
//
// SessionManager maps session ids (the X-InboxAI-Session header, or "default")
// to aggregator sessions and expires idle ones.
//
// Bridge accepts type-tagged JSON messages on POST /api/messages, the boundary
// a host page talks to:
//
//	RequestStoredKey      -> StorageResponse {openaiApiKey}
//	RequestCalendar       -> CalendarResponse {success, events, dateRange, error}
//	SearchMail            -> MailSearchResponse {success, messages, query, error}
//	InboxSnapshotRequest  -> InboxSnapshotResponse {success, threads, error}
//	CompletionRequest     -> CompletionResponse {success, content, error}
//	SetCurrentEmail       -> AckResponse
//	SetInboxOverview      -> AckResponse
//	Ask                   -> AskResponse {success, content, status, queryId, error}
//
// HTTPServer mounts the bridge, the streamable HTTP MCP endpoint and the
// health probes behind request metrics. MetricsServer exposes Prometheus
// metrics on a separate port.
package server
