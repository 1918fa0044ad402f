// Package assistant_tools exposes the assistant over MCP.
//
// Tools:
//
//   - assistant_ask: answer a question using calendar and mail context
//   - assistant_set_current_email: set the email the user is reading
//   - calendar_list_events: list events for a natural-language time range
//   - gmail_search: search mail with a Gmail query
//   - gmail_recent_threads: list the newest inbox messages
//
// Every tool accepts an optional "session" argument. Over the streamable
// HTTP transport the MCP client session is used instead, so each connected
// client keeps its own cached context.
package assistant_tools
