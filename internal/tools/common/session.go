package common

import (
	"context"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxai/internal/server"
)

// SessionFromArgs returns the assistant session id of a tool call.
//
// Priority order:
//  1. Explicit non-blank "session" argument in request
//  2. The MCP client session
//  3. server.DefaultSessionID
func SessionFromArgs(ctx context.Context, args map[string]any) string {
	if v, ok := args["session"].(string); ok && strings.TrimSpace(v) != "" {
		return server.NormalizeSessionID(v)
	}

	if cs := mcpserver.ClientSessionFromContext(ctx); cs != nil && cs.SessionID() != "" {
		return server.NormalizeSessionID(cs.SessionID())
	}
	return server.DefaultSessionID
}
