package assistant_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxai/internal/server"
)

// RegisterAssistantTools registers all assistant tools with the MCP server
func RegisterAssistantTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}

	registerAskTools(s, sc)
	registerSourceTools(s, sc)
	return nil
}

// stringArg returns the string argument key, or "" when absent or not a string.
func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}
