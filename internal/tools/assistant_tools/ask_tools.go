package assistant_tools

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxai/internal/assistant"
	"github.com/teemow/inboxai/internal/gmail"
	"github.com/teemow/inboxai/internal/logging"
	"github.com/teemow/inboxai/internal/server"
	"github.com/teemow/inboxai/internal/tools/common"
)

func sessionOption() mcp.ToolOption {
	return mcp.WithString("session",
		mcp.Description("Session id. Defaults to the MCP client session, or 'default'. Sessions keep separate cached context."),
	)
}

func registerAskTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	askTool := mcp.NewTool("assistant_ask",
		mcp.WithDescription("Answer a question about the user's calendar and email. "+
			"Fetches the relevant events and messages and asks the completion model."),
		sessionOption(),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question, e.g. 'what's on my calendar tomorrow' or 'emails from alice about the budget'"),
		),
	)
	s.AddTool(askTool, common.InstrumentedToolHandler("assistant_ask", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAsk(ctx, request, sc)
		}))

	currentTool := mcp.NewTool("assistant_set_current_email",
		mcp.WithDescription("Set the email the user is currently reading. It is used as context when no search results apply. Call without arguments to clear it."),
		sessionOption(),
		mcp.WithString("sender", mcp.Description("Sender of the open email")),
		mcp.WithString("subject", mcp.Description("Subject of the open email")),
		mcp.WithString("body", mcp.Description("Body text of the open email")),
	)
	s.AddTool(currentTool, common.InstrumentedToolHandler("assistant_set_current_email", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSetCurrentEmail(ctx, request, sc)
		}))
}

func handleAsk(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query := stringArg(args, "query")
	if strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	session := sc.Sessions().Session(common.SessionFromArgs(ctx, args))

	var status []string
	answer, err := sc.Assistant().Ask(ctx, session, query, func(line string) {
		status = append(status, line)
	})
	if errors.Is(err, assistant.ErrMissingCredential) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return mcp.NewToolResultError("Failed to answer: " + err.Error()), nil
	}

	var b strings.Builder
	for _, line := range status {
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	b.WriteString(answer.Content)
	return mcp.NewToolResultText(b.String()), nil
}

func handleSetCurrentEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	session := sc.Sessions().Session(common.SessionFromArgs(ctx, args))

	email := &gmail.CurrentEmail{
		Sender:  stringArg(args, "sender"),
		Subject: stringArg(args, "subject"),
		Body:    stringArg(args, "body"),
	}
	if *email == (gmail.CurrentEmail{}) {
		session.SetCurrentEmail(nil)
		return mcp.NewToolResultText("Current email cleared"), nil
	}

	session.SetCurrentEmail(email)
	sc.Logger().Debug("current email set", logging.Session(session.ID()), slog.String("sender", logging.AnonymizeEmail(email.Sender)))
	return mcp.NewToolResultText("Current email set"), nil
}
