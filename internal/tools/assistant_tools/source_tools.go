package assistant_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxai/internal/intent"
	"github.com/teemow/inboxai/internal/prompt"
	"github.com/teemow/inboxai/internal/server"
	"github.com/teemow/inboxai/internal/tools/common"
)

const maxRecentThreads = 50

func registerSourceTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List primary calendar events for today, tomorrow, this week or next week"),
		mcp.WithString("query",
			mcp.Description("Natural-language time range, e.g. 'tomorrow' or 'next week' (default: today)"),
		),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandler("calendar_list_events", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	searchTool := mcp.NewTool("gmail_search",
		mcp.WithDescription("Search Gmail messages and return their subject, sender, date and snippet"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query, e.g. 'from:alice budget'"),
		),
		mcp.WithBoolean("extract",
			mcp.Description("Treat query as a natural-language request and extract the search terms first"),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandler("gmail_search", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearch(ctx, request, sc)
		}))

	recentTool := mcp.NewTool("gmail_recent_threads",
		mcp.WithDescription("List the newest inbox messages. The result becomes the session's inbox overview."),
		sessionOption(),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of messages (default: configured inbox limit, max %d)", maxRecentThreads)),
		),
	)
	s.AddTool(recentTool, common.InstrumentedToolHandler("gmail_recent_threads", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRecentThreads(ctx, request, sc)
		}))
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	loc := sc.Config().Location()
	r := intent.ResolveDateRange(stringArg(request.GetArguments(), "query"), time.Now().In(loc))

	events, err := sc.CalendarClient().ListEvents(ctx, r)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d events between %s and %s:\n\n",
		len(events), prompt.FormatStart(r.Min, loc), prompt.FormatStart(r.Max, loc))
	for i, event := range events {
		fmt.Fprintf(&b, "%d. %s\n", i+1, event.Title)
		fmt.Fprintf(&b, "   Start: %s\n", prompt.FormatStart(event.Start, loc))
		if event.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", event.Description)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(stringArg(request.GetArguments(), "query"))
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	if extract, _ := request.GetArguments()["extract"].(bool); extract {
		query = intent.ExtractSearchTerms(query)
	}

	msgs, err := sc.GmailClient().SearchMessages(ctx, query, sc.Config().MailMaxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search messages: %v", err)), nil
	}
	if len(msgs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No emails found for %q", query)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d emails for %q:\n\n", len(msgs), query)
	for i, m := range msgs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, m.Subject)
		fmt.Fprintf(&b, "   ID: %s\n", m.ID)
		fmt.Fprintf(&b, "   From: %s\n", m.From)
		if m.Date != "" {
			fmt.Fprintf(&b, "   Date: %s\n", m.Date)
		}
		fmt.Fprintf(&b, "   Snippet: %s\n\n", m.Snippet)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleRecentThreads(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	limit := sc.Config().InboxLimit
	if v, ok := request.GetArguments()["limit"].(float64); ok {
		limit = int64(v)
	}
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}
	if limit > maxRecentThreads {
		limit = maxRecentThreads
	}

	threads, err := sc.GmailClient().RecentThreads(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list inbox: %v", err)), nil
	}
	sc.Sessions().Session(common.SessionFromArgs(ctx, request.GetArguments())).SetInbox(threads)

	var b strings.Builder
	fmt.Fprintf(&b, "Inbox has %d recent messages:\n\n", len(threads))
	for i, th := range threads {
		fmt.Fprintf(&b, "%d. From: %s | Subject: %s\n   %s\n", i+1, th.Sender, th.Subject, th.Snippet)
	}
	return mcp.NewToolResultText(b.String()), nil
}
