// Package cmd implements the command-line interface for inboxai.
//
// This package provides the following commands:
//   - chat: Interactive question loop against calendar and mail context (default)
//   - ask: Answer a single question and exit
//   - configure: Store the completion API key and test the Google connection
//   - auth: Authorize access to Google Calendar and Gmail
//   - serve: Start the MCP server and the host page message bridge
//   - version: Display version information
//
// The chat command is the default command when no subcommand is specified.
package cmd
