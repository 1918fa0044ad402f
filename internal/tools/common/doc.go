// Package common provides shared helpers for the MCP tool packages: session
// resolution and the instrumentation wrapper every tool handler goes through.
package common
