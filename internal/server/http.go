package server

import (
	"context"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	// DefaultHTTPAddr is the default listen address of the HTTP server.
	DefaultHTTPAddr = ":8080"

	// MCPPath is where the streamable HTTP MCP endpoint is mounted.
	MCPPath = "/mcp"
)

// HTTPServer serves the MCP endpoint, the host page message bridge and the
// health probes on one port.
type HTTPServer struct {
	httpServer *http.Server
	handler    http.Handler
	addr       string
}

// NewHTTPServer builds the routes. mcpServer may be nil to serve only the
// bridge.
func NewHTTPServer(sc *ServerContext, mcpServer *mcpserver.MCPServer, health *HealthChecker, addr string) *HTTPServer {
	if addr == "" {
		addr = DefaultHTTPAddr
	}

	mux := http.NewServeMux()
	mux.Handle(BridgePath, sc.Bridge())
	if mcpServer != nil {
		mux.Handle(MCPPath, mcpserver.NewStreamableHTTPServer(mcpServer,
			mcpserver.WithEndpointPath(MCPPath),
		))
	}
	if health != nil {
		health.RegisterHealthEndpoints(mux)
	}

	return &HTTPServer{
		handler: InstrumentHTTP(SecurityHeaders(mux), sc.Metrics(), sc.Logger()),
		addr:    addr,
	}
}

// Handler returns the instrumented route handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *HTTPServer) Addr() string {
	return s.addr
}

// Start listens and serves until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
