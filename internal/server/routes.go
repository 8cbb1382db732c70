package server

import (
	"net/http"

	"github.com/bobmcallan/genvr-mcp/internal/handlers"
	"github.com/bobmcallan/genvr-mcp/internal/mcp"
)

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// MCP transports
	if h := s.app.MCPHandler; h != nil {
		mux.Handle(mcp.StreamablePath, h)
		sse := h.SSEHandler()
		message := h.MessageHandler()
		mux.HandleFunc(mcp.SSEPath, func(w http.ResponseWriter, r *http.Request) {
			RouteByMethod(w, r, MethodRouter{http.MethodGet: sse.ServeHTTP})
		})
		mux.HandleFunc(mcp.MessagePath, func(w http.ResponseWriter, r *http.Request) {
			RouteByMethod(w, r, MethodRouter{http.MethodPost: message.ServeHTTP})
		})
	}

	// API routes
	mux.HandleFunc("/api/health", s.app.HealthHandler.ServeHTTP)
	mux.HandleFunc("/api/version", s.app.VersionHandler.ServeHTTP)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", handlers.NotFound)

	return mux
}
