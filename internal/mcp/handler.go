package mcp

import (
	"net/http"

	"github.com/bobmcallan/genvr-mcp/internal/common"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Transport endpoint paths.
const (
	StreamablePath = "/mcp"
	SSEPath        = "/sse"
	MessagePath    = "/message"
)

// NewMCPServer creates the MCP server with every generated tool and get_version.
func NewMCPServer(name, version string, reg *Registry, logger *common.Logger) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer(
		name,
		version,
		mcpserver.WithToolCapabilities(true),
	)

	count := reg.Register(mcpSrv)
	mcpSrv.AddTool(VersionTool(), VersionToolHandler(reg))

	logger.Info().Int("tools", count).Str("name", name).Msg("MCP server initialized")
	return mcpSrv
}

// Handler serves the MCP server over HTTP: the stateless streamable
// transport on /mcp and the long-lived SSE transport on /sse with its
// /message companion. Both read credentials from request headers.
type Handler struct {
	streamable *mcpserver.StreamableHTTPServer
	sse        *mcpserver.SSEServer
	logger     *common.Logger
}

// NewHandler wraps mcpSrv in both HTTP transports.
func NewHandler(mcpSrv *mcpserver.MCPServer, logger *common.Logger) *Handler {
	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithStateLess(true),
		mcpserver.WithEndpointPath(StreamablePath),
		mcpserver.WithHTTPContextFunc(CredentialsFromRequest),
	)
	sse := mcpserver.NewSSEServer(mcpSrv,
		mcpserver.WithSSEEndpoint(SSEPath),
		mcpserver.WithMessageEndpoint(MessagePath),
		mcpserver.WithSSEContextFunc(CredentialsFromRequest),
	)
	return &Handler{
		streamable: streamable,
		sse:        sse,
		logger:     logger,
	}
}

// ServeHTTP delegates to the streamable HTTP transport.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}

// SSEHandler returns the event-stream endpoint handler.
func (h *Handler) SSEHandler() http.Handler {
	return h.sse.SSEHandler()
}

// MessageHandler returns the handler that receives SSE client messages.
func (h *Handler) MessageHandler() http.Handler {
	return h.sse.MessageHandler()
}
