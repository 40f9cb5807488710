// ABOUTME: MCP server setup for the performance dashboard.
// ABOUTME: Wraps the MCP server around the view service so tools share its rules.
package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/minilok/internal/views"
)

// Server wraps the MCP server with view service access.
type Server struct {
	mcpServer *mcp.Server
	svc       *views.Service
	now       func() time.Time
}

// NewServer creates a new MCP server over svc.
func NewServer(svc *views.Service) (*Server, error) {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "minilok",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		svc:       svc,
		now:       time.Now,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
