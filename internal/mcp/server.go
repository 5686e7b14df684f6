// Package mcp exposes the reflection assistant to MCP clients: topic
// listing, per-conversation analyses, and the aggregated values profile.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/purposenavigator/self-analyzation/internal/analysis"
	"github.com/purposenavigator/self-analyzation/internal/catalog"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes reflection tools.
type Server struct {
	catalog  *catalog.Catalog
	analysis *analysis.Service
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(cat *catalog.Catalog, svc *analysis.Service) *Server {
	s := &Server{
		catalog:  cat,
		analysis: svc,
	}

	s.mcp = server.NewMCPServer(
		"selfanalyze",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listTopicsTool, s.handleListTopics)
	s.mcp.AddTool(getConversationAnalysisTool, s.handleGetConversationAnalysis)
	s.mcp.AddTool(getValuesProfileTool, s.handleGetValuesProfile)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
