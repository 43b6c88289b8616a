// Package mcpserver exposes schema operations as MCP tools over
// stdio, so an AI agent can drive the toolkit without shelling out.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Server wraps the mcp-go MCPServer with the tool set registered.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates an MCP server with every schema tool registered.
func NewServer(name, version string, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcp:    mcpServer,
		logger: logger,
	}
	s.registerTools()
	return s
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks serving MCP requests on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.registerSchemaToSQL()
	s.registerCreateDatabase()
	s.registerExtractSchema()
	s.registerValidateSchema()
	s.registerMergeSchemas()
	s.registerCompareModels()
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}
