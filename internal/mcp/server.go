package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shuangxuetwelve/docu-cat/internal/query"
)

// Server wraps the MCP server with its tool dependencies.
type Server struct {
	server *mcp.Server
	query  *query.Service
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(svc *query.Service) *Server {
	impl := &mcp.Implementation{
		Name:    "docu-cat",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_index",
		Description: "Search the repository's chunk index semantically. Returns the most similar file chunks with paths, positions, and similarity scores.",
	}, makeQueryHandler(svc))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the state of the chunk index: whether it exists, the commit it reflects, and how many chunks it holds.",
	}, makeStatusHandler(svc))

	return &Server{server: server, query: svc}
}

// Run starts the server on stdio and blocks until the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
