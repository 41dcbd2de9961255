// ABOUTME: MCP server initialization and configuration
// ABOUTME: Sets up server with tools and resources for AI agents

package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harper/beacon/internal/shortlink"
	"github.com/harper/beacon/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Deps are the stores the server reads and writes.
type Deps struct {
	Sessions *storage.SessionStore
	History  *storage.HistoryStore
	Links    *shortlink.Directory
	BaseURL  string
	Logger   *log.Logger
}

// Server wraps the MCP server with beacon's stores.
type Server struct {
	mcp      *mcp.Server
	sessions *storage.SessionStore
	history  *storage.HistoryStore
	links    *shortlink.Directory
	baseURL  string
	logger   *log.Logger
	now      func() time.Time
}

// NewServer creates MCP server with all capabilities.
func NewServer(deps Deps) (*Server, error) {
	if deps.Sessions == nil || deps.History == nil {
		return nil, fmt.Errorf("session and history stores are required")
	}
	if deps.Links == nil {
		return nil, fmt.Errorf("link directory is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "beacon",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:      mcpServer,
		sessions: deps.Sessions,
		history:  deps.History,
		links:    deps.Links,
		baseURL:  deps.BaseURL,
		logger:   logger.WithPrefix("mcp"),
		now:      time.Now,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("serving MCP over stdio")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}
