package mcpserver

import (
	"context"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/housekeep/internal/ledger"
	"github.com/giantswarm/housekeep/internal/orchestrator"
	"github.com/giantswarm/housekeep/internal/rules"
	"github.com/giantswarm/housekeep/pkg/logging"
)

// Processor is the part of the orchestrator the server needs.
type Processor interface {
	ProcessIID(ctx context.Context, iid int) (orchestrator.Report, error)
	PreviewLedger(ctx context.Context, iid int) (rendered, published string, scan ledger.Scan, err error)
	Rules() rules.Set
}

// Server wraps a processor and exposes it as MCP tools.
type Server struct {
	processor Processor
	mcpServer *server.MCPServer

	// One issue at a time.
	mu sync.Mutex
}

// New creates a server with all tools registered.
func New(processor Processor, version string) *Server {
	mcpServer := server.NewMCPServer(
		"housekeep",
		version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		processor: processor,
		mcpServer: mcpServer,
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Start serves MCP over stdin/stdout until ctx is cancelled or the client
// closes the connection.
func (s *Server) Start(ctx context.Context) error {
	logging.Info("MCPServer", "Serving MCP over stdio")
	return server.NewStdioServer(s.mcpServer).Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) registerTools() {
	reconcileTool := mcp.NewTool("reconcile_issue",
		mcp.WithDescription("Apply all housekeeping rules to one issue and report the changes"),
		mcp.WithNumber("iid",
			mcp.Required(),
			mcp.Description("Project-scoped issue number"),
		),
	)
	s.mcpServer.AddTool(reconcileTool, s.handleReconcileIssue)

	previewTool := mcp.NewTool("preview_ledger",
		mcp.WithDescription("Render the ledger summary of an issue without changing anything"),
		mcp.WithNumber("iid",
			mcp.Required(),
			mcp.Description("Project-scoped issue number"),
		),
		mcp.WithBoolean("diff",
			mcp.Description("Include a line diff against the published summary (default: false)"),
		),
	)
	s.mcpServer.AddTool(previewTool, s.handlePreviewLedger)

	listRulesTool := mcp.NewTool("list_rules",
		mcp.WithDescription("List the label groups, categories and closed labels in use"),
	)
	s.mcpServer.AddTool(listRulesTool, s.handleListRules)
}
