// Package mcp exposes the triage service as MCP tools over stdio, so
// agent runtimes can drive triage passes and the debug shortcuts.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/triago/internal/engine"
	"github.com/rendis/triago/internal/refdata"
	"github.com/rendis/triago/internal/reply"
)

// TriagoServerDeps holds the dependencies for creating a TriagoServer.
type TriagoServerDeps struct {
	Executor *engine.Executor
	Registry *refdata.Registry
	Renderer *reply.Renderer
	Logger   *slog.Logger
}

// TriagoServer wraps an MCP server with triage-specific tool handlers.
type TriagoServer struct {
	executor  *engine.Executor
	registry  *refdata.Registry
	renderer  *reply.Renderer
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewTriagoServer creates a new TriagoServer with all tools registered.
func NewTriagoServer(deps TriagoServerDeps) *TriagoServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &TriagoServer{
		executor: deps.Executor,
		registry: deps.Registry,
		renderer: deps.Renderer,
		logger:   logger,
	}

	mcpSrv := server.NewMCPServer(
		"triago",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Triago triages customer support tickets. Use triago.invoke to run one workflow pass over a triage record (round-trip the returned record into the next call), triago.order_get to fetch an order, triago.classify to classify raw ticket text, and triago.reply_draft to render a reply template directly."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *TriagoServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *TriagoServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the registered MCP tools as ServerTool entries.
func (s *TriagoServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: invokeTool(), Handler: s.handleInvoke},
		{Tool: orderGetTool(), Handler: s.handleOrderGet},
		{Tool: classifyTool(), Handler: s.handleClassify},
		{Tool: replyDraftTool(), Handler: s.handleReplyDraft},
	}
}

// --- Tool definitions ---

func invokeTool() mcp.Tool {
	return mcp.NewTool("triago.invoke",
		mcp.WithDescription("Run one triage workflow pass over a record. Pass the full record from the previous call to continue a conversation; include admin_decision approve/reject to resolve the admin gate"),
		mcp.WithObject("record", mcp.Required(), mcp.Description("The triage record (messages, ticket_text, order_id, issue_type, evidence, recommendation, needs_admin, admin_decision, admin_notes, reply_draft)")),
	)
}

func orderGetTool() mcp.Tool {
	return mcp.NewTool("triago.order_get",
		mcp.WithDescription("Fetch a single order record by exact order ID"),
		mcp.WithString("order_id", mcp.Required(), mcp.Description("Order ID, e.g. ORD1234")),
	)
}

func classifyTool() mcp.Tool {
	return mcp.NewTool("triago.classify",
		mcp.WithDescription("Classify raw ticket text against the keyword rules, bypassing the workflow"),
		mcp.WithString("ticket_text", mcp.Required(), mcp.Description("The customer's ticket text")),
	)
}

func replyDraftTool() mcp.Tool {
	return mcp.NewTool("triago.reply_draft",
		mcp.WithDescription("Render a reply template directly from an issue type and an optional inline order payload"),
		mcp.WithString("issue_type", mcp.Required(), mcp.Description("Issue type, e.g. refund_request")),
		mcp.WithObject("order", mcp.Description("Order payload with customer_name and order_id")),
	)
}
