// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/recap/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Recap MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Recap Activity Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: generate_report ---
	s.AddTool(mcp.NewTool("generate_report",
		mcp.WithDescription("Aggregate GitHub and Bugzilla activity into a quarterly report grouped by actor and project."),
		mcp.WithString("quarter", mcp.Description("Quarter expression ('2024Q2', 'current', 'last'). Defaults to the configured window.")),
		mcp.WithString("start", mcp.Description("Window start (RFC3339, '2006-01-02' or 'N months ago'). Cannot be combined with quarter.")),
		mcp.WithString("end", mcp.Description("Window end, same forms as start. Defaults to now when start is given.")),
		mcp.WithString("actor", mcp.Description("Restrict the report to one configured member, by name or source identity.")),
	), h.handleGenerateReport)

	// --- 2. Tool: probe_sources ---
	s.AddTool(mcp.NewTool("probe_sources",
		mcp.WithDescription("Check that every enabled activity source is reachable with the configured credentials."),
	), h.handleProbeSources)

	// --- 3. Tool: cache_status ---
	s.AddTool(mcp.NewTool("cache_status",
		mcp.WithDescription("Report fetch cache and run ledger backend status."),
	), h.handleCacheStatus)

	return s
}

// StartMCPServer starts the Recap MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
