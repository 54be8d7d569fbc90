// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
)

// NewMCPServer initializes and configures the aimetrics MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, client contract.GitClient, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"AI Code Metrics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		client:  client,
		mgr:     mgr,
	}

	// --- 1. Tool: get_usage_stats ---
	s.AddTool(mcp.NewTool("get_usage_stats",
		mcp.WithDescription("Classify every commit message in the repository history by AI assistant signature."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository (defaults to current directory if not specified).")),
	), h.handleGetUsageStats)

	// --- 2. Tool: analyze_commits ---
	s.AddTool(mcp.NewTool("analyze_commits",
		mcp.WithDescription("Analyze recent commits with line stats and both AI classification axes."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository.")),
		mcp.WithNumber("days", mcp.Description("Number of days to analyze. Defaults to 7.")),
		mcp.WithNumber("max_count", mcp.Description("Limit the number of commits walked.")),
		mcp.WithBoolean("include_commits", mcp.Description("Include per-commit records in the response.")),
	), h.handleAnalyzeCommits)

	// --- 3. Tool: get_timeline ---
	s.AddTool(mcp.NewTool("get_timeline",
		mcp.WithDescription("Per-day commit and line activity split into AI-assisted and human work."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository.")),
		mcp.WithNumber("days", mcp.Description("Number of days to include. Defaults to 30.")),
	), h.handleGetTimeline)

	// --- 4. Tool: calculate_roi ---
	s.AddTool(mcp.NewTool("calculate_roi",
		mcp.WithDescription("Compute return on investment from the recorded timing and API usage observations."),
		mcp.WithNumber("days", mcp.Description("Number of days to include. Defaults to 30.")),
		mcp.WithNumber("hourly_rate", mcp.Description("Developer hourly rate in dollars.")),
	), h.handleCalculateROI)

	return s
}

// StartMCPServer starts the aimetrics MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, client contract.GitClient, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, client, mgr)
	return server.ServeStdio(s)
}
