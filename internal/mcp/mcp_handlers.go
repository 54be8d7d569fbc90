package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ncolesummers/ai-code-metrics/core"
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	client  contract.GitClient
	mgr     contract.StoreManager
}

// configFor clones the base config and applies the common request arguments.
func (h *toolHandler) configFor(request mcp.CallToolRequest, defaultDays int) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("repo_path", ""); p != "" {
		cfg.RepoPath = p
	}
	if err := contract.RevalidateWindow(cfg, request.GetInt("days", defaultDays)); err != nil {
		return nil, err
	}
	return cfg, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleGetUsageStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request, h.baseCfg.Days)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	stats, err := core.RunStats(ctx, cfg, h.client)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("stats failed: %v", err)), nil
	}
	return jsonResult(stats), nil
}

func (h *toolHandler) handleAnalyzeCommits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request, contract.DefaultLookbackDays)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	maxCount := request.GetInt("max_count", 0)
	if maxCount < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: max_count cannot be negative, got %d", maxCount)), nil
	}
	cfg.MaxCount = maxCount

	report, err := core.RunAnalyze(ctx, cfg, h.client, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	if !request.GetBool("include_commits", false) {
		report.CommitData = nil
	}
	return jsonResult(report), nil
}

func (h *toolHandler) handleGetTimeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request, contract.DefaultTimelineDays)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	timeline, err := core.RunTimeline(ctx, cfg, h.client)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("timeline failed: %v", err)), nil
	}
	return jsonResult(timeline), nil
}

func (h *toolHandler) handleCalculateROI(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request, contract.DefaultROIDays)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if rate := request.GetFloat("hourly_rate", cfg.HourlyRate); rate >= 0 {
		cfg.HourlyRate = rate
	} else {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: hourly_rate cannot be negative, got %v", rate)), nil
	}

	report, err := core.RunROI(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("roi failed: %v", err)), nil
	}
	return jsonResult(report), nil
}
