package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/recap/core"
	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

func (h *toolHandler) handleGenerateReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.Quiet = true // MCP clients get JSON, not the stderr banner

	quarter := request.GetString("quarter", "")
	start := request.GetString("start", "")
	end := request.GetString("end", "")

	if quarter != "" && (start != "" || end != "") {
		return mcp.NewToolResultError("quarter cannot be combined with start or end"), nil
	}

	now := time.Now()
	switch {
	case quarter != "":
		window, err := contract.ParseQuarter(quarter, now)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid window: %v", err)), nil
		}
		cfg.Window = window
	case start != "":
		window, err := parseBounds(start, end, now)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid window: %v", err)), nil
		}
		cfg.Window = window
	case end != "":
		return mcp.NewToolResultError("start is required when end is given"), nil
	}

	if actor := request.GetString("actor", ""); actor != "" {
		members := membersMatching(cfg.Members, actor)
		if len(members) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("unknown actor '%s'", actor)), nil
		}
		cfg.Members = members
	}

	report, err := core.Execute(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("report failed: %v", err)), nil
	}

	payload := struct {
		Window schema.ReportingWindow `json:"window"`
		Label  string                 `json:"label"`
		Groups []schema.EnrichedGroup `json:"groups"`
		Meta   schema.RunMeta         `json:"meta"`
	}{
		Window: report.Window,
		Label:  report.Window.Label(),
		Groups: schema.EnrichGroups(report.Groups),
		Meta:   report.Meta,
	}
	jsonData, _ := json.MarshalIndent(payload, "", "  ")

	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleProbeSources(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	results := core.ProbeSources(ctx, h.baseCfg)

	jsonData, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleCacheStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	payload := struct {
		Cache  *schema.CacheStatus  `json:"cache,omitempty"`
		Ledger *schema.LedgerStatus `json:"ledger,omitempty"`
	}{}

	if store := h.mgr.GetFetchStore(); store != nil {
		status, err := store.GetStatus()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("cache status failed: %v", err)), nil
		}
		payload.Cache = &status
	}
	if ledger := h.mgr.GetLedgerStore(); ledger != nil {
		status, err := ledger.GetStatus()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("ledger status failed: %v", err)), nil
		}
		payload.Ledger = &status
	}

	jsonData, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// parseBounds builds an explicit window from start/end expressions, with
// end defaulting to now.
func parseBounds(startExpr, endExpr string, now time.Time) (schema.ReportingWindow, error) {
	start, err := contract.ParseWindowTime(startExpr, now)
	if err != nil {
		return schema.ReportingWindow{}, fmt.Errorf("invalid start: %w", err)
	}

	end := now
	if endExpr != "" {
		end, err = contract.ParseWindowTime(endExpr, now)
		if err != nil {
			return schema.ReportingWindow{}, fmt.Errorf("invalid end: %w", err)
		}
	}

	window := schema.ReportingWindow{Start: start, End: end}
	if !window.Valid() {
		return schema.ReportingWindow{}, fmt.Errorf("start time must be before end time")
	}
	return window, nil
}

// membersMatching filters members by name or any source identity.
func membersMatching(members []contract.Member, actor string) []contract.Member {
	var out []contract.Member
	for _, m := range members {
		if strings.EqualFold(m.Name, actor) || strings.EqualFold(m.GitHub, actor) || strings.EqualFold(m.Bugzilla, actor) {
			out = append(out, m)
		}
	}
	return out
}
