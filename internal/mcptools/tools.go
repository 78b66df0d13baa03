// Package mcptools exposes the ledger service as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/client"
)

// LedgerHandler serves day selection, summary and ledger tools.
type LedgerHandler struct {
	client *client.Client
}

func NewLedgerHandler(c *client.Client) *LedgerHandler { return &LedgerHandler{client: c} }

func (h *LedgerHandler) RegisterTools(s *server.MCPServer) error {
	selectDate := mcp.NewTool("select_date",
		mcp.WithDescription("Select the day to view; the service fetches its logs and records a ledger entry"),
		mcp.WithString("date", mcp.Required(), mcp.Description("Day as YYYY-MM-DD")),
		mcp.WithBoolean("wait", mcp.Description("Block until the fetch finished (default true)")),
	)
	summary := mcp.NewTool("get_summary",
		mcp.WithDescription("Return the daily summary of the selected day (study minutes, water, score)"),
	)
	ledger := mcp.NewTool("list_ledger",
		mcp.WithDescription("List every recorded day with its summary and feedback"),
	)
	rollup := mcp.NewTool("get_rollup",
		mcp.WithDescription("Aggregate the ledger over a daily, weekly or monthly window"),
		mcp.WithString("period", mcp.Required(), mcp.Description("daily | weekly | monthly")),
		mcp.WithString("date", mcp.Description("Reference day as YYYY-MM-DD (default today)")),
	)
	goals := mcp.NewTool("set_goals",
		mcp.WithDescription("Replace the daily goals and rescore every ledger entry"),
		mcp.WithNumber("water_ml", mcp.Required(), mcp.Description("Daily water goal in ml")),
		mcp.WithNumber("study_minutes", mcp.Required(), mcp.Description("Daily study goal in minutes")),
	)
	s.AddTool(selectDate, h.handleSelectDate)
	s.AddTool(summary, h.handleGetSummary)
	s.AddTool(ledger, h.handleListLedger)
	s.AddTool(rollup, h.handleGetRollup)
	s.AddTool(goals, h.handleSetGoals)
	return nil
}

func (h *LedgerHandler) handleSelectDate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	wait := true
	if v, ok := req.GetArguments()["wait"].(bool); ok {
		wait = v
	}

	log.Debug().Str("date", date).Bool("wait", wait).Msg("select_date invoked")

	start := time.Now()
	st, err := h.client.Select(ctx, date, wait)
	if err != nil {
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("select_date failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to select date: %v", err)), nil
	}
	return jsonResult(st)
}

func (h *LedgerHandler) handleGetSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log.Debug().Msg("get_summary invoked")

	sum, err := h.client.Summary(ctx)
	if err != nil {
		if client.IsNotFound(err) {
			return mcp.NewToolResultError("no date selected; call select_date first"), nil
		}
		log.Error().Err(err).Msg("get_summary failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to get summary: %v", err)), nil
	}
	return jsonResult(sum)
}

// handleListLedger trims entries to the fields an assistant reasons about.
func (h *LedgerHandler) handleListLedger(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log.Debug().Msg("list_ledger invoked")

	entries, err := h.client.ListLedger(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list_ledger failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to list ledger: %v", err)), nil
	}

	type lite struct {
		Date         string  `json:"date"`
		StudyMinutes float64 `json:"studyMinutes"`
		WaterMl      float64 `json:"waterMl"`
		Score        float64 `json:"score"`
		Feedback     string  `json:"feedback,omitempty"`
	}
	out := make([]lite, len(entries))
	for i, e := range entries {
		out[i] = lite{
			Date:         e.DateKey,
			StudyMinutes: e.Summary.CountedTotal,
			WaterMl:      e.Summary.WaterMl,
			Score:        e.Summary.Score,
			Feedback:     e.Feedback,
		}
	}
	return jsonResult(out)
}

func (h *LedgerHandler) handleGetRollup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period, err := req.RequireString("period")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var date string
	if v, ok := req.GetArguments()["date"].(string); ok {
		date = v
	}

	log.Debug().Str("period", period).Str("date", date).Msg("get_rollup invoked")

	r, err := h.client.Rollup(ctx, period, date)
	if err != nil {
		log.Error().Err(err).Msg("get_rollup failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to get rollup: %v", err)), nil
	}
	return jsonResult(r)
}

func (h *LedgerHandler) handleSetGoals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	water, ok1 := args["water_ml"].(float64) // JSON numbers decode as float64
	study, ok2 := args["study_minutes"].(float64)
	if !ok1 || !ok2 {
		return mcp.NewToolResultError("water_ml and study_minutes must be numbers"), nil
	}

	log.Debug().Float64("water_ml", water).Float64("study_minutes", study).Msg("set_goals invoked")

	g, err := h.client.SetGoals(ctx, client.Goals{WaterMl: water, StudyMinutes: study})
	if err != nil {
		log.Error().Err(err).Msg("set_goals failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to set goals: %v", err)), nil
	}
	return jsonResult(g)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}
