package tools

import (
	"codeinspector/internal/core/ports"
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const ToolHistoryTrend = "history_trend"

type TrendTool struct {
	store   ports.HistoryStore
	project string
}

func NewTrendTool(store ports.HistoryStore, project string) *TrendTool {
	return &TrendTool{store: store, project: project}
}

func (t *TrendTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolHistoryTrend,
		mcp.WithDescription("Show how one file's maintainability, smell and risk scores moved across stored runs."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path as recorded in history")),
		mcp.WithString("project", mcp.Description("Project name, defaults to the configured project")),
	)
}

func (t *TrendTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := strings.TrimSpace(req.GetString("path", ""))
	if path == "" {
		return invalidArgument("path is required")
	}
	project := strings.TrimSpace(req.GetString("project", t.project))
	trend, err := t.store.Trend(ctx, project, path)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(trend)
}
