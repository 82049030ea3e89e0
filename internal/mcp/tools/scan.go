package tools

import (
	"codeinspector/internal/core/ports"
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

const ToolScanPaths = "scan_paths"

type ScanTool struct {
	svc ports.AnalysisService
}

func NewScanTool(svc ports.AnalysisService) *ScanTool {
	return &ScanTool{svc: svc}
}

func (t *ScanTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolScanPaths,
		mcp.WithDescription("Scan files or directories on the server and return the composite report. Uses the configured scan paths when none are given."),
		mcp.WithString("paths", mcp.Description("Comma separated files or directories")),
		mcp.WithString("engines", mcp.Description("all, or a comma separated list of engines")),
		mcp.WithBoolean("save_history", mcp.Description("Store one history snapshot per file")),
	)
}

func (t *ScanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	engines, err := ports.ParseEngines(req.GetString("engines", ""))
	if err != nil {
		return invalidArgument(err.Error())
	}
	report, err := t.svc.Scan(ctx, ports.ScanRequest{
		Paths:       splitList(req.GetString("paths", ""), maxPathCount),
		Engines:     engines,
		SaveHistory: boolArg(req, "save_history", false),
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(report)
}
