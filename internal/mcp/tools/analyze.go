package tools

import (
	"codeinspector/internal/core/ports"
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	ToolAnalyzeStructure = "analyze_structure"
	ToolAnalyzeMetrics   = "analyze_metrics"
	ToolAnalyzeSmells    = "analyze_smells"
	ToolAnalyzeSecurity  = "analyze_security"
	ToolCompareCode      = "compare_code"
	ToolParseSyntax      = "parse_syntax"
	ToolAnalyzeFile      = "analyze_file"
)

// engineTool runs one single-text operation of the analysis service.
type engineTool struct {
	name        string
	description string
	run         func(ctx context.Context, code string) (interface{}, error)
}

func (t *engineTool) Definition() mcp.Tool {
	return mcp.NewTool(t.name,
		mcp.WithDescription(t.description),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Source text to analyse"),
		),
	)
}

func (t *engineTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, ok := req.GetArguments()["code"].(string); !ok {
		return invalidArgument("code is required")
	}
	res, err := t.run(ctx, req.GetString("code", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

func NewStructureTool(svc ports.AnalysisService) Tool {
	return &engineTool{
		name:        ToolAnalyzeStructure,
		description: "Parse the brace-delimited block structure of source text and report cyclomatic complexity per block.",
		run: func(ctx context.Context, code string) (interface{}, error) {
			return svc.AnalyzeStructure(ctx, code)
		},
	}
}

func NewMetricsTool(svc ports.AnalysisService) Tool {
	return &engineTool{
		name:        ToolAnalyzeMetrics,
		description: "Compute size, complexity, Halstead and maintainability metrics for source text.",
		run: func(ctx context.Context, code string) (interface{}, error) {
			return svc.AnalyzeMetrics(ctx, code)
		},
	}
}

func NewSmellsTool(svc ports.AnalysisService) Tool {
	return &engineTool{
		name:        ToolAnalyzeSmells,
		description: "Detect code smells such as long methods, large classes and duplicated lines.",
		run: func(ctx context.Context, code string) (interface{}, error) {
			return svc.AnalyzeSmells(ctx, code)
		},
	}
}

func NewSecurityTool(svc ports.AnalysisService) Tool {
	return &engineTool{
		name:        ToolAnalyzeSecurity,
		description: "Detect vulnerability patterns and rule violations, with risk scores and a text report.",
		run: func(ctx context.Context, code string) (interface{}, error) {
			return svc.AnalyzeSecurity(ctx, code)
		},
	}
}

type CompareTool struct {
	svc ports.AnalysisService
}

func NewCompareTool(svc ports.AnalysisService) *CompareTool {
	return &CompareTool{svc: svc}
}

func (t *CompareTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolCompareCode,
		mcp.WithDescription("Compare two source texts: line diff similarity, duplicated lines and metrics of both sides."),
		mcp.WithString("code1", mcp.Required(), mcp.Description("First source text")),
		mcp.WithString("code2", mcp.Required(), mcp.Description("Second source text")),
	)
}

func (t *CompareTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	_, ok1 := args["code1"].(string)
	_, ok2 := args["code2"].(string)
	if !ok1 || !ok2 {
		return invalidArgument("code1 and code2 are required")
	}
	res, err := t.svc.Compare(ctx, req.GetString("code1", ""), req.GetString("code2", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(res)
}

type SyntaxTool struct {
	svc ports.AnalysisService
}

func NewSyntaxTool(svc ports.AnalysisService) *SyntaxTool {
	return &SyntaxTool{svc: svc}
}

func (t *SyntaxTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolParseSyntax,
		mcp.WithDescription("Parse source text with tree-sitter and return the node tree."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source text to parse")),
		mcp.WithString("language", mcp.Description("Grammar name, defaults to java")),
	)
}

func (t *SyntaxTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, ok := req.GetArguments()["code"].(string); !ok {
		return invalidArgument("code is required")
	}
	tree, err := t.svc.ParseSyntax(ctx, req.GetString("language", "java"), req.GetString("code", ""))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(tree)
}

// AnalyzeFileTool runs a selection of engines and returns the composite
// file report.
type AnalyzeFileTool struct {
	svc ports.AnalysisService
}

func NewAnalyzeFileTool(svc ports.AnalysisService) *AnalyzeFileTool {
	return &AnalyzeFileTool{svc: svc}
}

func (t *AnalyzeFileTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolAnalyzeFile,
		mcp.WithDescription("Run the selected engines over one source text and return a composite report with headline scores."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source text to analyse")),
		mcp.WithString("path", mcp.Description("Display path of the source")),
		mcp.WithString("engines", mcp.Description("all, or a comma separated list of structure, metrics, smells and security")),
	)
}

func (t *AnalyzeFileTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, ok := req.GetArguments()["code"].(string); !ok {
		return invalidArgument("code is required")
	}
	engines, err := ports.ParseEngines(req.GetString("engines", ""))
	if err != nil {
		return invalidArgument(err.Error())
	}
	report, err := t.svc.AnalyzeAll(ctx, req.GetString("path", ""), req.GetString("code", ""), engines)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(report)
}
