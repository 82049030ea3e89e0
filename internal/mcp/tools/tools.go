// Package tools provides the MCP tool handlers over the analysis service.
//
// Each tool is a struct with its dependencies injected by constructor.
// Definition returns the mcp.Tool schema and Handle serves a call. Results
// are JSON text; failures are tool errors rather than protocol errors.
package tools

import (
	domainerrors "codeinspector/internal/core/errors"
	"codeinspector/internal/core/ports"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const maxPathCount = 64

type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

type Deps struct {
	Service ports.AnalysisService
	History ports.HistoryStore
	Project string
}

// All returns every tool in registration order. Tools whose dependencies
// are missing are left out.
func All(deps Deps) []Tool {
	if deps.Service == nil {
		return nil
	}
	out := []Tool{
		NewStructureTool(deps.Service),
		NewMetricsTool(deps.Service),
		NewSmellsTool(deps.Service),
		NewSecurityTool(deps.Service),
		NewCompareTool(deps.Service),
		NewSyntaxTool(deps.Service),
		NewAnalyzeFileTool(deps.Service),
		NewScanTool(deps.Service),
	}
	if deps.History != nil {
		out = append(out, NewTrendTool(deps.History, deps.Project))
	}
	return out
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", domainerrors.CodeOf(err), err)), nil
}

func invalidArgument(msg string) (*mcp.CallToolResult, error) {
	return errorResult(domainerrors.New(domainerrors.CodeValidationError, msg))
}

// splitList accepts a comma or newline separated list, trimming blanks and
// duplicates.
func splitList(raw string, maxCount int) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' })
	seen := make(map[string]bool)
	out := make([]string, 0, len(fields))
	for _, v := range fields {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		if maxCount > 0 && len(out) >= maxCount {
			break
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	return out
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}
