// Package runtime assembles the MCP server from configuration and the
// analysis service.
package runtime

import (
	"codeinspector/internal/core/config"
	"codeinspector/internal/mcp/tools"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
)

const serverInstructions = `codeinspector analyses Java-like source text.
Use analyze_security for vulnerability findings, analyze_metrics for size and
maintainability, analyze_smells for design smells and analyze_structure for the
block tree. analyze_file combines them. compare_code diffs two texts and
parse_syntax returns a tree-sitter node tree.`

type Server struct {
	mcp   *server.MCPServer
	tools []string
}

// New registers every allowed tool. It fails when the allowlist leaves no
// tool to serve.
func New(cfg *config.Config, deps tools.Deps) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Project == "" {
		deps.Project = cfg.DB.Project
	}

	s := server.NewMCPServer(
		cfg.MCP.ServerName,
		cfg.MCP.ServerVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	allow := BuildToolAllowlist(cfg)
	var registered []string
	for _, tool := range tools.All(deps) {
		def := tool.Definition()
		if !allow.Allows(def.Name) {
			slog.Debug("mcp tool not allowed", "tool", def.Name)
			continue
		}
		s.AddTool(def, tool.Handle)
		registered = append(registered, def.Name)
	}
	if len(registered) == 0 {
		return nil, fmt.Errorf("no mcp tools enabled; check mcp.allowed_tools")
	}
	return &Server{mcp: s, tools: registered}, nil
}

// Tools returns the registered tool names in registration order.
func (s *Server) Tools() []string {
	out := make([]string, len(s.tools))
	copy(out, s.tools)
	return out
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio blocks serving JSON-RPC over stdin and stdout.
func (s *Server) ServeStdio() error {
	slog.Info("mcp server listening on stdio", "tools", len(s.tools))
	return server.ServeStdio(s.mcp)
}
