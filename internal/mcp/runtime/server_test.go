package runtime

import (
	"codeinspector/internal/core/app"
	"codeinspector/internal/core/config"
	"codeinspector/internal/mcp/tools"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeps(t *testing.T, cfg *config.Config) tools.Deps {
	t.Helper()
	a, err := app.NewWithDependencies(cfg, app.Dependencies{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return tools.Deps{Service: a.AnalysisService()}
}

func TestNewRegistersAllTools(t *testing.T) {
	cfg := config.Default()
	cfg.DB.Enabled = false

	srv, err := New(cfg, newDeps(t, cfg))
	require.NoError(t, err)
	assert.NotNil(t, srv.MCPServer())
	assert.Equal(t, []string{
		"analyze_structure", "analyze_metrics", "analyze_smells", "analyze_security",
		"compare_code", "parse_syntax", "analyze_file", "scan_paths",
	}, srv.Tools())
}

func TestNewAppliesAllowlist(t *testing.T) {
	cfg := config.Default()
	cfg.DB.Enabled = false
	cfg.MCP.AllowedTools = []string{"analyze.security", "Compare", "tree-sitter"}

	srv, err := New(cfg, newDeps(t, cfg))
	require.NoError(t, err)
	assert.Equal(t, []string{"analyze_security", "compare_code", "parse_syntax"}, srv.Tools())
}

func TestNewFailsWithEmptySelection(t *testing.T) {
	cfg := config.Default()
	cfg.DB.Enabled = false
	cfg.MCP.AllowedTools = []string{"nothing_here"}

	_, err := New(cfg, newDeps(t, cfg))
	assert.Error(t, err)

	_, err = New(nil, tools.Deps{})
	assert.Error(t, err)
}

func TestToolAllowlist(t *testing.T) {
	assert.True(t, BuildToolAllowlist(nil).Allows("anything"))

	cfg := config.Default()
	cfg.MCP.AllowedTools = []string{" scan ", "trends", ""}
	allow := BuildToolAllowlist(cfg)
	assert.True(t, allow.Allows("scan_paths"))
	assert.True(t, allow.Allows("history_trend"))
	assert.False(t, allow.Allows("analyze_metrics"))
}
