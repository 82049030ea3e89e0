package runtime

import (
	"codeinspector/internal/core/config"
	"strings"
)

type ToolAllowlist struct {
	allowAll bool
	allowed  map[string]bool
}

func BuildToolAllowlist(cfg *config.Config) ToolAllowlist {
	if cfg == nil || len(cfg.MCP.AllowedTools) == 0 {
		return ToolAllowlist{allowAll: true}
	}
	allowed := make(map[string]bool)
	for _, entry := range cfg.MCP.AllowedTools {
		name := normalizeToolAlias(entry)
		if name == "" {
			continue
		}
		allowed[name] = true
	}
	return ToolAllowlist{allowed: allowed}
}

func (a ToolAllowlist) Allows(name string) bool {
	if a.allowAll {
		return true
	}
	return a.allowed[name]
}

// normalizeToolAlias accepts tool names in dotted or dashed form, so
// "analyze.security" and "analyze-security" both name analyze_security.
func normalizeToolAlias(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	value = strings.NewReplacer(".", "_", "-", "_").Replace(value)
	switch value {
	case "compare":
		return "compare_code"
	case "syntax", "tree_sitter":
		return "parse_syntax"
	case "scan":
		return "scan_paths"
	case "trend", "trends":
		return "history_trend"
	default:
		return value
	}
}
