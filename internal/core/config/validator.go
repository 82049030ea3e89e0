package config

import (
	"codeinspector/internal/engine/rules"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version < 1 {
		return fmt.Errorf("version must be >= 1, got %d", cfg.Version)
	}
	if cfg.Version > 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.MaxDepth < 1 || cfg.Analysis.MaxDepth > 10000 {
		return fmt.Errorf("analysis.max_depth must be between 1 and 10000")
	}
	if cfg.Analysis.MaxSourceBytes < 1 {
		return fmt.Errorf("analysis.max_source_bytes must be >= 1")
	}
	return nil
}

func validateSecurity(cfg *Config) error {
	seen := make(map[string]bool, len(cfg.Security.Patterns))
	for i, pattern := range cfg.Security.Patterns {
		ref := fmt.Sprintf("security.patterns[%d]", i)
		if strings.TrimSpace(pattern.Type) == "" {
			return fmt.Errorf("%s.type must not be empty", ref)
		}
		if seen[pattern.Type] {
			return fmt.Errorf("duplicate security pattern type %q", pattern.Type)
		}
		seen[pattern.Type] = true

		expr := strings.TrimSpace(pattern.Regex)
		if expr == "" {
			return fmt.Errorf("%s.regex must not be empty", ref)
		}
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("%s.regex is invalid: %w", ref, err)
		}
		if _, err := rules.ParseSeverity(pattern.Severity); err != nil {
			return fmt.Errorf("%s.severity must be one of: CRITICAL, HIGH, MEDIUM, LOW", ref)
		}
	}
	if cfg.Security.FailOn != "" {
		if _, err := rules.ParseSeverity(cfg.Security.FailOn); err != nil {
			return fmt.Errorf("security.fail_on must be one of: CRITICAL, HIGH, MEDIUM, LOW")
		}
	}
	return nil
}

func validateScan(cfg *Config) error {
	if len(cfg.Scan.Extensions) == 0 {
		return fmt.Errorf("scan.extensions must not be empty")
	}
	for i, pattern := range cfg.Scan.Exclude.Dirs {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("scan.exclude.dirs[%d] %q is not a valid glob: %w", i, pattern, err)
		}
	}
	for i, pattern := range cfg.Scan.Exclude.Files {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("scan.exclude.files[%d] %q is not a valid glob: %w", i, pattern, err)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

func validateDatabase(cfg *Config) error {
	if !cfg.DB.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	if strings.TrimSpace(cfg.DB.Project) == "" {
		return fmt.Errorf("db.project must not be empty")
	}
	return nil
}

func validateServer(cfg *Config) error {
	if cfg.Server.RateLimit <= 0 {
		return fmt.Errorf("server.rate_limit must be > 0")
	}
	if cfg.Server.Burst < 1 {
		return fmt.Errorf("server.burst must be >= 1")
	}
	if cfg.Server.Enabled && strings.TrimSpace(cfg.Server.Address) == "" {
		return fmt.Errorf("server.address must not be empty when server.enabled=true")
	}
	for i, origin := range cfg.Server.AllowedOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("server.allowed_origins[%d] must not be empty", i)
		}
	}
	return nil
}

func validateMCP(cfg *Config) error {
	if !cfg.MCP.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.MCP.ServerName) == "" {
		return fmt.Errorf("mcp.server_name must not be empty when mcp.enabled=true")
	}
	if strings.TrimSpace(cfg.MCP.ServerVersion) == "" {
		return fmt.Errorf("mcp.server_version must not be empty when mcp.enabled=true")
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if cfg.Observability.Enabled && (cfg.Observability.Port < 1 || cfg.Observability.Port > 65535) {
		return fmt.Errorf("observability.port must be between 1 and 65535")
	}
	return nil
}

func validateOutput(cfg *Config) error {
	if !slices.Contains(OutputFormats, cfg.Output.Format) {
		return fmt.Errorf("output.format must be one of: %s", strings.Join(OutputFormats, ", "))
	}
	return nil
}

// Validate runs every check and collects all failures, including path
// checks that Load skips.
func Validate(cfg *Config) []error {
	var errs []error
	for _, validate := range []func(*Config) error{
		validateVersion,
		validateAnalysis,
		validateSecurity,
		validateScan,
		validateWatch,
		validateDatabase,
		validateServer,
		validateMCP,
		validateObservability,
		validateOutput,
	} {
		if err := validate(cfg); err != nil {
			errs = append(errs, err)
		}
	}

	errs = append(errs, validateConfigDependencies(cfg)...)
	errs = append(errs, validatePaths(cfg)...)
	return errs
}

func validateConfigDependencies(cfg *Config) []error {
	var errs []error
	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		errs = append(errs, fmt.Errorf("observability.otlp_endpoint is required when observability.enable_tracing=true"))
	}
	if cfg.Server.Enabled && cfg.Observability.Enabled && strings.HasSuffix(cfg.Server.Address, fmt.Sprintf(":%d", cfg.Observability.Port)) {
		errs = append(errs, fmt.Errorf("server.address and observability.port share port %d", cfg.Observability.Port))
	}
	return errs
}

func validatePaths(cfg *Config) []error {
	var errs []error
	for i, path := range cfg.Scan.Paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("scan.paths[%d] %q does not exist", i, path))
		}
	}
	return errs
}
