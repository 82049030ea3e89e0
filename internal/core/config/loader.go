package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse decodes TOML text on top of Default and validates the result.
func Parse(data string) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	normalizeScan(cfg)
	normalizeSecurity(cfg)
	normalizeOutput(cfg)

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
			return nil, err
		}
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to Default when path is the
// implicit DefaultPath and does not exist.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return nil, err
}

// applyDefaults restores values a file set to empty or zero.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Version == 0 {
		cfg.Version = def.Version
	}
	if cfg.Analysis.MaxDepth == 0 {
		cfg.Analysis.MaxDepth = def.Analysis.MaxDepth
	}
	if cfg.Analysis.MaxSourceBytes == 0 {
		cfg.Analysis.MaxSourceBytes = def.Analysis.MaxSourceBytes
	}
	if len(cfg.Scan.Paths) == 0 {
		cfg.Scan.Paths = def.Scan.Paths
	}
	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = def.Scan.Extensions
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = def.Watch.Debounce
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = def.DB.Path
	}
	if strings.TrimSpace(cfg.DB.Project) == "" {
		cfg.DB.Project = def.DB.Project
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = def.DB.BusyTimeout
	}
	if strings.TrimSpace(cfg.Server.Address) == "" {
		cfg.Server.Address = def.Server.Address
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = def.Server.RequestTimeout
	}
	if strings.TrimSpace(cfg.MCP.ServerName) == "" {
		cfg.MCP.ServerName = def.MCP.ServerName
	}
	if strings.TrimSpace(cfg.MCP.ServerVersion) == "" {
		cfg.MCP.ServerVersion = def.MCP.ServerVersion
	}
	if cfg.Observability.Port == 0 {
		cfg.Observability.Port = def.Observability.Port
	}
	if strings.TrimSpace(cfg.Output.Format) == "" {
		cfg.Output.Format = def.Output.Format
	}
}

func normalizeScan(cfg *Config) {
	exts := make([]string, 0, len(cfg.Scan.Extensions))
	for _, ext := range cfg.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	cfg.Scan.Extensions = exts
	cfg.Scan.Exclude.Dirs = trimAll(cfg.Scan.Exclude.Dirs)
	cfg.Scan.Exclude.Files = trimAll(cfg.Scan.Exclude.Files)
}

func normalizeSecurity(cfg *Config) {
	for i := range cfg.Security.Patterns {
		p := &cfg.Security.Patterns[i]
		p.Type = strings.ToUpper(strings.TrimSpace(p.Type))
		p.Severity = strings.ToUpper(strings.TrimSpace(p.Severity))
	}
	disabled := trimAll(cfg.Security.DisabledTypes)
	for i := range disabled {
		disabled[i] = strings.ToUpper(disabled[i])
	}
	cfg.Security.DisabledTypes = disabled
	cfg.Security.FailOn = strings.ToUpper(strings.TrimSpace(cfg.Security.FailOn))
}

func normalizeOutput(cfg *Config) {
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Output.Path = strings.TrimSpace(cfg.Output.Path)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
