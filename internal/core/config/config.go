package config

import (
	"codeinspector/internal/shared/version"
	"time"
)

// DefaultPath is probed when no -config flag is given.
const DefaultPath = "codeinspector.toml"

// OutputFormats lists the report renderers accepted by output.format.
var OutputFormats = []string{"text", "json", "yaml", "markdown", "sarif", "tsv"}

type Config struct {
	Version       int           `toml:"version"`
	Analysis      Analysis      `toml:"analysis"`
	Security      Security      `toml:"security"`
	Scan          Scan          `toml:"scan"`
	Watch         Watch         `toml:"watch"`
	DB            Database      `toml:"db"`
	Server        Server        `toml:"server"`
	MCP           MCP           `toml:"mcp"`
	Observability Observability `toml:"observability"`
	Output        Output        `toml:"output"`
}

type Analysis struct {
	MaxDepth       int   `toml:"max_depth"`
	MaxSourceBytes int64 `toml:"max_source_bytes"`
}

type Security struct {
	Patterns      []SecurityPattern `toml:"patterns"`
	DisabledTypes []string          `toml:"disabled_types"`
	// FailOn makes one-shot runs exit non-zero when an issue at or above
	// this severity is found. Empty disables the gate.
	FailOn string `toml:"fail_on"`
}

type SecurityPattern struct {
	Type        string `toml:"type"`
	Regex       string `toml:"regex"`
	Severity    string `toml:"severity"`
	Description string `toml:"description"`
	Remediation string `toml:"remediation"`
}

type Scan struct {
	Paths      []string `toml:"paths"`
	Extensions []string `toml:"extensions"`
	Exclude    Exclude  `toml:"exclude"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Database struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	Project     string        `toml:"project"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
}

type Server struct {
	Enabled        bool          `toml:"enabled"`
	Address        string        `toml:"address"`
	AllowedOrigins []string      `toml:"allowed_origins"`
	RateLimit      float64       `toml:"rate_limit"`
	Burst          int           `toml:"burst"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

type MCP struct {
	Enabled       bool     `toml:"enabled"`
	ServerName    string   `toml:"server_name"`
	ServerVersion string   `toml:"server_version"`
	// AllowedTools limits which tools are registered. Empty allows all.
	AllowedTools  []string `toml:"allowed_tools"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Port          int    `toml:"port"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
	EnableMetrics bool   `toml:"enable_metrics"`
}

type Output struct {
	Format string `toml:"format"`
	Path   string `toml:"path"`
}

// Default returns the configuration used when no file is present. Load
// decodes on top of it, so omitted keys keep these values.
func Default() *Config {
	return &Config{
		Version: 1,
		Analysis: Analysis{
			MaxDepth:       256,
			MaxSourceBytes: 1 << 20,
		},
		Scan: Scan{
			Paths:      []string{"."},
			Extensions: []string{".java"},
			Exclude: Exclude{
				Dirs: []string{".git", "target", "build", "node_modules"},
			},
		},
		Watch: Watch{Debounce: 500 * time.Millisecond},
		DB: Database{
			Enabled:     true,
			Path:        "data/codeinspector.db",
			Project:     "default",
			BusyTimeout: 5 * time.Second,
		},
		Server: Server{
			Address:        "127.0.0.1:8080",
			RateLimit:      10,
			Burst:          20,
			RequestTimeout: 30 * time.Second,
		},
		MCP: MCP{
			ServerName:    "codeinspector",
			ServerVersion: version.Version,
		},
		Observability: Observability{
			Port:          9090,
			EnableMetrics: true,
		},
		Output: Output{Format: "text"},
	}
}
