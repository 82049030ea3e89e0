package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: CODEINSPECTOR_[SECTION]_[KEY] (e.g., CODEINSPECTOR_SERVER_ADDRESS).
func ApplyEnvOverrides(cfg *Config) {
	// Analysis
	setEnvInt(&cfg.Analysis.MaxDepth, "CODEINSPECTOR_ANALYSIS_MAX_DEPTH")
	setEnvInt64(&cfg.Analysis.MaxSourceBytes, "CODEINSPECTOR_ANALYSIS_MAX_SOURCE_BYTES")

	// Security
	setEnvString(&cfg.Security.FailOn, "CODEINSPECTOR_SECURITY_FAIL_ON")
	setEnvList(&cfg.Security.DisabledTypes, "CODEINSPECTOR_SECURITY_DISABLED_TYPES")

	// Scan
	setEnvList(&cfg.Scan.Paths, "CODEINSPECTOR_SCAN_PATHS")
	setEnvList(&cfg.Scan.Extensions, "CODEINSPECTOR_SCAN_EXTENSIONS")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "CODEINSPECTOR_WATCH_DEBOUNCE")

	// Database
	setEnvBool(&cfg.DB.Enabled, "CODEINSPECTOR_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "CODEINSPECTOR_DB_PATH")
	setEnvString(&cfg.DB.Project, "CODEINSPECTOR_DB_PROJECT")
	setEnvDuration(&cfg.DB.BusyTimeout, "CODEINSPECTOR_DB_BUSY_TIMEOUT")

	// Server
	setEnvBool(&cfg.Server.Enabled, "CODEINSPECTOR_SERVER_ENABLED")
	setEnvString(&cfg.Server.Address, "CODEINSPECTOR_SERVER_ADDRESS")
	setEnvList(&cfg.Server.AllowedOrigins, "CODEINSPECTOR_SERVER_ALLOWED_ORIGINS")
	setEnvFloat64(&cfg.Server.RateLimit, "CODEINSPECTOR_SERVER_RATE_LIMIT")
	setEnvInt(&cfg.Server.Burst, "CODEINSPECTOR_SERVER_BURST")
	setEnvDuration(&cfg.Server.RequestTimeout, "CODEINSPECTOR_SERVER_REQUEST_TIMEOUT")

	// MCP
	setEnvBool(&cfg.MCP.Enabled, "CODEINSPECTOR_MCP_ENABLED")
	setEnvString(&cfg.MCP.ServerName, "CODEINSPECTOR_MCP_SERVER_NAME")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "CODEINSPECTOR_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "CODEINSPECTOR_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "CODEINSPECTOR_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "CODEINSPECTOR_OBSERVABILITY_ENABLE_TRACING")
	setEnvBool(&cfg.Observability.EnableMetrics, "CODEINSPECTOR_OBSERVABILITY_ENABLE_METRICS")

	// Output
	setEnvString(&cfg.Output.Format, "CODEINSPECTOR_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "CODEINSPECTOR_OUTPUT_PATH")

	normalizeScan(cfg)
	normalizeSecurity(cfg)
	normalizeOutput(cfg)
}

func logOverride(key, val string) {
	slog.Debug("applying env override", "key", key, "value", val)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		logOverride(key, val)
		*target = val
	}
}

// setEnvList splits a comma-separated value.
func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		logOverride(key, val)
		*target = trimAll(strings.Split(val, ","))
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			logOverride(key, val)
			*target = i
		}
	}
}

func setEnvInt64(target *int64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			logOverride(key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			logOverride(key, val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			logOverride(key, val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			logOverride(key, val)
			*target = d
		}
	}
}
