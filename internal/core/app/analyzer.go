package app

import (
	"codeinspector/internal/core/config"
	"codeinspector/internal/engine/compare"
	"codeinspector/internal/engine/metrics"
	"codeinspector/internal/engine/rules"
	"codeinspector/internal/engine/security"
	"codeinspector/internal/engine/smells"
	"codeinspector/internal/engine/structure"
	"codeinspector/internal/engine/syntax"
	"fmt"
)

// Analyzer holds one instance of every engine. All engines are safe for
// concurrent use, so a single Analyzer serves every request.
type Analyzer struct {
	Registry  *rules.Registry
	Structure *structure.Parser
	Metrics   *metrics.Engine
	Smells    *smells.Analyzer
	Security  *security.Analyzer
	Comparer  *compare.Comparer
	Syntax    *syntax.Parser
}

func NewAnalyzer(cfg *config.Config) (*Analyzer, error) {
	registry, err := rules.NewRegistry(RulesConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("build rule registry: %w", err)
	}
	maxDepth := 0
	if cfg != nil {
		maxDepth = cfg.Analysis.MaxDepth
	}
	return NewAnalyzerWithRegistry(registry, maxDepth), nil
}

func NewAnalyzerWithRegistry(registry *rules.Registry, maxDepth int) *Analyzer {
	metricsEngine := metrics.NewEngine()
	return &Analyzer{
		Registry:  registry,
		Structure: structure.NewParser(maxDepth),
		Metrics:   metricsEngine,
		Smells:    smells.NewAnalyzer(registry),
		Security:  security.NewAnalyzer(registry),
		Comparer:  compare.NewComparer(metricsEngine),
		Syntax:    syntax.NewParser(),
	}
}

// RulesConfig converts the [security] section into the rule registry's
// configuration.
func RulesConfig(cfg *config.Config) rules.Config {
	if cfg == nil {
		return rules.Config{}
	}
	out := rules.Config{
		DisabledTypes: append([]string(nil), cfg.Security.DisabledTypes...),
	}
	for _, p := range cfg.Security.Patterns {
		out.Patterns = append(out.Patterns, rules.PatternConfig{
			Type:        p.Type,
			Regex:       p.Regex,
			Severity:    p.Severity,
			Description: p.Description,
			Remediation: p.Remediation,
		})
	}
	return out
}
