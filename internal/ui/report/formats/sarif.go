package formats

import (
	"bytes"
	"codeinspector/internal/core/ports"
	"codeinspector/internal/engine/rules"
	"codeinspector/internal/shared/version"

	"github.com/owenrumney/go-sarif/v2/sarif"
)

const (
	sarifToolName = "codeinspector"
	sarifToolURI  = "https://github.com/codeinspector/codeinspector"
)

// GenerateSARIF builds a SARIF v2.1.0 document with one rule per security
// issue type. File URIs are made relative to projectRoot.
func GenerateSARIF(report ports.Report, projectRoot string) ([]byte, error) {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, err
	}

	run := sarif.NewRunWithInformationURI(sarifToolName, sarifToolURI)
	toolVersion := version.Version
	run.Tool.Driver.SemanticVersion = &toolVersion
	for _, f := range report.Files {
		if f.Security == nil {
			continue
		}
		uri := displayPath(projectRoot, f)
		for _, issue := range f.Security.Issues() {
			level := sarifLevel(issue.Severity)
			rule := run.AddRule(issue.Type).
				WithDescription(issue.Description).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})

			region := sarif.NewRegion().WithStartLine(issue.Line)
			location := sarif.NewLocation().WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(uri)).
					WithRegion(region),
			)

			result := sarif.NewRuleResult(rule.ID).
				WithMessage(sarif.NewTextMessage(issue.Description + ". " + issue.Remediation)).
				WithLevel(level).
				WithLocations([]*sarif.Location{location})
			run.AddResult(result)
		}
	}
	doc.AddRun(run)

	var buf bytes.Buffer
	if err := doc.PrettyWrite(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sarifLevel(s rules.Severity) string {
	switch s {
	case rules.Critical, rules.High:
		return "error"
	case rules.Medium:
		return "warning"
	default:
		return "note"
	}
}
