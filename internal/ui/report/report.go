// Package report renders analysis reports in the configured output formats.
package report

import (
	"codeinspector/internal/core/ports"
	"codeinspector/internal/shared/util"
	"codeinspector/internal/shared/version"
	"codeinspector/internal/ui/report/formats"
	"fmt"
	"strings"
)

type Options struct {
	ProjectRoot string
	Verbosity   string
}

// Render turns report into bytes in the named format.
func Render(format string, report ports.Report, opts Options) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return []byte(formats.GenerateText(report, opts.ProjectRoot)), nil
	case "json":
		return formats.GenerateJSON(report)
	case "yaml":
		return formats.GenerateYAML(report)
	case "markdown":
		md, err := formats.NewMarkdownGenerator().Generate(report, formats.MarkdownReportOptions{
			ProjectName:         report.Project,
			ProjectRoot:         opts.ProjectRoot,
			Version:             version.Version,
			Verbosity:           opts.Verbosity,
			TableOfContents:     true,
			CollapsibleSections: true,
		})
		return []byte(md), err
	case "sarif":
		return formats.GenerateSARIF(report, opts.ProjectRoot)
	case "tsv":
		return []byte(formats.GenerateTSV(report, opts.ProjectRoot)), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// Write renders report and writes it to path, creating parent directories.
func Write(path, format string, report ports.Report, opts Options) error {
	data, err := Render(format, report, opts)
	if err != nil {
		return err
	}
	return util.WriteFileWithDirs(path, data, 0o644)
}
