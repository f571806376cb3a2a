package reporters

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"
	"github.com/reaandrew/migrationlint/catalog"
	"github.com/reaandrew/migrationlint/core"
)

const (
	ToolName           = "migrationlint"
	ToolInformationURI = "https://github.com/reaandrew/migrationlint"
	stdinArtifact      = "stdin"
)

// SarifReporter writes a SARIF 2.1.0 log. Every open rule of the catalog is
// declared in the run, matched or not.
type SarifReporter struct {
	Writer      io.Writer
	Catalog     *catalog.Catalog
	ToolVersion string
}

func (s SarifReporter) Report(repository core.ReportRepository) error {
	reports, err := core.CollectReports(repository)
	if err != nil {
		return fmt.Errorf("failed to retrieve reports: %w", err)
	}

	reportSarif, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(ToolName, ToolInformationURI)
	if s.ToolVersion != "" {
		version := s.ToolVersion
		run.Tool.Driver.Version = &version
	}
	if s.Catalog != nil {
		for _, rule := range s.Catalog.AllOpenRules() {
			run.AddRule(rule.ID).WithDescription(rule.Description)
		}
	}
	run.AddRule(core.StructuralWarningID).WithDescription("Malformed source structure")

	for _, report := range reports {
		uri := report.SourcePath
		if uri == "" {
			uri = stdinArtifact
		}
		for _, finding := range report.Findings {
			rule := run.AddRule(finding.RuleID)
			location := sarif.NewLocation().WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(uri)).
					WithRegion(sarif.NewRegion().WithStartLine(finding.LineNumber)),
			)
			result := sarif.NewRuleResult(rule.ID).
				WithMessage(sarif.NewTextMessage(finding.Description)).
				WithLevel(sarifLevel(finding)).
				WithLocations([]*sarif.Location{location})
			run.AddResult(result)
		}
	}
	reportSarif.AddRun(run)

	if err := reportSarif.PrettyWrite(s.Writer); err != nil {
		return fmt.Errorf("failed to write SARIF report: %w", err)
	}
	return nil
}

func sarifLevel(finding core.Finding) string {
	if finding.IsStructural() {
		return "note"
	}
	return "warning"
}
