package reporters

import (
	"fmt"
	"io"

	"github.com/reaandrew/migrationlint/core"
)

// TextReporter writes "<line>: [<rule>] <description>" per finding. With
// Headers set, the findings of each file are preceded by a "# <path>" line.
type TextReporter struct {
	Writer  io.Writer
	Headers bool
}

func (t TextReporter) Report(repository core.ReportRepository) error {
	reports, err := core.CollectReports(repository)
	if err != nil {
		return fmt.Errorf("failed to retrieve reports: %w", err)
	}

	for _, report := range reports {
		if !report.HasFindings() {
			continue
		}
		if t.Headers && report.SourcePath != "" {
			if _, err := fmt.Fprintf(t.Writer, "# %s\n", report.SourcePath); err != nil {
				return err
			}
		}
		for _, finding := range report.Findings {
			if _, err := fmt.Fprintf(t.Writer, "%d: [%s] %s\n", finding.LineNumber, finding.RuleID, finding.Description); err != nil {
				return err
			}
		}
	}
	return nil
}
