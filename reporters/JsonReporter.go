package reporters

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/reaandrew/migrationlint/core"
)

type JsonReporter struct {
	Writer io.Writer
}

func (j JsonReporter) Report(repository core.ReportRepository) error {
	reports, err := core.CollectReports(repository)
	if err != nil {
		return fmt.Errorf("failed to retrieve reports: %w", err)
	}

	jsonBytes, err := json.MarshalIndent(Records(reports), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal findings to JSON: %w", err)
	}
	if _, err := j.Writer.Write(append(jsonBytes, '\n')); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}
