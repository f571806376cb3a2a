package reporters

import "github.com/reaandrew/migrationlint/core"

// FindingRecord is the flat, machine-readable form of one finding.
type FindingRecord struct {
	Path        string `json:"path"`
	LineNumber  int    `json:"line_number"`
	RuleID      string `json:"rule_id"`
	Description string `json:"description"`
	Snippet     string `json:"snippet"`
}

// Records flattens reports keeping report order and finding order.
func Records(reports []core.Report) []FindingRecord {
	records := make([]FindingRecord, 0, core.CountFindings(reports))
	for _, report := range reports {
		for _, finding := range report.Findings {
			records = append(records, FindingRecord{
				Path:        report.SourcePath,
				LineNumber:  finding.LineNumber,
				RuleID:      finding.RuleID,
				Description: finding.Description,
				Snippet:     finding.Snippet,
			})
		}
	}
	return records
}
