package core

import "sort"

// StructuralWarningID is the rule id carried by findings that report a
// malformed source structure rather than a catalogued defect.
const StructuralWarningID = "STRUCTURAL"

type Finding struct {
	RuleID      string `json:"rule_id"`
	LineNumber  int    `json:"line_number"`
	Snippet     string `json:"snippet"`
	Description string `json:"description,omitempty"`
}

func (f Finding) IsStructural() bool {
	return f.RuleID == StructuralWarningID
}

// Report holds the findings of a single scanned source unit, ordered by line
// and then by rule id.
type Report struct {
	SourcePath string    `json:"path,omitempty"`
	Findings   []Finding `json:"findings"`
}

func (r Report) HasFindings() bool {
	return len(r.Findings) > 0
}

// SortFindings orders findings by (LineNumber, RuleID). The sort is stable so
// findings sharing both keys keep the order they were produced in.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].LineNumber != findings[j].LineNumber {
			return findings[i].LineNumber < findings[j].LineNumber
		}
		return findings[i].RuleID < findings[j].RuleID
	})
}

// CountFindings returns the total number of findings across reports.
func CountFindings(reports []Report) int {
	total := 0
	for _, report := range reports {
		total += len(report.Findings)
	}
	return total
}
