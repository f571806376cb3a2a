package reporters

import (
	"fmt"
	"sort"

	"github.com/reaandrew/migrationlint/core"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	DefaultXlsxReport = "migrationlint_report.xlsx"
	FindingsSheet     = "Findings"
	SummarySheet      = "Summary"
)

// XlsxReporter writes a workbook with one row per finding and a per-rule
// summary sheet.
type XlsxReporter struct {
	OutputFile string
}

func (x XlsxReporter) outputFile() string {
	if x.OutputFile == "" {
		return DefaultXlsxReport
	}
	return x.OutputFile
}

func (x XlsxReporter) Report(repository core.ReportRepository) error {
	reports, err := core.CollectReports(repository)
	if err != nil {
		return fmt.Errorf("failed to retrieve reports: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(FindingsSheet); err != nil {
		return fmt.Errorf("failed to create sheet '%s': %w", FindingsSheet, err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create sheet '%s': %w", SummarySheet, err)
	}

	headers := []interface{}{"Path", "Line", "Rule", "Description", "Snippet"}
	if err := f.SetSheetRow(FindingsSheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set headers for sheet '%s': %w", FindingsSheet, err)
	}

	counts := make(map[string]int)
	rowNum := 2
	for _, record := range Records(reports) {
		rowData := []interface{}{record.Path, record.LineNumber, record.RuleID, record.Description, record.Snippet}
		if err := setRow(f, FindingsSheet, rowNum, rowData); err != nil {
			return err
		}
		counts[record.RuleID]++
		rowNum++
	}

	summaryHeaders := []interface{}{"Rule", "Findings"}
	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeaders); err != nil {
		return fmt.Errorf("failed to set headers for sheet '%s': %w", SummarySheet, err)
	}
	ruleIDs := make([]string, 0, len(counts))
	for ruleID := range counts {
		ruleIDs = append(ruleIDs, ruleID)
	}
	sort.Strings(ruleIDs)
	for i, ruleID := range ruleIDs {
		if err := setRow(f, SummarySheet, i+2, []interface{}{ruleID, counts[ruleID]}); err != nil {
			return err
		}
	}

	if f.GetSheetName(0) == "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}
	if index, err := f.GetSheetIndex(FindingsSheet); err == nil {
		f.SetActiveSheet(index)
	}

	if err := f.SaveAs(x.outputFile()); err != nil {
		return fmt.Errorf("failed to save XLSX file '%s': %w", x.outputFile(), err)
	}

	log.Infof("XLSX report generated successfully: %s", x.outputFile())
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, rowData []interface{}) error {
	cellAddress, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to get cell address for row %d in sheet '%s': %w", rowNum, sheet, err)
	}
	if err := f.SetSheetRow(sheet, cellAddress, &rowData); err != nil {
		return fmt.Errorf("failed to set data for row %d in sheet '%s': %w", rowNum, sheet, err)
	}
	return nil
}
