package scanners

import (
	"context"
	"fmt"
	"sort"

	"github.com/reaandrew/migrationlint/core"
	log "github.com/sirupsen/logrus"
)

// DirectoryScanner scans a directory tree, stores the reports and hands the
// repository to the reporter.
type DirectoryScanner struct {
	reporter         core.Reporter
	fileScanner      FileScanner
	reportRepository core.ReportRepository
}

func NewDirectoryScanner(reporter core.Reporter,
	fileScanner FileScanner,
	reportRepository core.ReportRepository) *DirectoryScanner {
	return &DirectoryScanner{
		reporter:         reporter,
		fileScanner:      fileScanner,
		reportRepository: reportRepository,
	}
}

// Scan returns the number of findings reported. Per-file errors are logged
// and do not stop the report from being generated.
func (ds *DirectoryScanner) Scan(ctx context.Context, directory string) (int, error) {
	log.Infof("Scanning directory: %s", directory)

	reports, err := ds.fileScanner.TraverseAndSearch(ctx, directory)
	if err != nil {
		if ctx.Err() != nil || reports == nil {
			return 0, fmt.Errorf("error searching directory '%s': %w", directory, err)
		}
		log.Warnf("Some files in '%s' could not be scanned: %v", directory, err)
	}

	findings := core.CountFindings(reports)
	log.Infof("Number of findings in '%s': %d across %d files", directory, findings, len(reports))

	if err := ds.reportRepository.Store(reports); err != nil {
		return 0, fmt.Errorf("error storing reports for '%s': %w", directory, err)
	}

	logRuleSummary(ds.reportRepository)

	if err := ds.reporter.Report(ds.reportRepository); err != nil {
		return 0, fmt.Errorf("error generating report: %w", err)
	}
	return findings, nil
}

// logRuleSummary logs the per-rule totals of repositories that can count
// them.
func logRuleSummary(repository core.ReportRepository) {
	counter, ok := repository.(core.RuleCounter)
	if !ok {
		return
	}
	counts, err := counter.CountByRule()
	if err != nil {
		log.Warnf("Failed to summarise findings: %v", err)
		return
	}
	ruleIDs := make([]string, 0, len(counts))
	for ruleID := range counts {
		ruleIDs = append(ruleIDs, ruleID)
	}
	sort.Strings(ruleIDs)
	for _, ruleID := range ruleIDs {
		log.Infof("%s: %d findings", ruleID, counts[ruleID])
	}
}
