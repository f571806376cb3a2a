package scanners

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/reaandrew/migrationlint/core"
	"github.com/reaandrew/migrationlint/utils"
	log "github.com/sirupsen/logrus"
)

// MaxRepoWorkers sets the number of repositories cloned and scanned at once.
var MaxRepoWorkers = 4

type RepoJob struct {
	Repo utils.RemoteRepository
}

type RepoResult struct {
	Reports  []core.Report
	Error    error
	RepoName string
}

// OrgScanner scans every repository of an organisation or group. Report
// paths are prefixed with the repository name.
type OrgScanner struct {
	reporter         core.Reporter
	fileScanner      FileScanner
	reportRepository core.ReportRepository
	lister           utils.RepositoryLister
	Keep             bool
	Workers          int
	// Checkout defaults to CloneCheckout(Keep).
	Checkout Checkout
}

func NewOrgScanner(reporter core.Reporter,
	fileScanner FileScanner,
	reportRepository core.ReportRepository,
	lister utils.RepositoryLister) *OrgScanner {
	return &OrgScanner{
		reporter:         reporter,
		fileScanner:      fileScanner,
		reportRepository: reportRepository,
		lister:           lister,
	}
}

func (orgScanner *OrgScanner) workers() int {
	if orgScanner.Workers > 0 {
		return orgScanner.Workers
	}
	return MaxRepoWorkers
}

// Scan returns the number of findings reported. A repository that cannot be
// cloned or scanned is logged and skipped; the scan fails only when no
// repository could be scanned.
func (orgScanner *OrgScanner) Scan(ctx context.Context, owner string) (int, error) {
	log.Infof("Fetching repositories for: %s", owner)
	repos, err := orgScanner.lister.ListRepositories(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("error listing repositories of '%s': %w", owner, err)
	}
	if len(repos) == 0 {
		return 0, fmt.Errorf("no repositories found for '%s'", owner)
	}

	checkout := orgScanner.Checkout
	if checkout == nil {
		checkout = CloneCheckout(orgScanner.Keep)
	}

	jobs := make(chan RepoJob, len(repos))
	results := make(chan RepoResult, len(repos))

	var wg sync.WaitGroup
	for w := 0; w < orgScanner.workers(); w++ {
		wg.Add(1)
		go orgScanner.worker(ctx, checkout, jobs, results, &wg)
	}

	for _, repo := range repos {
		jobs <- RepoJob{Repo: repo}
	}
	close(jobs)

	wg.Wait()
	close(results)

	var reports []core.Report
	scanned := 0
	for res := range results {
		if res.Error != nil {
			log.Errorf("Error processing repository '%s': %v", res.RepoName, res.Error)
			continue
		}
		scanned++
		reports = append(reports, res.Reports...)
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if scanned == 0 {
		return 0, fmt.Errorf("none of the %d repositories of '%s' could be scanned", len(repos), owner)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].SourcePath < reports[j].SourcePath
	})

	findings := core.CountFindings(reports)
	log.Infof("Number of findings in '%s': %d across %d repositories", owner, findings, scanned)

	if err := orgScanner.reportRepository.Store(reports); err != nil {
		return 0, fmt.Errorf("error storing reports for '%s': %w", owner, err)
	}

	logRuleSummary(orgScanner.reportRepository)

	if err := orgScanner.reporter.Report(orgScanner.reportRepository); err != nil {
		return 0, fmt.Errorf("error generating report: %w", err)
	}
	return findings, nil
}

func (orgScanner *OrgScanner) worker(ctx context.Context, checkout Checkout, jobs <-chan RepoJob, results chan<- RepoResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		repoName := job.Repo.Name
		if ctx.Err() != nil {
			results <- RepoResult{Error: ctx.Err(), RepoName: repoName}
			continue
		}
		reports, err := orgScanner.scanRepository(ctx, checkout, job.Repo)
		results <- RepoResult{Reports: reports, Error: err, RepoName: repoName}
	}
}

func (orgScanner *OrgScanner) scanRepository(ctx context.Context, checkout Checkout, repo utils.RemoteRepository) ([]core.Report, error) {
	repoPath, cleanup, err := checkout(ctx, repo.CloneURL)
	defer cleanup()
	if err != nil {
		return nil, err
	}

	reports, err := orgScanner.fileScanner.TraverseAndSearch(ctx, repoPath)
	if err != nil {
		if ctx.Err() != nil || reports == nil {
			return nil, fmt.Errorf("error searching repository '%s': %w", repo.Name, err)
		}
		log.Warnf("Some files in '%s' could not be scanned: %v", repo.Name, err)
	}

	for i := range reports {
		reports[i].SourcePath = path.Join(repo.Name, reports[i].SourcePath)
	}
	return reports, nil
}
