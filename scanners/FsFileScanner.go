package scanners

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/reaandrew/migrationlint/cache"
	"github.com/reaandrew/migrationlint/core"
	"github.com/reaandrew/migrationlint/utils"
	log "github.com/sirupsen/logrus"
)

var (
	// MaxFileWorkers sets the number of parallel workers that handle files
	MaxFileWorkers = runtime.NumCPU()
	// CloneBaseDir is where repositories get cloned to
	CloneBaseDir = filepath.Join(os.TempDir(), "migrationlint")
)

type FileScanner interface {
	TraverseAndSearch(ctx context.Context, targetDir string) ([]core.Report, error)
}

// FsFileScanner walks a directory and hands every supported file to its
// processors. Reports carry paths relative to the walked directory and are
// returned sorted by path.
type FsFileScanner struct {
	Processors []core.FileProcessor
	Workers    int
	Cache      cache.ReportCache
	// CacheSalt identifies the rule set and configuration the cache entries
	// were produced with.
	CacheSalt string
	Progress  utils.ProgressReporter
}

type fileJob struct {
	path     string
	relative string
}

func (fileScanner FsFileScanner) workers() int {
	if fileScanner.Workers > 0 {
		return fileScanner.Workers
	}
	return MaxFileWorkers
}

func (fileScanner FsFileScanner) TraverseAndSearch(ctx context.Context, targetDir string) ([]core.Report, error) {
	info, err := os.Stat(targetDir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("target directory '%s' does not exist", targetDir)
	}
	if err != nil {
		return nil, fmt.Errorf("error accessing '%s': %w", targetDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a directory", targetDir)
	}

	var walkErrors []string
	var jobs []fileJob
	err = filepath.WalkDir(targetDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			walkErrors = append(walkErrors, fmt.Sprintf("error walking path %s: %v", path, walkErr))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		relative, relErr := filepath.Rel(targetDir, path)
		if relErr != nil {
			relative = path
		}
		relative = filepath.ToSlash(relative)
		if fileScanner.supported(relative) {
			jobs = append(jobs, fileJob{path: path, relative: relative})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reports, errs := fileScanner.process(ctx, jobs)
	errs = append(walkErrors, errs...)

	sort.Slice(reports, func(i, j int) bool { return reports[i].SourcePath < reports[j].SourcePath })

	if err := ctx.Err(); err != nil {
		return reports, err
	}
	if len(errs) > 0 {
		for _, message := range errs {
			log.Errorf("Error encountered: %s", message)
		}
		return reports, fmt.Errorf("errors encountered during scanning:\n%s", strings.Join(errs, "\n"))
	}
	return reports, nil
}

func (fileScanner FsFileScanner) supported(path string) bool {
	for _, processor := range fileScanner.Processors {
		if processor.Supports(path) {
			return true
		}
	}
	return false
}

func (fileScanner FsFileScanner) process(ctx context.Context, jobs []fileJob) ([]core.Report, []string) {
	progress := fileScanner.Progress
	if progress == nil {
		progress = utils.NoopProgressReporter{}
	}
	progress.SetTotal(len(jobs))

	reportCache := fileScanner.Cache
	if reportCache == nil {
		reportCache = cache.NoopReportCache{}
	}

	files := make(chan fileJob)
	results := make(chan core.Report, 100)
	errs := make(chan string, 100)

	var wg sync.WaitGroup
	for i := 0; i < fileScanner.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range files {
				report, err := fileScanner.processFile(job, reportCache)
				if err != nil {
					errs <- err.Error()
				} else {
					results <- report
				}
				progress.Increment()
			}
		}()
	}

	go func() {
		defer close(files)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case files <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
		close(errs)
	}()

	var reports []core.Report
	var messages []string
	for results != nil || errs != nil {
		select {
		case report, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			reports = append(reports, report)
		case message, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			messages = append(messages, message)
		}
	}
	sort.Strings(messages)
	return reports, messages
}

// processFile merges the reports of every processor supporting the file.
func (fileScanner FsFileScanner) processFile(job fileJob, reportCache cache.ReportCache) (core.Report, error) {
	content, err := os.ReadFile(job.path)
	if err != nil {
		return core.Report{}, fmt.Errorf("failed to read file %s: %v", job.path, err)
	}

	key := cache.Key(fileScanner.CacheSalt, "", job.relative, string(content))
	if cached, found := reportCache.Get(key); found {
		log.Debugf("Cache hit for %s", job.relative)
		return cached, nil
	}

	merged := core.Report{SourcePath: job.relative}
	for _, processor := range fileScanner.Processors {
		if !processor.Supports(job.relative) {
			continue
		}
		report, err := processor.Process(job.relative, string(content))
		if err != nil {
			return core.Report{}, fmt.Errorf("processing error in file %s: %v", job.path, err)
		}
		merged.Findings = append(merged.Findings, report.Findings...)
	}
	core.SortFindings(merged.Findings)

	if err := reportCache.Put(key, merged); err != nil {
		log.Warnf("Failed to cache report for %s: %v", job.relative, err)
	}
	return merged, nil
}
