package scanners

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reaandrew/migrationlint/core"
	"github.com/reaandrew/migrationlint/utils"
	log "github.com/sirupsen/logrus"
)

// Checkout makes a working tree of a repository available on disk. The
// returned cleanup is always safe to call.
type Checkout func(ctx context.Context, repoURL string) (path string, cleanup func(), err error)

// CloneCheckout clones into CloneBaseDir. Unless keep is set the clone is
// removed by cleanup.
func CloneCheckout(keep bool) Checkout {
	return func(ctx context.Context, repoURL string) (string, func(), error) {
		noop := func() {}
		if err := os.MkdirAll(CloneBaseDir, os.ModePerm); err != nil {
			return "", noop, fmt.Errorf("failed to create clone base directory '%s': %w", CloneBaseDir, err)
		}

		dirName, err := utils.CloneDirName(repoURL)
		if err != nil {
			return "", noop, fmt.Errorf("invalid repository URL '%s': %w", repoURL, err)
		}

		repoPath := filepath.Join(CloneBaseDir, dirName)
		log.Infof("Cloning repository: %s", repoURL)
		reused, err := utils.CloneRepository(ctx, repoURL, repoPath)
		if err != nil {
			return "", noop, fmt.Errorf("failed to clone repository '%s': %w", repoURL, err)
		}
		// A clone left by an earlier --keep run belongs to that run.
		if keep || reused {
			return repoPath, noop, nil
		}
		return repoPath, func() {
			if err := os.RemoveAll(repoPath); err != nil {
				log.Warnf("Failed to remove clone at %s: %v", repoPath, err)
			}
		}, nil
	}
}

// RepoScanner clones a git repository and scans the working tree.
type RepoScanner struct {
	directoryScanner *DirectoryScanner
	Keep             bool
	// Checkout defaults to CloneCheckout(Keep).
	Checkout Checkout
}

func NewRepoScanner(
	reporter core.Reporter,
	fileScanner FileScanner,
	reportRepository core.ReportRepository) *RepoScanner {
	return &RepoScanner{
		directoryScanner: NewDirectoryScanner(reporter, fileScanner, reportRepository),
	}
}

func (repoScanner RepoScanner) Scan(ctx context.Context, repoURL string) (int, error) {
	checkout := repoScanner.Checkout
	if checkout == nil {
		checkout = CloneCheckout(repoScanner.Keep)
	}

	repoPath, cleanup, err := checkout(ctx, repoURL)
	defer cleanup()
	if err != nil {
		return 0, err
	}

	return repoScanner.directoryScanner.Scan(ctx, repoPath)
}
