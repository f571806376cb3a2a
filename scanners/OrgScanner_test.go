package scanners

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/reaandrew/migrationlint/repositories"
	"github.com/reaandrew/migrationlint/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockLister struct {
	repositories []utils.RemoteRepository
	err          error
	owner        string
}

func (m *MockLister) ListRepositories(_ context.Context, owner string) ([]utils.RemoteRepository, error) {
	m.owner = owner
	return m.repositories, m.err
}

// localCheckout serves working trees from temp directories keyed by clone
// URL and records the cleanups it hands out.
type localCheckout struct {
	trees    map[string]string
	mu       sync.Mutex
	cleanups int
}

func (c *localCheckout) checkout(_ context.Context, repoURL string) (string, func(), error) {
	dir, ok := c.trees[repoURL]
	if !ok {
		return "", func() {}, errors.New("repository not found")
	}
	return dir, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.cleanups++
	}, nil
}

func TestOrgScannerScansEveryRepository(t *testing.T) {
	appTree := t.TempDir()
	writeFile(t, appTree, "Sources/Net.swift", "let c = NSURLComponents(string: s)\n")
	toolsTree := t.TempDir()
	writeFile(t, toolsTree, "main.swift", "let x = 1\n")

	lister := &MockLister{repositories: []utils.RemoteRepository{
		{Name: "tools", CloneURL: "https://example.com/acme/tools.git"},
		{Name: "ios-app", CloneURL: "https://example.com/acme/ios-app.git"},
	}}
	checkout := &localCheckout{trees: map[string]string{
		"https://example.com/acme/ios-app.git": appTree,
		"https://example.com/acme/tools.git":   toolsTree,
	}}
	reporter := &MockReporter{}
	orgScanner := NewOrgScanner(reporter, newFileScanner(t), repositories.NewInMemoryReportRepository(), lister)
	orgScanner.Checkout = checkout.checkout
	orgScanner.Workers = 2

	findings, err := orgScanner.Scan(context.Background(), "acme")

	require.NoError(t, err)
	assert.Equal(t, "acme", lister.owner)
	assert.Equal(t, 1, findings)
	assert.Equal(t, 2, checkout.cleanups)
	require.Len(t, reporter.reports, 2)
	assert.Equal(t, "ios-app/Sources/Net.swift", reporter.reports[0].SourcePath)
	assert.Equal(t, "MIG011", reporter.reports[0].Findings[0].RuleID)
	assert.Equal(t, "tools/main.swift", reporter.reports[1].SourcePath)
}

func TestOrgScannerSkipsRepositoriesThatFailToCheckout(t *testing.T) {
	tree := t.TempDir()
	writeFile(t, tree, "Net.swift", "let c = NSURLComponents(string: s)\n")

	lister := &MockLister{repositories: []utils.RemoteRepository{
		{Name: "gone", CloneURL: "https://example.com/acme/gone.git"},
		{Name: "ios-app", CloneURL: "https://example.com/acme/ios-app.git"},
	}}
	checkout := &localCheckout{trees: map[string]string{"https://example.com/acme/ios-app.git": tree}}
	reporter := &MockReporter{}
	orgScanner := NewOrgScanner(reporter, newFileScanner(t), repositories.NewInMemoryReportRepository(), lister)
	orgScanner.Checkout = checkout.checkout

	findings, err := orgScanner.Scan(context.Background(), "acme")

	require.NoError(t, err)
	assert.Equal(t, 1, findings)
	require.Len(t, reporter.reports, 1)
	assert.Equal(t, "ios-app/Net.swift", reporter.reports[0].SourcePath)
}

func TestOrgScannerFailsWhenNoRepositoryCanBeScanned(t *testing.T) {
	lister := &MockLister{repositories: []utils.RemoteRepository{{Name: "gone", CloneURL: "https://example.com/acme/gone.git"}}}
	checkout := &localCheckout{trees: map[string]string{}}
	reporter := &MockReporter{}
	orgScanner := NewOrgScanner(reporter, newFileScanner(t), repositories.NewInMemoryReportRepository(), lister)
	orgScanner.Checkout = checkout.checkout

	_, err := orgScanner.Scan(context.Background(), "acme")

	assert.ErrorContains(t, err, "could be scanned")
	assert.Nil(t, reporter.reports)
}

func TestOrgScannerListingErrors(t *testing.T) {
	reporter := &MockReporter{}

	_, err := NewOrgScanner(reporter, newFileScanner(t), repositories.NewInMemoryReportRepository(),
		&MockLister{err: errors.New("rate limited")}).Scan(context.Background(), "acme")
	assert.ErrorContains(t, err, "rate limited")

	_, err = NewOrgScanner(reporter, newFileScanner(t), repositories.NewInMemoryReportRepository(),
		&MockLister{}).Scan(context.Background(), "acme")
	assert.ErrorContains(t, err, "no repositories found")
}

func TestRepoScannerUsesCheckout(t *testing.T) {
	tree := sampleTree(t)
	checkout := &localCheckout{trees: map[string]string{"https://example.com/acme/ios-app.git": tree}}
	reporter := &MockReporter{}
	repoScanner := NewRepoScanner(reporter, newFileScanner(t), repositories.NewInMemoryReportRepository())
	repoScanner.Checkout = checkout.checkout

	findings, err := repoScanner.Scan(context.Background(), "https://example.com/acme/ios-app.git")

	require.NoError(t, err)
	assert.Equal(t, 1, findings)
	assert.Equal(t, 1, checkout.cleanups)
	assert.Len(t, reporter.reports, 2)
}

func TestCloneCheckoutRejectsInvalidURL(t *testing.T) {
	previous := CloneBaseDir
	CloneBaseDir = t.TempDir()
	t.Cleanup(func() { CloneBaseDir = previous })

	_, cleanup, err := CloneCheckout(false)(context.Background(), "not-a-url")
	cleanup()

	assert.ErrorContains(t, err, "invalid repository URL")
}
