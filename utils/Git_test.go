package utils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRepoName(t *testing.T) {
	testCases := []struct {
		url      string
		expected string
		fails    bool
	}{
		{"https://github.com/acme/ios-app.git", "ios-app", false},
		{"https://github.com/acme/ios-app/", "ios-app", false},
		{"git@github.com:acme/ios-app.git", "acme/ios-app", false},
		{"https://github.com", "", true},
		{"ftp://example.com/repo", "", true},
	}

	for _, tc := range testCases {
		name, err := ExtractRepoName(tc.url)
		if tc.fails {
			assert.Error(t, err, tc.url)
			continue
		}
		assert.NoError(t, err, tc.url)
		assert.Equal(t, tc.expected, name, tc.url)
	}
}

func TestSanitizeRepoName(t *testing.T) {
	assert.Equal(t, "acme_ios-app", SanitizeRepoName("acme/ios-app"))
	assert.Equal(t, "host_acme_ios-app", SanitizeRepoName("host:acme/ios-app"))
}

func TestCloneDirName(t *testing.T) {
	testCases := []struct {
		url      string
		expected string
	}{
		{"https://github.com/acme/ios-app.git", "github.com_acme_ios-app"},
		{"https://github.com/acme/ios-app/", "github.com_acme_ios-app"},
		{"git@github.com:acme/ios-app.git", "github.com_acme_ios-app"},
		{"https://gitlab.example.com/group/sub/ios-app", "gitlab.example.com_group_sub_ios-app"},
	}

	for _, tc := range testCases {
		name, err := CloneDirName(tc.url)
		assert.NoError(t, err, tc.url)
		assert.Equal(t, tc.expected, name, tc.url)
	}

	_, err := CloneDirName("ftp://example.com/repo")
	assert.Error(t, err)
}

func TestCloneDirNameSeparatesOwners(t *testing.T) {
	first, err := CloneDirName("https://github.com/a/foo")
	require.NoError(t, err)
	second, err := CloneDirName("https://github.com/b/foo")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func initRepoWithOrigin(t *testing.T, origin string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "clone")
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{origin}})
	require.NoError(t, err)
	return dir
}

func TestCloneRepositoryReusesMatchingClone(t *testing.T) {
	dir := initRepoWithOrigin(t, "https://github.com/a/foo.git")

	reused, err := CloneRepository(context.Background(), "https://github.com/a/foo", dir)

	require.NoError(t, err)
	assert.True(t, reused)
}

func TestCloneRepositoryRejectsCloneOfAnotherRepository(t *testing.T) {
	dir := initRepoWithOrigin(t, "https://github.com/a/foo.git")

	reused, err := CloneRepository(context.Background(), "https://github.com/b/foo.git", dir)

	assert.Error(t, err)
	assert.False(t, reused)
}

func TestCloneRepositoryRejectsDirectoryWithoutRepository(t *testing.T) {
	_, err := CloneRepository(context.Background(), "https://github.com/a/foo.git", t.TempDir())

	assert.Error(t, err)
}
