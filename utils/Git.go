package utils

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	log "github.com/sirupsen/logrus"
)

const originRemote = "origin"

func SanitizeRepoName(fullName string) string {
	return strings.NewReplacer("/", "_", ":", "_").Replace(fullName)
}

func ExtractRepoName(repoURL string) (string, error) {
	var repoName string
	if strings.HasPrefix(repoURL, "git@") {
		parts := strings.Split(repoURL, ":")
		if len(parts) != 2 {
			return "", fmt.Errorf("unexpected repository URL format")
		}
		repoName = strings.TrimSuffix(parts[1], ".git")
	} else if strings.HasPrefix(repoURL, "https://") || strings.HasPrefix(repoURL, "http://") {
		parts := strings.Split(strings.TrimSuffix(repoURL, "/"), "/")
		if len(parts) < 4 {
			return "", fmt.Errorf("unexpected repository URL format")
		}
		repoName = strings.TrimSuffix(parts[len(parts)-1], ".git")
	} else {
		return "", fmt.Errorf("unsupported repository URL format")
	}
	if repoName == "" {
		return "", fmt.Errorf("unexpected repository URL format")
	}
	return repoName, nil
}

// CloneDirName names the clone directory after the host and the full path
// of the repository so that equally named repositories of different owners
// do not share a directory.
func CloneDirName(repoURL string) (string, error) {
	if _, err := ExtractRepoName(repoURL); err != nil {
		return "", err
	}

	var host, repoPath string
	if strings.HasPrefix(repoURL, "git@") {
		parts := strings.SplitN(strings.TrimPrefix(repoURL, "git@"), ":", 2)
		host, repoPath = parts[0], parts[1]
	} else {
		parsed, err := url.Parse(repoURL)
		if err != nil {
			return "", fmt.Errorf("unexpected repository URL format: %w", err)
		}
		host, repoPath = parsed.Host, parsed.Path
	}

	repoPath = strings.TrimSuffix(strings.Trim(repoPath, "/"), ".git")
	return SanitizeRepoName(host + "/" + repoPath), nil
}

// sameRemote compares clone URLs ignoring a trailing slash or .git suffix.
func sameRemote(a, b string) bool {
	normalize := func(u string) string {
		return strings.TrimSuffix(strings.TrimSuffix(u, "/"), ".git")
	}
	return normalize(a) == normalize(b)
}

// CloneRepository makes a shallow clone of cloneURL into destination. An
// existing destination is reused only when its origin remote is cloneURL;
// reused tells the caller the clone was not made by this call.
func CloneRepository(ctx context.Context, cloneURL, destination string) (reused bool, err error) {
	if _, statErr := os.Stat(destination); statErr == nil {
		repo, err := git.PlainOpen(destination)
		if err != nil {
			return false, fmt.Errorf("'%s' exists and is not a git repository: %w", destination, err)
		}
		remote, err := repo.Remote(originRemote)
		if err != nil {
			if errors.Is(err, git.ErrRemoteNotFound) {
				return false, fmt.Errorf("'%s' exists and has no %s remote", destination, originRemote)
			}
			return false, fmt.Errorf("failed to read remote of '%s': %w", destination, err)
		}
		for _, remoteURL := range remote.Config().URLs {
			if sameRemote(remoteURL, cloneURL) {
				log.Infof("Repository already cloned at '%s'. Skipping clone.", destination)
				return true, nil
			}
		}
		return false, fmt.Errorf("'%s' holds a clone of %v, not %s", destination, remote.Config().URLs, cloneURL)
	}

	_, err = git.PlainCloneContext(ctx, destination, false, &git.CloneOptions{
		URL:      cloneURL,
		Depth:    1,
		Progress: os.Stderr,
	})
	if err != nil {
		return false, fmt.Errorf("git clone failed: %w", err)
	}

	return false, nil
}
