package utils

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v50/github"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

type GithubApiClient struct {
	client *github.Client
}

// NewGithubApiClient works unauthenticated when token is empty, which is
// enough for public organisations. baseURL selects a GitHub Enterprise
// server.
func NewGithubApiClient(ctx context.Context, token string, baseURL string) (GithubApiClient, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	if baseURL == "" {
		return GithubApiClient{client: github.NewClient(httpClient)}, nil
	}
	client, err := github.NewEnterpriseClient(baseURL, baseURL, httpClient)
	if err != nil {
		return GithubApiClient{}, fmt.Errorf("invalid GitHub url %s: %w", baseURL, err)
	}
	return GithubApiClient{client: client}, nil
}

func (apiClient GithubApiClient) ListRepositories(ctx context.Context, org string) ([]RemoteRepository, error) {
	var repositories []RemoteRepository
	opt := &github.RepositoryListByOrgOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		repos, resp, err := apiClient.client.Repositories.ListByOrg(ctx, org, opt)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories of %s: %w", org, err)
		}
		for _, repo := range repos {
			if repo.GetArchived() {
				log.Debugf("Skipping archived repository %s", repo.GetFullName())
				continue
			}
			repositories = append(repositories, RemoteRepository{Name: repo.GetName(), CloneURL: repo.GetCloneURL()})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	log.Infof("Number of repos in %s: %d", org, len(repositories))
	return repositories, nil
}
