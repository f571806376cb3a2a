package utils

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const DefaultGitlabURL = "https://gitlab.com"

type GitlabApiClient struct {
	client *gitlab.Client
}

func NewGitlabApiClient(token string, baseURL string) (GitlabApiClient, error) {
	if baseURL == "" {
		baseURL = DefaultGitlabURL
	}
	client, err := gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	if err != nil {
		return GitlabApiClient{}, fmt.Errorf("failed to create GitLab client: %w", err)
	}
	return GitlabApiClient{client: client}, nil
}

// ListRepositories lists the projects of a group including its subgroups.
func (g GitlabApiClient) ListRepositories(ctx context.Context, group string) ([]RemoteRepository, error) {
	var repositories []RemoteRepository
	opts := &gitlab.ListGroupProjectsOptions{
		ListOptions: gitlab.ListOptions{
			Page:    1,
			PerPage: 100,
		},
		IncludeSubGroups: gitlab.Ptr(true),
		Archived:         gitlab.Ptr(false),
	}

	for {
		projects, resp, err := g.client.Groups.ListGroupProjects(group, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list projects of %s: %w", group, err)
		}
		for _, project := range projects {
			repositories = append(repositories, RemoteRepository{Name: project.PathWithNamespace, CloneURL: project.HTTPURLToRepo})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	log.Infof("Number of projects in %s: %d", group, len(repositories))
	return repositories, nil
}
