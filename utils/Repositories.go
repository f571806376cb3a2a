package utils

import "context"

// RemoteRepository is a repository listed by a hosting service.
type RemoteRepository struct {
	Name     string
	CloneURL string
}

// RepositoryLister lists the repositories of an organisation or group.
type RepositoryLister interface {
	ListRepositories(ctx context.Context, owner string) ([]RemoteRepository, error)
}
