package githubapi

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/automate/teams-server/models/userdata"
	"github.com/rs/zerolog/log"
)

type RepositoryStore interface {
	AddRepository(ctx context.Context, repo *userdata.Repository) error
	AddCommits(ctx context.Context, commits []userdata.Commit) (int64, error)
}

// Syncer copies repository metadata and commits from GitHub into the store.
type Syncer struct {
	api   API
	store RepositoryStore
}

func NewSyncer(api API, store RepositoryStore) *Syncer {
	return &Syncer{api: api, store: store}
}

func (s *Syncer) Connect(ctx context.Context, teamId int64, owner, name string) (*userdata.Repository, error) {
	repo, err := s.api.GetRepository(ctx, owner, name)
	if err != nil {
		return nil, err
	}

	repo.TeamId = teamId
	if err := s.store.AddRepository(ctx, repo); err != nil {
		return nil, err
	}

	log.Info().Int64("team", teamId).Str("repo", repo.FullName).Msg("Repository connected")
	return repo, nil
}

// Sync stores the commits of repo made after since and returns how many were
// new.
func (s *Syncer) Sync(ctx context.Context, repo *userdata.Repository, since time.Time) (int64, error) {
	owner, name, err := SplitFullName(repo.FullName)
	if err != nil {
		return 0, err
	}

	commits, err := s.api.ListCommits(ctx, owner, name, since)
	if err != nil {
		return 0, err
	}

	for i := range commits {
		commits[i].RepoId = repo.Id
	}

	added, err := s.store.AddCommits(ctx, commits)
	if err != nil {
		return 0, err
	}

	log.Info().Str("repo", repo.FullName).Int("fetched", len(commits)).Int64("added", added).Msg("Repository synced")
	return added, nil
}

func SplitFullName(fullName string) (string, string, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository name %q, expected owner/repo", fullName)
	}
	return owner, name, nil
}
