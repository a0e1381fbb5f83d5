package repos

import (
	"context"
	"database/sql"
	"time"

	"github.com/automate/teams-server/models/userdata"
	"github.com/uptrace/bun"
)

type RepositoryRepo struct {
	db *bun.DB
}

func NewRepositoryRepo(db *bun.DB) *RepositoryRepo {
	return &RepositoryRepo{db: db}
}

type AuthorCommits struct {
	Author       string    `bun:"author" json:"author"`
	Commits      int64     `bun:"commits" json:"commits"`
	LastCommitAt time.Time `bun:"last_commit_at" json:"last_commit_at"`
}

func (c *RepositoryRepo) AddRepository(ctx context.Context, repo *userdata.Repository) error {
	_, err := c.db.NewInsert().Model(repo).Returning("*").Exec(ctx)
	return classify(err, "adding repository")
}

func (c *RepositoryRepo) GetRepository(ctx context.Context, teamId int64, fullName string) (*userdata.Repository, error) {
	repo := new(userdata.Repository)
	err := c.db.NewSelect().Model(repo).
		Where("r.team_id = ?", teamId).
		Where("lower(r.full_name) = lower(?)", fullName).
		Scan(ctx)
	if err != nil {
		return nil, classify(err, "getting repository")
	}
	return repo, nil
}

func (c *RepositoryRepo) ListRepositories(ctx context.Context, teamId int64) ([]userdata.Repository, error) {
	repos := make([]userdata.Repository, 0)
	err := c.db.NewSelect().Model(&repos).Where("r.team_id = ?", teamId).Order("r.full_name ASC").Scan(ctx)
	return repos, classify(err, "listing repositories")
}

// DeleteRepository removes the repository and its commits.
func (c *RepositoryRepo) DeleteRepository(ctx context.Context, repoId int64) error {
	err := c.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*userdata.Commit)(nil)).Where("repo_id = ?", repoId).Exec(ctx); err != nil {
			return err
		}

		res, err := tx.NewDelete().Model((*userdata.Repository)(nil)).Where("id = ?", repoId).Exec(ctx)
		if err != nil {
			return err
		}
		return expectRows(res)
	})
	return classify(err, "deleting repository")
}

// AddCommits stores commits, skipping shas that are already known, and
// returns how many rows were inserted.
func (c *RepositoryRepo) AddCommits(ctx context.Context, commits []userdata.Commit) (int64, error) {
	if len(commits) == 0 {
		return 0, nil
	}

	res, err := c.db.NewInsert().Model(&commits).On("CONFLICT (sha) DO NOTHING").Exec(ctx)
	if err != nil {
		return 0, classify(err, "adding commits")
	}

	n, _ := res.RowsAffected()
	return n, nil
}

func (c *RepositoryRepo) ListCommits(ctx context.Context, teamId int64, limit int) ([]userdata.Commit, error) {
	commits := make([]userdata.Commit, 0)
	err := c.db.NewSelect().Model(&commits).
		Join("JOIN userdata.repositories AS r ON r.id = c.repo_id").
		Where("r.team_id = ?", teamId).
		Order("c.created_at DESC").
		Limit(limit).
		Scan(ctx)
	return commits, classify(err, "listing commits")
}

// CommitsByAuthor groups the commits of a team's repositories by author,
// busiest first.
func (c *RepositoryRepo) CommitsByAuthor(ctx context.Context, teamId int64) ([]AuthorCommits, error) {
	res := make([]AuthorCommits, 0)
	err := c.db.NewSelect().Model((*userdata.Commit)(nil)).
		ColumnExpr("c.author AS author").
		ColumnExpr("count(*) AS commits").
		ColumnExpr("max(c.created_at) AS last_commit_at").
		Join("JOIN userdata.repositories AS r ON r.id = c.repo_id").
		Where("r.team_id = ?", teamId).
		Where("c.author IS NOT NULL").
		Group("c.author").
		OrderExpr("commits DESC, author ASC").
		Scan(ctx, &res)
	return res, classify(err, "grouping commits by author")
}
