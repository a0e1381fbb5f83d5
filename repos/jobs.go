package repos

import (
	"context"
	"time"

	"github.com/automate/teams-server/models/system"
	"github.com/uptrace/bun"
)

type JobRepo struct {
	db *bun.DB
}

func NewJobRepo(db *bun.DB) *JobRepo {
	return &JobRepo{db: db}
}

func (c *JobRepo) AddJob(ctx context.Context, job *system.Job) (int64, error) {
	_, err := c.db.NewInsert().Model(job).Returning("id").Exec(ctx)
	return job.Id, classify(err, "adding job")
}

func (c *JobRepo) UpdateJob(ctx context.Context, job *system.Job) error {
	job.UpdatedAt = time.Now()
	_, err := c.db.NewUpdate().Model(job).
		Column("status", "done", "total", "details", "updated_at").
		WherePK().
		Exec(ctx)
	return classify(err, "updating job")
}

func (c *JobRepo) LatestJob(ctx context.Context, service string) (*system.Job, error) {
	job := new(system.Job)
	err := c.db.NewSelect().Model(job).Where("j.service = ?", service).Order("j.id DESC").Limit(1).Scan(ctx)
	if err != nil {
		return nil, classify(err, "getting latest job")
	}
	return job, nil
}
