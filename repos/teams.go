package repos

import (
	"context"
	"database/sql"
	"time"

	"github.com/automate/teams-server/models"
	"github.com/automate/teams-server/models/userdata"
	"github.com/automate/teams-server/utils-go"
	"github.com/gosimple/slug"
	"github.com/uptrace/bun"
)

type TeamRepo struct {
	db *bun.DB
}

func NewTeamRepo(db *bun.DB) *TeamRepo {
	return &TeamRepo{db: db}
}

// AddTeamTx creates the team and makes the creator its first member.
func (c *TeamRepo) AddTeamTx(ctx context.Context, team *userdata.Team, creatorId int64) error {
	if team.Slug == "" {
		team.Slug = slug.Make(team.Name)
	}

	err := c.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(team).Returning("*").Exec(ctx); err != nil {
			return err
		}

		_, err := tx.NewInsert().Model(&userdata.TeamMember{
			TeamId:         team.Id,
			UserId:         creatorId,
			ActivityStatus: userdata.Inactive,
		}).Exec(ctx)
		return err
	})
	return classify(err, "creating team")
}

func (c *TeamRepo) GetTeam(ctx context.Context, teamId int64) (*userdata.Team, error) {
	team := new(userdata.Team)
	err := c.db.NewSelect().Model(team).Where("t.id = ?", teamId).Scan(ctx)
	if err != nil {
		return nil, classify(err, "getting team")
	}
	return team, nil
}

func (c *TeamRepo) GetUserTeams(ctx context.Context, userId int64) ([]int64, error) {
	members := make([]userdata.TeamMember, 0)
	err := c.db.NewSelect().Model(&members).Column("team_id").Where("user_id = ?", userId).Scan(ctx)
	return utils.MapList(&members, func(a *userdata.TeamMember) int64 { return a.TeamId }), classify(err, "getting user teams")
}

func (c *TeamRepo) ListUserTeams(ctx context.Context, userId int64) ([]userdata.Team, error) {
	teams := make([]userdata.Team, 0)
	err := c.db.NewSelect().Model(&teams).
		Join("JOIN userdata.team_members AS tm ON tm.team_id = t.id").
		Where("tm.user_id = ?", userId).
		Order("t.name ASC").
		Scan(ctx)
	return teams, classify(err, "listing user teams")
}

func (c *TeamRepo) ListTeamIds(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0)
	err := c.db.NewSelect().Model((*userdata.Team)(nil)).Column("id").Order("id ASC").Scan(ctx, &ids)
	return ids, classify(err, "listing teams")
}

// DeleteTeam removes the team together with its members, invites,
// repositories and commits.
func (c *TeamRepo) DeleteTeam(ctx context.Context, teamId int64) error {
	err := c.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		repoIds := tx.NewSelect().Model((*userdata.Repository)(nil)).Column("id").Where("team_id = ?", teamId)

		steps := []*bun.DeleteQuery{
			tx.NewDelete().Model((*userdata.Commit)(nil)).Where("repo_id IN (?)", repoIds),
			tx.NewDelete().Model((*userdata.Repository)(nil)).Where("team_id = ?", teamId),
			tx.NewDelete().Model((*userdata.Invite)(nil)).Where("team_id = ?", teamId),
			tx.NewDelete().Model((*userdata.TeamMember)(nil)).Where("team_id = ?", teamId),
		}
		for _, step := range steps {
			if _, err := step.Exec(ctx); err != nil {
				return err
			}
		}

		res, err := tx.NewDelete().Model((*userdata.Team)(nil)).Where("id = ?", teamId).Exec(ctx)
		if err != nil {
			return err
		}
		return expectRows(res)
	})
	return classify(err, "deleting team")
}

func (c *TeamRepo) IsMember(ctx context.Context, userId, teamId int64) (bool, error) {
	exists, err := c.db.NewSelect().Model((*userdata.TeamMember)(nil)).
		Where("user_id = ? AND team_id = ?", userId, teamId).
		Exists(ctx)
	return exists, classify(err, "checking membership")
}

func (c *TeamRepo) AddMember(ctx context.Context, userId, teamId int64) error {
	return addMember(ctx, c.db, userId, teamId)
}

func (c *TeamRepo) RemoveMember(ctx context.Context, userId, teamId int64) error {
	res, err := c.db.NewDelete().Model((*userdata.TeamMember)(nil)).
		Where("user_id = ? AND team_id = ?", userId, teamId).
		Exec(ctx)
	if err == nil {
		err = expectRows(res)
	}
	return classify(err, "removing member")
}

func (c *TeamRepo) ListMembers(ctx context.Context, teamId int64) ([]userdata.TeamMember, error) {
	members := make([]userdata.TeamMember, 0)
	err := c.db.NewSelect().Model(&members).
		Relation("User").
		Where("tm.team_id = ?", teamId).
		Order("tm.joined_at ASC").
		Scan(ctx)
	return members, classify(err, "listing members")
}

func (c *TeamRepo) UpdateMemberActivity(ctx context.Context, teamId, userId int64, status string, lastActiveAt *time.Time) error {
	_, err := c.db.NewUpdate().Model((*userdata.TeamMember)(nil)).
		Set("activity_status = ?", status).
		Set("last_active_at = ?", lastActiveAt).
		Where("team_id = ? AND user_id = ?", teamId, userId).
		Exec(ctx)
	return classify(err, "updating member activity")
}

func addMember(ctx context.Context, db bun.IDB, userId, teamId int64) error {
	_, err := db.NewInsert().Model(&userdata.TeamMember{
		UserId:         userId,
		TeamId:         teamId,
		ActivityStatus: userdata.Inactive,
	}).Exec(ctx)
	return classify(err, "adding member")
}

func expectRows(res sql.Result) error {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}
	return nil
}
