package repos

import (
	"context"
	"database/sql"
	"time"

	"github.com/automate/teams-server/invites"
	"github.com/automate/teams-server/models"
	"github.com/automate/teams-server/models/userdata"
	"github.com/uptrace/bun"
)

// InvitationStore implements invites.Store on PostgreSQL. db is either the
// connection pool or a transaction opened by RunInTx.
type InvitationStore struct {
	db bun.IDB
}

var _ invites.Store = (*InvitationStore)(nil)

func NewInvitationStore(db *bun.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

func (c *InvitationStore) FindInviteByCode(ctx context.Context, code string) (*userdata.Invite, error) {
	invite := new(userdata.Invite)
	err := c.db.NewSelect().Model(invite).Where("i.code = ?", code).Scan(ctx)
	if err != nil {
		return nil, classify(err, "finding invite")
	}
	return invite, nil
}

func (c *InvitationStore) CreateInvite(ctx context.Context, invite *userdata.Invite) error {
	_, err := c.db.NewInsert().Model(invite).Returning("id").Exec(ctx)
	return classify(err, "creating invite")
}

// UpdateInviteStatus moves the invite from one status to another. The update
// only applies while the stored status is still from.
func (c *InvitationStore) UpdateInviteStatus(ctx context.Context, code string, from, to userdata.InviteStatus, acceptedAt *time.Time) error {
	q := c.db.NewUpdate().Model((*userdata.Invite)(nil)).
		Set("status = ?", to).
		Where("code = ?", code).
		Where("status = ?", from)
	if acceptedAt != nil {
		q = q.Set("accepted_at = ?", *acceptedAt)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return classify(err, "updating invite status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrStaleState
	}
	return nil
}

func (c *InvitationStore) ListInvites(ctx context.Context, teamId int64, status userdata.InviteStatus) ([]userdata.Invite, error) {
	invites := make([]userdata.Invite, 0)
	q := c.db.NewSelect().Model(&invites).Where("i.team_id = ?", teamId)
	if status != "" {
		q = q.Where("i.status = ?", status)
	}
	err := q.Order("i.created_at DESC", "i.id DESC").Scan(ctx)
	return invites, classify(err, "listing invites")
}

func (c *InvitationStore) ListInvitesForUser(ctx context.Context, username string, status userdata.InviteStatus) ([]userdata.Invite, error) {
	invites := make([]userdata.Invite, 0)
	q := c.db.NewSelect().Model(&invites).Relation("Team").Where("lower(i.invited_user) = lower(?)", username)
	if status != "" {
		q = q.Where("i.status = ?", status)
	}
	err := q.Order("i.created_at DESC", "i.id DESC").Scan(ctx)
	return invites, classify(err, "listing user invites")
}

func (c *InvitationStore) IsMember(ctx context.Context, userId, teamId int64) (bool, error) {
	exists, err := c.db.NewSelect().Model((*userdata.TeamMember)(nil)).
		Where("user_id = ? AND team_id = ?", userId, teamId).
		Exists(ctx)
	return exists, classify(err, "checking membership")
}

func (c *InvitationStore) AddMember(ctx context.Context, userId, teamId int64) error {
	return addMember(ctx, c.db, userId, teamId)
}

func (c *InvitationStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx invites.Store) error) error {
	err := c.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &InvitationStore{db: tx})
	})
	return classify(err, "invite transaction")
}
