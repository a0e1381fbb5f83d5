package repos

import (
	"context"

	"github.com/automate/teams-server/models/userdata"
	"github.com/uptrace/bun"
)

type UserRepo struct {
	db *bun.DB
}

func NewUserRepo(db *bun.DB) *UserRepo {
	return &UserRepo{db: db}
}

// UpsertGithubUser inserts the user or refreshes the username and email of
// the row with the same GitHub id. user is filled with the stored row.
func (c *UserRepo) UpsertGithubUser(ctx context.Context, user *userdata.User) error {
	_, err := c.db.NewInsert().Model(user).
		On("CONFLICT (github_id) DO UPDATE").
		Set("username = EXCLUDED.username").
		Set("email = EXCLUDED.email").
		Returning("*").
		Exec(ctx)
	return classify(err, "upserting user")
}

func (c *UserRepo) GetUser(ctx context.Context, id int64) (*userdata.User, error) {
	user := new(userdata.User)
	err := c.db.NewSelect().Model(user).Where("u.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, classify(err, "getting user")
	}
	return user, nil
}

func (c *UserRepo) GetUserByUsername(ctx context.Context, username string) (*userdata.User, error) {
	user := new(userdata.User)
	err := c.db.NewSelect().Model(user).Where("lower(u.username) = lower(?)", username).Limit(1).Scan(ctx)
	if err != nil {
		return nil, classify(err, "getting user by username")
	}
	return user, nil
}

// RefreshActivityStatus marks users ACTIVE when any of their memberships is
// active and INACTIVE otherwise.
func (c *UserRepo) RefreshActivityStatus(ctx context.Context) (int64, error) {
	active := c.db.NewSelect().
		Model((*userdata.TeamMember)(nil)).
		ColumnExpr("1").
		Where("tm.user_id = u.id").
		Where("tm.activity_status <> ?", userdata.Inactive)

	res, err := c.db.NewUpdate().
		Model((*userdata.User)(nil)).
		Set("activity_status = CASE WHEN EXISTS (?) THEN ? ELSE ? END", active, userdata.UserActive, userdata.UserInactive).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, classify(err, "refreshing user activity")
	}

	n, _ := res.RowsAffected()
	return n, nil
}
