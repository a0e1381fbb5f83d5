package userdata

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	UserActive   = "ACTIVE"
	UserInactive = "INACTIVE"
)

type User struct {
	bun.BaseModel `bun:"userdata.users,alias:u"`

	Id             int64     `bun:",pk,autoincrement" json:"id"`
	GithubId       string    `bun:",unique,notnull" json:"github_id"`
	Username       string    `bun:",notnull" json:"username"`
	Email          string    `bun:",nullzero" json:"email,omitempty"`
	ActivityStatus string    `bun:",nullzero,notnull,default:'ACTIVE'" json:"activity_status"`
	CreatedAt      time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	Teams          []Team    `bun:"m2m:userdata.team_members,join:User=Team" json:"teams,omitempty"`
}

func (user *User) ToMap() map[string]string {
	return map[string]string{
		"{{user.username}}": user.Username,
		"{{user.email}}":    user.Email,
	}
}
