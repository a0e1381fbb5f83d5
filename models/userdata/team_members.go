package userdata

import (
	"time"

	"github.com/uptrace/bun"
)

// Activity buckets written by the analytics job.
const (
	Active7Days  = "ACTIVE_7_DAYS"
	Active14Days = "ACTIVE_14_DAYS"
	Active30Days = "ACTIVE_30_DAYS"
	Inactive     = "INACTIVE"
)

type TeamMember struct {
	bun.BaseModel `bun:"userdata.team_members,alias:tm"`

	Id             int64      `bun:",pk,autoincrement" json:"id"`
	UserId         int64      `bun:",notnull,unique:user_team" json:"user_id"`
	User           *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	TeamId         int64      `bun:",notnull,unique:user_team" json:"team_id"`
	Team           *Team      `bun:"rel:belongs-to,join:team_id=id" json:"team,omitempty"`
	JoinedAt       time.Time  `bun:",nullzero,notnull,default:current_timestamp" json:"joined_at"`
	ActivityStatus string     `bun:",nullzero,notnull,default:'INACTIVE'" json:"activity_status"`
	LastActiveAt   *time.Time `json:"last_active_at,omitempty"`
}
