package userdata

import (
	"time"

	"github.com/uptrace/bun"
)

type Team struct {
	bun.BaseModel `bun:"userdata.teams,alias:t"`

	Id        int64         `bun:",pk,autoincrement" json:"id"`
	Name      string        `bun:",notnull" json:"name"`
	Slug      string        `bun:",notnull" json:"slug"`
	CreatedAt time.Time     `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	Members   []*TeamMember `bun:"rel:has-many,join:id=team_id" json:"members,omitempty"`
	Repos     []*Repository `bun:"rel:has-many,join:id=team_id" json:"repos,omitempty"`
}
