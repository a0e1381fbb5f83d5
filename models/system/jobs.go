package system

import (
	"time"

	"github.com/uptrace/bun"
)

type Job struct {
	bun.BaseModel `bun:"system.jobs,alias:j"`

	Id        int64               `bun:",pk,autoincrement" json:"id"`
	Service   string              `json:"service"`
	Item      string              `json:"item"`
	CreatedAt time.Time           `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time           `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	Status    bool                `json:"status"`
	Done      int64               `json:"done"`
	Total     int64               `json:"total"`
	Details   []map[string]string `bun:",type:jsonb" json:"details"`
}
