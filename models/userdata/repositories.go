package userdata

import (
	"time"

	"github.com/uptrace/bun"
)

type Repository struct {
	bun.BaseModel `bun:"userdata.repositories,alias:r"`

	Id        int64     `bun:",pk,autoincrement" json:"id"`
	Name      string    `bun:",notnull" json:"name"`
	FullName  string    `bun:",unique,notnull" json:"full_name"`
	GithubId  int64     `bun:",unique,notnull" json:"github_id"`
	Private   bool      `json:"private"`
	Stars     int       `json:"stars"`
	Forks     int       `json:"forks"`
	TeamId    int64     `bun:",notnull" json:"team_id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
}

type Commit struct {
	bun.BaseModel `bun:"userdata.commits,alias:c"`

	Id        int64     `bun:",pk,autoincrement" json:"id"`
	Sha       string    `bun:",unique,notnull" json:"sha"`
	Message   string    `bun:",notnull" json:"message"`
	Author    string    `bun:",nullzero" json:"author,omitempty"`
	RepoId    int64     `bun:",notnull" json:"repo_id"`
	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
}
