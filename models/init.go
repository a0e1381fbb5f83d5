package models

import (
	"context"

	"github.com/automate/teams-server/models/system"
	"github.com/automate/teams-server/models/userdata"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
)

func InitModelRegistrations(db *bun.DB) {
	db.RegisterModel((*userdata.TeamMember)(nil))
}

var tables = []interface{}{
	(*userdata.User)(nil),
	(*userdata.Team)(nil),
	(*userdata.TeamMember)(nil),
	(*userdata.Repository)(nil),
	(*userdata.Commit)(nil),
	(*userdata.Invite)(nil),
	(*system.Job)(nil),
}

// CreateSchema creates the schemas and tables for every model when they do
// not exist yet. Columns added later still need a manual migration.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, schema := range []string{"userdata", "system"} {
		if _, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
			return err
		}
	}

	for _, model := range tables {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().WithForeignKeys().Exec(ctx); err != nil {
			return err
		}
	}

	indexes := []struct {
		model   interface{}
		name    string
		columns []string
	}{
		{(*userdata.Invite)(nil), "invites_team_status_idx", []string{"team_id", "status"}},
		{(*userdata.Commit)(nil), "commits_repo_idx", []string{"repo_id"}},
		{(*userdata.Repository)(nil), "repositories_team_idx", []string{"team_id"}},
	}
	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	log.Info().Int("tables", len(tables)).Msg("Schema ready")
	return nil
}
