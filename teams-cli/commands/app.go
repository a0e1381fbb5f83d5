package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/automate/teams-server/analytics"
	"github.com/automate/teams-server/invites"
	"github.com/automate/teams-server/providers/githubapi"
	"github.com/automate/teams-server/ratelimit"
	"github.com/automate/teams-server/repos"
	"github.com/automate/teams-server/teams-cli/config"
	"github.com/automate/teams-server/utils-go"
	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

var errNoTeam = errors.New("no team selected, pass --team or run `teams team use <id>`")

// app holds the stores and services a command works with. The CLI talks to
// postgres directly and never rate limits.
type app struct {
	cfg *config.Config
	db  *bun.DB

	users        *repos.UserRepo
	teams        *repos.TeamRepo
	repositories *repos.RepositoryRepo
	jobs         *repos.JobRepo

	invites   *invites.Service
	analytics *analytics.Service
	connector githubapi.Connector
}

func newApp(cfg *config.Config) (*app, error) {
	var db *bun.DB
	err := spin("Connecting to database", func() error {
		var err error
		db, err = utils.ProvidePostgres(&utils.PostgresConfig{
			Dsn:          cfg.Dsn,
			DbTimeout:    cfg.DbTimeout,
			IsProduction: zerolog.GlobalLevel() > zerolog.DebugLevel,
		})
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not connect to database")
	}

	a := &app{
		cfg:          cfg,
		db:           db,
		users:        repos.NewUserRepo(db),
		teams:        repos.NewTeamRepo(db),
		repositories: repos.NewRepositoryRepo(db),
		jobs:         repos.NewJobRepo(db),
		connector:    githubapi.NewConnector(githubapi.Options{BaseURL: cfg.GithubApiUrl}),
	}

	limiter := ratelimit.New(nil, ratelimit.Options{Enabled: false})
	a.invites = invites.NewService(repos.NewInvitationStore(db), limiter, nil, invites.Options{TTL: cfg.InviteTtl})
	a.analytics = analytics.NewService(a.teams, a.repositories, a.users, a.jobs)

	return a, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "could not close database:", err)
	}
}

type runFunc func(cmd *cobra.Command, a *app, args []string) error

// withApp loads the config and opens the database before running fn.
func withApp(fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(cmd, a, args)
	}
}

func (a *app) currentUser() (int64, error) {
	if a.cfg.UserId == 0 {
		return 0, config.ErrNotLoggedIn
	}
	return a.cfg.UserId, nil
}

// team resolves the --team flag or the active team and checks that the
// current user belongs to it.
func (a *app) team(ctx context.Context, cmd *cobra.Command) (int64, int64, error) {
	userId, err := a.currentUser()
	if err != nil {
		return 0, 0, err
	}

	teamId, err := selectedTeam(cmd, a.cfg)
	if err != nil {
		return 0, 0, err
	}

	member, err := a.teams.IsMember(ctx, userId, teamId)
	if err != nil {
		return 0, 0, err
	}
	if !member {
		return 0, 0, invites.ErrNotAuthorized
	}

	return userId, teamId, nil
}

func (a *app) github() (githubapi.API, error) {
	token, err := config.Token()
	if err != nil {
		return nil, err
	}
	return a.connector(token)
}

func selectedTeam(cmd *cobra.Command, cfg *config.Config) (int64, error) {
	if flag := cmd.Flags().Lookup("team"); flag != nil && flag.Changed {
		teamId, err := cmd.Flags().GetInt64("team")
		if err != nil {
			return 0, err
		}
		if teamId <= 0 {
			return 0, errors.New("--team must be a positive id")
		}
		return teamId, nil
	}

	if cfg.ActiveTeam <= 0 {
		return 0, errNoTeam
	}
	return cfg.ActiveTeam, nil
}

func addTeamFlag(cmd *cobra.Command) {
	cmd.Flags().Int64("team", 0, "team id (defaults to the active team)")
}

func spin(message string, fn func() error) error {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()

	return fn()
}

func newTable(cmd *cobra.Command, header ...interface{}) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row(header))
	return tw
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
