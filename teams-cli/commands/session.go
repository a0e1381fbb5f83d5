package commands

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/automate/teams-server/models/userdata"
	"github.com/automate/teams-server/teams-cli/config"
	"github.com/automate/teams-server/utils-go"
	"github.com/go-redis/redis/v8"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a GitHub personal access token",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			token, _ := cmd.Flags().GetString("token")

			api, err := a.connector(token)
			if err != nil {
				return err
			}

			var user *userdata.User
			err = spin("Verifying token with GitHub", func() error {
				user, err = api.GetAuthenticatedUser(cmd.Context())
				if err != nil {
					return err
				}
				return a.users.UpsertGithubUser(cmd.Context(), user)
			})
			if err != nil {
				return errors.Wrap(err, "login failed")
			}

			if err := config.StoreToken(token); err != nil {
				return err
			}
			if err := config.Save(map[string]interface{}{"userId": user.Id, "username": user.Username}); err != nil {
				return err
			}

			log.Debug().Int64("user", user.Id).Msg("Logged in")
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", text.Bold.Sprint(user.Username))
			return nil
		}),
	}

	cmd.Flags().String("token", "", "GitHub personal access token (required)")
	cmd.MarkFlagRequired("token") // nolint:errcheck
	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token and user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeleteToken(); err != nil {
				return err
			}
			if err := config.Save(map[string]interface{}{"userId": 0, "username": "", "activeTeam": 0}); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.UserId == 0 {
				return config.ErrNotLoggedIn
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d)\n", cfg.Username, cfg.UserId)
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the session and the database and redis connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			tw := newTable(cmd, "Check", "Status")

			session := text.FgYellow.Sprint("not logged in")
			if cfg.UserId != 0 {
				session = text.FgGreen.Sprintf("logged in as %s", cfg.Username)
			}
			tw.AppendRow([]interface{}{"Session", session})

			team := "-"
			if cfg.ActiveTeam != 0 {
				team = strconv.FormatInt(cfg.ActiveTeam, 10)
			}
			tw.AppendRow([]interface{}{"Active team", team})

			_, tokenErr := config.Token()
			tw.AppendRow([]interface{}{"Keyring token", check(tokenErr)})

			dbErr := spin("Checking database", func() error {
				db, err := utils.ProvidePostgres(&utils.PostgresConfig{Dsn: cfg.Dsn, DbTimeout: cfg.DbTimeout, IsProduction: true})
				if err != nil {
					return err
				}
				return db.Close()
			})
			tw.AppendRow([]interface{}{"Database", check(dbErr)})

			redisErr := spin("Checking redis", func() error {
				return pingRedis(cmd.Context(), cfg)
			})
			tw.AppendRow([]interface{}{"Redis", check(redisErr)})

			tw.AppendRow([]interface{}{"Config file", config.Path()})
			tw.Render()
			return nil
		},
	}
}

func pingRedis(ctx context.Context, cfg *config.Config) error {
	client := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDb,
		DialTimeout: 2 * time.Second,
		MaxRetries:  -1,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return client.Ping(ctx).Err()
}

func check(err error) string {
	if err != nil {
		return text.FgRed.Sprint(err.Error())
	}
	return text.FgGreen.Sprint("ok")
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "teams\n")
			fmt.Fprintf(out, "Version:    %s\n", version)
			fmt.Fprintf(out, "Commit:     %s\n", commit)
			fmt.Fprintf(out, "Built:      %s\n", date)
		},
	}
}
