package main

import (
	"context"
	"time"

	"github.com/automate/teams-server/analytics"
	"github.com/automate/teams-server/invites"
	"github.com/automate/teams-server/models"
	"github.com/automate/teams-server/providers/email"
	"github.com/automate/teams-server/providers/githubapi"
	"github.com/automate/teams-server/ratelimit"
	"github.com/automate/teams-server/repos"
	"github.com/automate/teams-server/server-go"
	"github.com/automate/teams-server/teams-api/config"
	"github.com/automate/teams-server/teams-api/controllers"
	"github.com/automate/teams-server/utils-go"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
)

func main() {

	opts := []fx.Option{}
	opts = append(opts, provideOptions()...)
	opts = append(opts, fx.Invoke(run))

	app := fx.New(opts...)

	app.Run()
}

func provideOptions() []fx.Option {
	return []fx.Option{
		fx.Provide(config.Parse),
		fx.Invoke(func(config *config.Config) {
			utils.ConfigureLogger(config.IsProduction)
		}),
		fx.Provide(utils.ConvertConfig[*config.Config, server.Config]),
		fx.Provide(utils.ConvertConfig[*config.Config, utils.PostgresConfig]),
		fx.Provide(utils.ConvertConfig[*config.Config, utils.RedisConfig]),
		fx.Provide(utils.ProvideRedis),
		fx.Provide(utils.ProvidePostgres),
		fx.Invoke(models.InitModelRegistrations),
		fx.Invoke(createSchema),
		fx.Provide(server.CreateServer),
		fx.Provide(utils.GetDefaultRouter),
		fx.Provide(provideLimiter),
		fx.Provide(repos.NewUserRepo),
		fx.Provide(repos.NewTeamRepo),
		fx.Provide(repos.NewRepositoryRepo),
		fx.Provide(repos.NewJobRepo),
		fx.Provide(repos.NewInvitationStore),
		fx.Provide(func(r *repos.UserRepo) controllers.UserRepository { return r }),
		fx.Provide(func(r *repos.TeamRepo) controllers.TeamRepository { return r }),
		fx.Provide(provideGithub),
		fx.Provide(provideInvites),
		fx.Provide(provideAnalytics),
		fx.Invoke(controllers.RegisterGlobalLimit),
		fx.Invoke(controllers.RegisterAuthController),
		fx.Invoke(controllers.RegisterUserController),
		fx.Invoke(controllers.RegisterTeamsController),
		fx.Invoke(controllers.RegisterInvitesController),
		fx.Invoke(controllers.RegisterReposController),
		fx.Invoke(controllers.RegisterAnalyticsController),
	}
}

func createSchema(db *bun.DB, config *config.Config) error {
	if !config.AutoSchema {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return models.CreateSchema(ctx, db)
}

func provideLimiter(client *redis.Client, config *config.Config) *ratelimit.Limiter {
	if !config.RateLimitEnabled {
		log.Warn().Msg("Rate limiting disabled")
	}
	return ratelimit.New(ratelimit.NewRedisStore(client), ratelimit.Options{Enabled: config.RateLimitEnabled})
}

func provideGithub(config *config.Config, repositories *repos.RepositoryRepo) (githubapi.Connector, *githubapi.Syncer, error) {
	connector := githubapi.NewConnector(githubapi.Options{BaseURL: config.GithubApiUrl})

	api, err := connector(config.GithubToken)
	if err != nil {
		return nil, nil, err
	}

	return connector, githubapi.NewSyncer(api, repositories), nil
}

func provideInvites(store *repos.InvitationStore, limiter *ratelimit.Limiter, users *repos.UserRepo, teams *repos.TeamRepo, config *config.Config) *invites.Service {
	notifier := email.NewInviteNotifier(&config.EmailConfig, users, teams)
	return invites.NewService(store, limiter, notifier, invites.Options{TTL: config.InviteTtl})
}

func provideAnalytics(teams *repos.TeamRepo, repositories *repos.RepositoryRepo, users *repos.UserRepo, jobs *repos.JobRepo, config *config.Config, lc fx.Lifecycle) *analytics.Service {
	service := analytics.NewService(teams, repositories, users, jobs)
	daemon := analytics.NewDaemon(service, config.AnalyticsInterval)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			daemon.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return daemon.Stop(ctx)
		},
	})

	return service
}

func run(app *fiber.App, config *config.Config, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			errChan := make(chan error)

			go func() {
				errChan <- app.Listen(config.Port)
			}()

			select {
			case err := <-errChan:
				return err
			case <-time.After(100 * time.Millisecond):
				return nil
			}
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}
