package config

import (
	"time"

	"github.com/automate/teams-server/providers/email"
	"github.com/automate/teams-server/utils-go"
	"github.com/caarlos0/env/v6"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           string   `env:"LISTEN_ADDR" envDefault:":3000"`
	Timeout        uint64   `env:"TIMEOUT" envDefault:"10"`
	ReadBufferSize int      `env:"READ_BUFFER_SIZE" envDefault:"4096"`
	BodyLimit      int      `env:"BODY_LIMIT" envDefault:"1048576"`
	AppName        string   `env:"APP_NAME" envDefault:"Teams"`
	IsProduction   bool     `env:"PRODUCTION"`
	CookieKey      string   `env:"COOKIE_KEY"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	Dsn        string `env:"DSN"`
	DbTimeout  uint64 `env:"DB_TIMEOUT" envDefault:"5"`
	AutoSchema bool   `env:"AUTO_SCHEMA" envDefault:"true"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDb       int    `env:"REDIS_DB" envDefault:"0"`
	RedisTimeout  uint64 `env:"REDIS_TIMEOUT" envDefault:"2"`

	JwtSecret string        `env:"JWT_SECRET"`
	JwtTtl    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	RateLimitEnabled  bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	InviteTtl         time.Duration `env:"INVITE_TTL" envDefault:"168h"`
	AnalyticsInterval time.Duration `env:"ANALYTICS_INTERVAL" envDefault:"1h"`

	GithubApiUrl string `env:"GITHUB_API_URL"`
	GithubToken  string `env:"GITHUB_TOKEN"`

	EmailConfig email.Config `envPrefix:"EMAIL_"`

	JwtParsedSecret []byte `json:"-"`
}

func Parse() (*Config, error) {
	cfg := Config{
		IsProduction: utils.ParseFlags(),
	}

	if err := env.Parse(&cfg); err != nil {
		log.Panic().Err(err).Msg("Failed to parse env config")
	}

	if cfg.JwtSecret == "" {
		if cfg.IsProduction {
			log.Panic().Msg("JWT_SECRET is required in production")
		}
		log.Warn().Msg("JWT_SECRET not set, using a random secret for this process")
		cfg.JwtParsedSecret = utils.GenerateRandomBytes(32)
	} else {
		cfg.JwtParsedSecret = []byte(cfg.JwtSecret)
	}

	return &cfg, nil
}
