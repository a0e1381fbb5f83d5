package utils

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

type PostgresConfig struct {
	Dsn          string `env:"DSN"`
	IsProduction bool   `env:"PRODUCTION"`
	DbTimeout    uint64 `env:"DB_TIMEOUT" envDefault:"5"`
}

func ProvidePostgres(config *PostgresConfig) (*bun.DB, error) {
	timeout := time.Second * time.Duration(config.DbTimeout)
	if timeout == 0 {
		timeout = time.Second * 5
	}

	pgdb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(config.Dsn),
		pgdriver.WithDialTimeout(timeout),
		pgdriver.WithReadTimeout(timeout),
		pgdriver.WithWriteTimeout(timeout),
	))
	db := bun.NewDB(pgdb, pgdialect.New())
	if !config.IsProduction {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
		log.Info().Msg("Enabled bun debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}
