package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

type RedisConfig struct {
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDb       int    `env:"REDIS_DB" envDefault:"0"`
	RedisTimeout  uint64 `env:"REDIS_TIMEOUT" envDefault:"2"`
}

// ProvideRedis builds the client without failing when redis is down: the
// counter store is optional and callers degrade on errors.
func ProvideRedis(config *RedisConfig) (*redis.Client, error) {
	timeout := time.Second * time.Duration(config.RedisTimeout)

	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(config.RedisHost, strconv.Itoa(config.RedisPort)),
		Password:     config.RedisPassword,
		DB:           config.RedisDb,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		MaxRetries:   1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", client.Options().Addr).Msg("Redis unreachable, rate limiting will fail open")
	} else {
		log.Info().Str("addr", client.Options().Addr).Msg("Connected to redis")
	}

	return client, nil
}
