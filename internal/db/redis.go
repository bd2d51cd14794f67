package db

import (
	"github.com/redis/go-redis/v9"

	"github.com/rp0948566-hue/beacon-safety-hub-01/internal/config"
)

func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
