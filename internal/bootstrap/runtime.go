// Package bootstrap wires the process-wide runtime dependencies.
package bootstrap

import (
	"fmt"
	"log/slog"

	"appfeed/internal/cache"
	"appfeed/internal/config"
	"appfeed/internal/database"
	"appfeed/internal/observability"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis. Redis is optional: when it
// is unreachable the returned client is nil and the author cache and
// cross-process live events are disabled.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()
	if r == nil {
		observability.GlobalLogger.Warn("redis unavailable, running without author cache and live fan-out",
			slog.String("redis_url", cfg.RedisURL),
			slog.Bool("production", cfg.IsProduction()),
		)
	}

	return db, r, nil
}
