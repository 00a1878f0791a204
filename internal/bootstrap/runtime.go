// Package bootstrap wires the process-level dependencies shared by the
// server and seed commands.
package bootstrap

import (
	"context"
	"fmt"

	"jamsesh/internal/cache"
	"jamsesh/internal/config"
	"jamsesh/internal/database"
	"jamsesh/internal/middleware"
	"jamsesh/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty database with generated demo data.
	SeedDemo bool
	// SkipRedis leaves the Redis client nil.
	SkipRedis bool
}

// Connector opens the database. Tests swap it for SQLite.
type Connector func(cfg *config.Config) (*gorm.DB, error)

// InitRuntime connects to the database and (optionally) Redis, and seeds demo
// data when requested and the database is empty.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	return initRuntime(ctx, cfg, opts, database.Connect)
}

func initRuntime(ctx context.Context, cfg *config.Config, opts Options, connect Connector) (*gorm.DB, *redis.Client, error) {
	db, err := connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// A nil client means the app runs without cache, revocation or live events.
	var rdb *redis.Client
	if !opts.SkipRedis {
		rdb = cache.ConnectOptional(ctx, cfg.RedisURL)
	}

	if opts.SeedDemo {
		if err := seedIfEmpty(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, rdb, nil
}

func seedIfEmpty(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Table("profiles").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		middleware.Logger.InfoContext(ctx, "demo seed skipped, database not empty", "profiles", count)
		return nil
	}
	_, err := seed.NewSeeder(db, seed.Options{NumUsers: 12, NumPosts: 40}).Run(ctx)
	return err
}
