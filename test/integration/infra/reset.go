//go:build integration

package infra

import (
	"context"
	"database/sql"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

func ResetAll(ctx context.Context, db *sql.DB, redisAddr string) error {
	if err := ResetPostgres(ctx, db); err != nil {
		return err
	}
	return ResetRedis(ctx, redisAddr)
}

// ResetPostgres empties the user tables. roles keeps its seeded rows.
func ResetPostgres(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `TRUNCATE TABLE user_roles, users CASCADE;`); err != nil {
		return fmt.Errorf("reset postgres: %w", err)
	}
	return nil
}

func ResetRedis(ctx context.Context, addr string) error {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	defer func() { _ = rdb.Close() }()
	return rdb.FlushDB(ctx).Err()
}
