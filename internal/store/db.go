// Package store keeps the local Jain calendar: calendar rows, Kalyanaks and
// imported community events, in MySQL or MariaDB.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"jaincal/internal/config"
	appLog "jaincal/internal/log"
)

// Open connects to the database and pings it with exponential backoff, since
// the database may still be starting when the service launches.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	const maxRetries = 8
	backoff := time.Second
	var pingErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pingErr = db.PingContext(pctx)
		cancel()
		if pingErr == nil {
			return db, nil
		}
		if attempt == maxRetries {
			break
		}
		appLog.Warn("database not ready, retrying", "attempt", attempt, "max_retries", maxRetries, "backoff", backoff.String(), "error", pingErr.Error())

		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 30*time.Second)
	}

	db.Close()
	return nil, fmt.Errorf("pinging database after %d attempts: %w", maxRetries, pingErr)
}
