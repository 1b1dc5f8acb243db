package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/eco-report-api/pkg/config"
)

const (
	pingTimeout     = 5 * time.Second
	connectAttempts = 5
	applicationName = "eco-report-api"
)

// DSN renders the lib/pq keyword/value connection string for cfg.
func DSN(cfg config.DatabaseConfig) string {
	parts := []string{
		"host=" + dsnValue(cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		"user=" + dsnValue(cfg.User),
		"password=" + dsnValue(cfg.Password),
		"dbname=" + dsnValue(cfg.Name),
		"sslmode=" + dsnValue(cfg.SSLMode),
	}
	return strings.Join(parts, " ")
}

// dsnValue quotes values that would otherwise break keyword/value parsing.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// NewPostgres opens the report store. Postgres often starts after the API
// in compose setups, so the first ping is retried with a growing delay.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", DSN(cfg)+" application_name="+applicationName)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	delay := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err = Ping(ctx, db)
		if err == nil {
			return db, nil
		}
		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	_ = db.Close()
	return nil, fmt.Errorf("postgres unreachable after %d attempts: %w", connectAttempts, err)
}

// Ping checks the connection with a bounded timeout. Used by /ready.
func Ping(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.PingContext(ctx)
}
