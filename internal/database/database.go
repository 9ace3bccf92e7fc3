// Package database provides PostgreSQL connection management using pgx for
// the development backend.
package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Config holds PostgreSQL connection settings read from environment variables.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ConfigFromEnv reads database config from well-known environment variables,
// falling back to local-development defaults.
func ConfigFromEnv() Config {
	return Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "eventhub"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// Enabled reports whether DB_HOST is set. Without it the development
// backend runs on the in-memory store.
func Enabled() bool {
	return os.Getenv("DB_HOST") != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DSN builds a libpq-compatible connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// NewPool creates and validates a pgxpool connection pool.
// It retries up to 5 times to accommodate containers starting up.
func NewPool(ctx context.Context, cfg Config, logger *logrus.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		logger.WithError(err).WithFields(logrus.Fields{
			"attempt": attempt,
			"host":    cfg.Host,
		}).Warn("db connect failed, retrying in 2s")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("connect to postgres: %w", err)
}

// Schema creates the development backend's tables.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT        NOT NULL,
	email         TEXT        NOT NULL,
	role          TEXT        NOT NULL,
	password_hash BYTEA       NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (lower(email));

CREATE TABLE IF NOT EXISTS auth_tokens (
	token      TEXT PRIMARY KEY,
	user_id    BIGINT      NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS events (
	id                BIGSERIAL PRIMARY KEY,
	title             TEXT             NOT NULL,
	description       TEXT             NOT NULL,
	short_description TEXT             NOT NULL,
	event_date        TEXT             NOT NULL,
	event_time        TEXT             NOT NULL,
	location          TEXT             NOT NULL,
	venue             TEXT             NOT NULL,
	category          TEXT             NOT NULL,
	image_url         TEXT             NOT NULL DEFAULT '',
	price             DOUBLE PRECISION NOT NULL CHECK (price >= 0),
	max_attendees     INTEGER          NOT NULL CHECK (max_attendees > 0),
	current_attendees INTEGER          NOT NULL DEFAULT 0,
	organizer_id      BIGINT           NOT NULL REFERENCES users (id),
	status            TEXT             NOT NULL DEFAULT 'upcoming',
	tags              TEXT[]           NOT NULL DEFAULT '{}',
	created_at        TIMESTAMPTZ      NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS registrations (
	id               BIGSERIAL PRIMARY KEY,
	event_id         BIGINT           NOT NULL REFERENCES events (id) ON DELETE CASCADE,
	user_id          BIGINT           NOT NULL REFERENCES users (id),
	name             TEXT             NOT NULL,
	email            TEXT             NOT NULL,
	phone            TEXT             NOT NULL DEFAULT '',
	special_requests TEXT             NOT NULL DEFAULT '',
	status           TEXT             NOT NULL DEFAULT 'active',
	price            DOUBLE PRECISION NOT NULL,
	qr_code          TEXT             NOT NULL,
	created_at       TIMESTAMPTZ      NOT NULL DEFAULT now(),
	UNIQUE (event_id, user_id)
);
`

// Migrate applies Schema. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
