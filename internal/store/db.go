package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// Migrate creates the schema when missing.
func (d *DB) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		department    TEXT NOT NULL DEFAULT '',
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS clubs (
		id             UUID PRIMARY KEY,
		name           TEXT NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		category       TEXT NOT NULL,
		coordinator_id UUID NOT NULL REFERENCES users(id),
		is_active      BOOLEAN NOT NULL DEFAULT TRUE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS club_members (
		id        BIGSERIAL PRIMARY KEY,
		club_id   UUID NOT NULL REFERENCES clubs(id),
		user_id   UUID NOT NULL REFERENCES users(id),
		role      TEXT NOT NULL DEFAULT 'member',
		joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_club_members_active
		ON club_members(club_id, user_id) WHERE is_active;

	CREATE TABLE IF NOT EXISTS events (
		id                    UUID PRIMARY KEY,
		club_id               UUID NOT NULL REFERENCES clubs(id),
		title                 TEXT NOT NULL,
		description           TEXT NOT NULL DEFAULT '',
		event_date            TIMESTAMPTZ NOT NULL,
		start_time            TIMESTAMPTZ NOT NULL,
		end_time              TIMESTAMPTZ NOT NULL,
		venue                 TEXT NOT NULL DEFAULT '',
		max_participants      INT NOT NULL DEFAULT 0,
		registration_deadline TIMESTAMPTZ NOT NULL,
		status                TEXT NOT NULL DEFAULT 'upcoming',
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS event_registrations (
		id            BIGSERIAL PRIMARY KEY,
		event_id      UUID NOT NULL REFERENCES events(id),
		user_id       UUID NOT NULL REFERENCES users(id),
		status        TEXT NOT NULL DEFAULT 'registered',
		registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_event_registrations_active
		ON event_registrations(event_id, user_id) WHERE status <> 'cancelled';

	CREATE TABLE IF NOT EXISTS attendance_records (
		id        BIGSERIAL PRIMARY KEY,
		event_id  UUID NOT NULL REFERENCES events(id),
		user_id   UUID NOT NULL REFERENCES users(id),
		marked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (event_id, user_id)
	);
	`
	if _, err := d.Client.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
