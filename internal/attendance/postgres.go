package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"clubhub/internal/event"
)

// PostgresRepository applies attendance in a single transaction over the
// event registration and attendance record tables.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) EventStatus(ctx context.Context, eventID string) (event.Status, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM events WHERE id = $1`, eventID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", event.ErrNotFound
		}
		return "", fmt.Errorf("get event status: %w", err)
	}
	return event.Status(status), nil
}

func (r *PostgresRepository) Mark(ctx context.Context, eventID string, present []string, markedAt time.Time) (Summary, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("begin mark: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock the event row so a concurrent mark serializes with this one.
	var exists string
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = event.ErrNotFound
			return Summary{}, err
		}
		return Summary{}, fmt.Errorf("lock event row: %w", err)
	}

	active := make(map[string]bool)
	rows, err := tx.QueryContext(ctx, `
		SELECT user_id FROM event_registrations
		WHERE event_id = $1 AND status <> 'cancelled'
	`, eventID)
	if err != nil {
		return Summary{}, fmt.Errorf("list registrants: %w", err)
	}
	for rows.Next() {
		var userID string
		if err = rows.Scan(&userID); err != nil {
			rows.Close()
			return Summary{}, fmt.Errorf("scan registrant: %w", err)
		}
		active[userID] = true
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return Summary{}, err
	}

	// Validate the whole present set before any write.
	for _, userID := range present {
		if !active[userID] {
			err = event.ErrUnknownParticipant
			return Summary{}, err
		}
	}

	// Full replacement: reset every active row, then mark the present set.
	_, err = tx.ExecContext(ctx, `
		UPDATE event_registrations SET status = 'registered'
		WHERE event_id = $1 AND status <> 'cancelled'
	`, eventID)
	if err != nil {
		return Summary{}, fmt.Errorf("reset registrations: %w", err)
	}
	if len(present) > 0 {
		args := make([]any, 0, len(present)+1)
		args = append(args, eventID)
		for _, userID := range present {
			args = append(args, userID)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE event_registrations SET status = 'attended'
			WHERE event_id = $1 AND status <> 'cancelled' AND user_id IN (`+placeholders(2, len(present))+`)
		`, args...)
		if err != nil {
			return Summary{}, fmt.Errorf("mark attended: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE event_id = $1`, eventID)
	if err != nil {
		return Summary{}, fmt.Errorf("clear attendance records: %w", err)
	}
	for _, userID := range present {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO attendance_records (event_id, user_id, marked_at)
			VALUES ($1, $2, $3)
		`, eventID, userID, markedAt)
		if err != nil {
			return Summary{}, fmt.Errorf("insert attendance record: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("commit mark: %w", err)
	}

	return Summary{EventID: eventID, Total: len(active), Present: len(present), MarkedAt: markedAt}, nil
}

func (r *PostgresRepository) Records(ctx context.Context, eventID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, user_id, marked_at
		FROM attendance_records
		WHERE event_id = $1
		ORDER BY user_id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.EventID, &rec.UserID, &rec.MarkedAt); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// placeholders renders n bind markers starting at $start, e.g. "$2, $3".
func placeholders(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", start+i)
	}
	return b.String()
}
