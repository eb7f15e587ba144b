package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresRepository persists events in Postgres. Registration mutations
// lock the event row (SELECT ... FOR UPDATE) so capacity checks serialize
// per event.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const eventColumns = `id, club_id, title, description, event_date, start_time, end_time,
	venue, max_participants, registration_deadline, status, created_at`

func scanEvent(row interface{ Scan(...any) error }) (Event, error) {
	var ev Event
	var status string
	err := row.Scan(&ev.ID, &ev.ClubID, &ev.Title, &ev.Description, &ev.EventDate,
		&ev.StartTime, &ev.EndTime, &ev.Venue, &ev.MaxParticipants,
		&ev.RegistrationDeadline, &status, &ev.CreatedAt)
	if err != nil {
		return Event{}, err
	}
	ev.Status = Status(status)
	return ev, nil
}

func (r *PostgresRepository) Create(ctx context.Context, ev Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, ev.ID, ev.ClubID, ev.Title, ev.Description, ev.EventDate, ev.StartTime, ev.EndTime,
		ev.Venue, ev.MaxParticipants, ev.RegistrationDeadline, string(ev.Status), ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Event, error) {
	ev, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Event{}, ErrNotFound
		}
		return Event{}, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY event_date DESC`)
}

func (r *PostgresRepository) ListByClub(ctx context.Context, clubID string) ([]Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events WHERE club_id = $1 ORDER BY event_date DESC`, clubID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, ev Event) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events
		SET title = $2, description = $3, event_date = $4, start_time = $5, end_time = $6,
		    venue = $7, max_participants = $8, registration_deadline = $9
		WHERE id = $1
	`, ev.ID, ev.Title, ev.Description, ev.EventDate, ev.StartTime, ev.EndTime,
		ev.Venue, ev.MaxParticipants, ev.RegistrationDeadline)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SetStatus(ctx context.Context, id string, from, to Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events SET status = $3 WHERE id = $1 AND status = $2
	`, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("set event status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the event is gone or its status moved under us.
		if _, gerr := r.Get(ctx, id); gerr != nil {
			return gerr
		}
		return ErrInvalidTransition
	}
	return nil
}

// Register appends a registration row after locking the event row. Checks run
// in the defined order inside the transaction: status, deadline, duplicate,
// capacity. A duplicate attempt never counts against capacity.
func (r *PostgresRepository) Register(ctx context.Context, eventID, userID string, now time.Time) (Registration, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Registration{}, fmt.Errorf("begin register: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	ev, err := scanEvent(tx.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
			return Registration{}, err
		}
		return Registration{}, fmt.Errorf("lock event row: %w", err)
	}

	var already int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM event_registrations
		WHERE event_id = $1 AND user_id = $2 AND status <> 'cancelled'
	`, eventID, userID).Scan(&already)
	if err != nil {
		return Registration{}, fmt.Errorf("check duplicate registration: %w", err)
	}

	var active int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM event_registrations
		WHERE event_id = $1 AND status <> 'cancelled'
	`, eventID).Scan(&active)
	if err != nil {
		return Registration{}, fmt.Errorf("count registrations: %w", err)
	}

	if err = vetRegistration(ev, already > 0, active, now); err != nil {
		return Registration{}, err
	}

	reg := Registration{EventID: eventID, UserID: userID, Status: Registered, RegisteredAt: now}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO event_registrations (event_id, user_id, status, registered_at)
		VALUES ($1, $2, $3, $4)
	`, reg.EventID, reg.UserID, string(reg.Status), reg.RegisteredAt)
	if err != nil {
		return Registration{}, fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return Registration{}, fmt.Errorf("commit register: %w", err)
	}
	return reg, nil
}

// CancelRegistration sets the active row to cancelled, freeing its capacity
// slot.
func (r *PostgresRepository) CancelRegistration(ctx context.Context, eventID, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE event_registrations SET status = 'cancelled'
		WHERE event_id = $1 AND user_id = $2 AND status <> 'cancelled'
	`, eventID, userID)
	if err != nil {
		return fmt.Errorf("cancel registration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotRegistered
	}
	return nil
}

func (r *PostgresRepository) ActiveRegistrations(ctx context.Context, eventID string) ([]Registration, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT event_id, user_id, status, registered_at
		FROM event_registrations
		WHERE event_id = $1 AND status <> 'cancelled'
		ORDER BY registered_at
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []Registration
	for rows.Next() {
		var reg Registration
		var status string
		if err := rows.Scan(&reg.EventID, &reg.UserID, &status, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg.Status = RegistrationStatus(status)
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *PostgresRepository) ActiveCount(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM event_registrations
		WHERE event_id = $1 AND status <> 'cancelled'
	`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) SweepStatuses(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE events SET status = 'completed'
		WHERE status IN ('upcoming', 'ongoing') AND end_time <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("sweep completed: %w", err)
	}
	completed, _ := res.RowsAffected()

	res, err = r.db.ExecContext(ctx, `
		UPDATE events SET status = 'ongoing'
		WHERE status = 'upcoming' AND start_time <= $1
	`, now)
	if err != nil {
		return int(completed), fmt.Errorf("sweep ongoing: %w", err)
	}
	started, _ := res.RowsAffected()

	return int(completed + started), nil
}
