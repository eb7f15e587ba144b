package club

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresRepository persists clubs in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a repo.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c Club) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clubs (id, name, description, category, coordinator_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Name, c.Description, string(c.Category), c.CoordinatorID, c.IsActive, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert club: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (Club, error) {
	var c Club
	var category string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, category, coordinator_id, is_active, created_at
		FROM clubs WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Description, &category, &c.CoordinatorID, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Club{}, ErrNotFound
		}
		return Club{}, fmt.Errorf("get club: %w", err)
	}
	c.Category = Category(category)
	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Club, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, category, coordinator_id, is_active, created_at
		FROM clubs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	defer rows.Close()

	var clubs []Club
	for rows.Next() {
		var c Club
		var category string
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &category, &c.CoordinatorID, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan club: %w", err)
		}
		c.Category = Category(category)
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

func (r *PostgresRepository) Update(ctx context.Context, c Club) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE clubs SET name = $2, description = $3, category = $4 WHERE id = $1
	`, c.ID, c.Name, c.Description, string(c.Category))
	if err != nil {
		return fmt.Errorf("update club: %w", err)
	}
	return checkFound(res)
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE clubs SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set club active: %w", err)
	}
	return checkFound(res)
}

func (r *PostgresRepository) SetCoordinator(ctx context.Context, clubID, userID string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE clubs SET coordinator_id = $2 WHERE id = $1`, clubID, userID)
	if err != nil {
		return fmt.Errorf("set coordinator: %w", err)
	}
	return checkFound(res)
}

// AddMember appends a membership row after locking the club row, so two
// concurrent joins cannot both pass the duplicate check.
func (r *PostgresRepository) AddMember(ctx context.Context, m Member) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin join: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var active bool
	err = tx.QueryRowContext(ctx, `SELECT is_active FROM clubs WHERE id = $1 FOR UPDATE`, m.ClubID).Scan(&active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock club row: %w", err)
	}
	if !active {
		err = ErrClubInactive
		return err
	}

	var dup int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM club_members WHERE club_id = $1 AND user_id = $2 AND is_active
	`, m.ClubID, m.UserID).Scan(&dup)
	if err != nil {
		return fmt.Errorf("check duplicate membership: %w", err)
	}
	if dup > 0 {
		err = ErrAlreadyMember
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO club_members (club_id, user_id, role, joined_at, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
	`, m.ClubID, m.UserID, string(m.Role), m.JoinedAt)
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit join: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeactivateMember(ctx context.Context, clubID, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE club_members SET is_active = FALSE
		WHERE club_id = $1 AND user_id = $2 AND is_active
	`, clubID, userID)
	if err != nil {
		return fmt.Errorf("deactivate membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotAMember
	}
	return nil
}

func (r *PostgresRepository) SetMemberRole(ctx context.Context, clubID, userID string, role MemberRole) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE club_members SET role = $3
		WHERE club_id = $1 AND user_id = $2 AND is_active
	`, clubID, userID, string(role))
	if err != nil {
		return fmt.Errorf("set member role: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotAMember
	}
	return nil
}

func (r *PostgresRepository) ActiveMembers(ctx context.Context, clubID string) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT club_id, user_id, role, joined_at, is_active
		FROM club_members
		WHERE club_id = $1 AND is_active
		ORDER BY joined_at
	`, clubID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var role string
		if err := rows.Scan(&m.ClubID, &m.UserID, &role, &m.JoinedAt, &m.IsActive); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = MemberRole(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *PostgresRepository) ActiveMemberRole(ctx context.Context, clubID, userID string) (MemberRole, bool, error) {
	var role string
	err := r.db.QueryRowContext(ctx, `
		SELECT role FROM club_members WHERE club_id = $1 AND user_id = $2 AND is_active
	`, clubID, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get member role: %w", err)
	}
	return MemberRole(role), true, nil
}

func (r *PostgresRepository) ActiveMemberCount(ctx context.Context, clubID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM club_members WHERE club_id = $1 AND is_active
	`, clubID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

func checkFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
