package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"bloomelein/m/domain"
)

// ErrStaffNotFound is returned when no staff member has the username.
var ErrStaffNotFound = errors.New("staff not found")

// Store implements the persistence the receipt service needs on top of sqlx.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps an open database.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// LoadCounter returns the stored counter row, if any.
func (s *Store) LoadCounter(ctx context.Context, name string) (domain.DailyCounter, bool, error) {
	var counter domain.DailyCounter
	err := s.db.GetContext(ctx, &counter, `SELECT name, last_reset_date, sequence, updated_at FROM receipt_counters WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DailyCounter{}, false, nil
	}
	if err != nil {
		return domain.DailyCounter{}, false, fmt.Errorf("select counter %s: %w", name, err)
	}
	return counter, true, nil
}

// SaveCounter upserts the counter row.
func (s *Store) SaveCounter(ctx context.Context, counter domain.DailyCounter) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO receipt_counters (name, last_reset_date, sequence, updated_at)
        VALUES (?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(name) DO UPDATE SET last_reset_date = excluded.last_reset_date, sequence = excluded.sequence, updated_at = CURRENT_TIMESTAMP`,
		counter.Name, counter.LastResetDate, counter.Sequence)
	if err != nil {
		return fmt.Errorf("upsert counter %s: %w", counter.Name, err)
	}
	return nil
}

// FindStaff looks a staff member up by username, case-insensitively.
func (s *Store) FindStaff(ctx context.Context, username string) (domain.Staff, error) {
	var staff domain.Staff
	err := s.db.GetContext(ctx, &staff, `SELECT id, username, display_name, password, created_at FROM staff WHERE username = ?`, strings.ToLower(username))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Staff{}, ErrStaffNotFound
	}
	if err != nil {
		return domain.Staff{}, fmt.Errorf("select staff %s: %w", username, err)
	}
	return staff, nil
}

// CreateStaff inserts a staff member with an already hashed password. It
// reports false when the username is taken.
func (s *Store) CreateStaff(ctx context.Context, staff domain.Staff) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO staff (username, display_name, password) VALUES (?, ?, ?)`,
		strings.ToLower(staff.Username), staff.DisplayName, staff.Password)
	if err != nil {
		return false, fmt.Errorf("insert staff %s: %w", staff.Username, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListStaff returns every staff member without password hashes.
func (s *Store) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	staff := []domain.Staff{}
	if err := s.db.SelectContext(ctx, &staff, `SELECT id, username, display_name, created_at FROM staff ORDER BY display_name`); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}
