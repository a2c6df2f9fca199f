package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/GeorgePPP/bill-splitter/internal/models"
)

// CreateSession persists a new guest session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	if session.Token == "" {
		session.Token = uuid.New().String()
	}
	now := s.now().Unix()
	if session.CreatedAt == 0 {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	state, err := toJSON(session.State)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, state, expires_at, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		session.Token, state, session.ExpiresAt, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a live session. Expired sessions are deleted on read.
func (s *SQLiteStore) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var (
		session models.Session
		state   sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT token, state, expires_at, created_at, updated_at FROM sessions WHERE token = ?",
		token,
	).Scan(&session.Token, &state, &session.ExpiresAt, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("session", token)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.ExpiresAt <= s.now().Unix() {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
			slog.Warn("Failed to delete expired session", "error", err)
		}
		return nil, notFound("session", token)
	}

	if err := fromJSON(state, &session.State); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}
	return &session, nil
}

// UpdateSession replaces the state and expiry of a live session.
func (s *SQLiteStore) UpdateSession(ctx context.Context, session *models.Session) error {
	state, err := toJSON(session.State)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	now := s.now().Unix()
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET state = ?, expires_at = ?, updated_at = ? WHERE token = ? AND expires_at > ?",
		state, session.ExpiresAt, now, session.Token, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if err := checkAffected(res, "session", session.Token); err != nil {
		return err
	}
	session.UpdatedAt = now
	return nil
}

// DeleteSession removes a session.
func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return checkAffected(res, "session", token)
}

// DeleteExpiredSessions removes every session past its expiry.
func (s *SQLiteStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
