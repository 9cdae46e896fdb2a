package store

import (
	"context"
	"database/sql"
	"fmt"

	"dataorbit/api/models"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// CreateIfAbsent inserts a tracking session unless one with the same
// session_id already exists. Session ids are generated client-side, so the
// insert has to be idempotent rather than uniqueness-enforcing.
func (s *SessionStore) CreateIfAbsent(ctx context.Context, session models.TrackingSession) error {
	query := `
		INSERT INTO tracking_sessions (session_id, ip_address, device, browser, country, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO NOTHING;
	`
	_, err := s.db.ExecContext(ctx, query,
		session.SessionID,
		session.IPAddress,
		session.Device,
		session.Browser,
		session.Country,
		session.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tracking session: %w", err)
	}
	return nil
}

// Exists reports whether a session row has been recorded for the id.
func (s *SessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM tracking_sessions WHERE session_id = $1);`
	if err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return exists, nil
}

// Stats returns the admin dashboard session counters.
func (s *SessionStore) Stats(ctx context.Context) (models.SessionStats, error) {
	var stats models.SessionStats
	query := `
		SELECT
			COUNT(*),
			COUNT(DISTINCT session_id),
			COUNT(DISTINCT ip_address) FILTER (WHERE ip_address <> '' AND ip_address <> 'unknown')
		FROM tracking_sessions;
	`
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalSessions,
		&stats.UniqueSessions,
		&stats.UniqueIPs,
	)
	if err != nil {
		return models.SessionStats{}, fmt.Errorf("failed to query session stats: %w", err)
	}
	return stats, nil
}
