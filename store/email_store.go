package store

import (
	"context"
	"database/sql"
	"fmt"

	"dataorbit/api/models"
)

type EmailStore struct {
	db *sql.DB
}

func NewEmailStore(db *sql.DB) *EmailStore {
	return &EmailStore{db: db}
}

func (s *EmailStore) Insert(ctx context.Context, sub models.EmailSubmission) error {
	query := `
		INSERT INTO email_submissions (id, session_id, web_result_id, email)
		VALUES ($1, $2, NULLIF($3, ''), $4);
	`
	_, err := s.db.ExecContext(ctx, query, sub.ID, sub.SessionID, sub.WebResultID, sub.Email)
	if err != nil {
		return fmt.Errorf("failed to insert email submission: %w", err)
	}
	return nil
}

func (s *EmailStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_submissions;`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count email submissions: %w", err)
	}
	return count, nil
}
