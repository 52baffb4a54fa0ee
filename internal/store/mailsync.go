package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jobtrack-app/jobtrack/internal/mailsync"
)

// The sync runner's Store interface is implemented here; these methods are
// the persistence side of one sync run.

// SyncState loads the owner's credential record.
func (s *Store) SyncState(ctx context.Context, userID string) (*mailsync.SyncState, error) {
	var st mailsync.SyncState
	var provider string
	var expiry int64
	var enabled int
	var lastSync sql.NullInt64
	err := s.DB.QueryRowContext(ctx, `
		SELECT user_id, provider, access_token, refresh_token, token_expiry, enabled, last_sync_at
		FROM mail_sync_state WHERE user_id = ?
	`, userID).Scan(&st.UserID, &provider, &st.AccessToken, &st.RefreshToken, &expiry, &enabled, &lastSync)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, mailsync.ErrNotConfigured
		}
		return nil, fmt.Errorf("failed to load sync state: %w", err)
	}
	st.Provider = mailsync.ProviderName(provider)
	st.TokenExpiry = time.Unix(expiry, 0)
	st.Enabled = enabled != 0
	if lastSync.Valid {
		st.LastSyncAt = time.Unix(lastSync.Int64, 0)
	}
	return &st, nil
}

// UpsertSyncState connects (or reconnects) a mailbox: the full credential
// record is replaced and sync is enabled.
func (s *Store) UpsertSyncState(ctx context.Context, st *mailsync.SyncState) error {
	now := time.Now().Unix()
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO mail_sync_state (user_id, provider, access_token, refresh_token, token_expiry, enabled, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			provider = excluded.provider,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_expiry = excluded.token_expiry,
			enabled = 1,
			updated_at = excluded.updated_at
	`, st.UserID, string(st.Provider), st.AccessToken, st.RefreshToken, st.TokenExpiry.Unix(), now)
	if err != nil {
		return fmt.Errorf("failed to upsert sync state: %w", err)
	}
	return nil
}

// SetSyncEnabled toggles sync without touching the stored credentials.
func (s *Store) SetSyncEnabled(ctx context.Context, userID string, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	res, err := s.DB.ExecContext(ctx, `
		UPDATE mail_sync_state SET enabled = ?, updated_at = ? WHERE user_id = ?
	`, v, time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("failed to set sync enabled: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mailsync.ErrNotConfigured
	}
	return nil
}

// SaveCredentials persists a refreshed access credential and its expiry.
func (s *Store) SaveCredentials(ctx context.Context, userID, accessToken string, expiry time.Time) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE mail_sync_state SET access_token = ?, token_expiry = ?, updated_at = ?
		WHERE user_id = ?
	`, accessToken, expiry.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mailsync.ErrNotConfigured
	}
	return nil
}

// StampLastSync records the completion of a run.
func (s *Store) StampLastSync(ctx context.Context, userID string, at time.Time) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE mail_sync_state SET last_sync_at = ?, updated_at = ? WHERE user_id = ?
	`, at.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("failed to stamp last sync: %w", err)
	}
	return nil
}

// ListApplications projects the owner's applications into the matcher's
// shape, in insertion order so matching is deterministic across runs.
func (s *Store) ListApplications(ctx context.Context, userID string) ([]mailsync.Application, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, company_name, status FROM applications
		WHERE user_id = ? ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var apps []mailsync.Application
	for rows.Next() {
		var a mailsync.Application
		var status string
		if err := rows.Scan(&a.ID, &a.CompanyName, &status); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		a.Status = mailsync.Status(status)
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// ApplicationStatus re-reads an application's current status.
func (s *Store) ApplicationStatus(ctx context.Context, applicationID string) (mailsync.Status, error) {
	var status string
	err := s.DB.QueryRowContext(ctx, `
		SELECT status FROM applications WHERE id = ?
	`, applicationID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read status: %w", err)
	}
	return mailsync.Status(status), nil
}

// InsertUnmatched stages an unmatched notification. The UNIQUE constraint on
// (user_id, message_id) with INSERT OR IGNORE makes re-staging a no-op.
func (s *Store) InsertUnmatched(ctx context.Context, userID string, n mailsync.UnmatchedNotification) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT OR IGNORE INTO unmatched_emails
		(user_id, message_id, thread_id, subject, sender_name, sender_addr,
		 snippet, label_name, suggested_status, received_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, userID, n.MessageID, n.ThreadID, n.Subject, n.SenderName, n.SenderAddr,
		n.Snippet, n.LabelName, string(n.SuggestedStatus), n.ReceivedAt.Unix(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert unmatched email: %w", err)
	}
	return nil
}

// UnmatchedEmail is one staged notification as surfaced to the review queue.
type UnmatchedEmail struct {
	ID              int64     `json:"id"`
	MessageID       string    `json:"message_id"`
	ThreadID        string    `json:"thread_id,omitempty"`
	Subject         string    `json:"subject"`
	SenderName      string    `json:"sender_name,omitempty"`
	SenderAddr      string    `json:"sender_addr"`
	Snippet         string    `json:"snippet,omitempty"`
	LabelName       string    `json:"label_name"`
	SuggestedStatus string    `json:"suggested_status"`
	ReceivedAt      time.Time `json:"received_at"`
}

// ListUnmatched returns the owner's pending review queue, newest first.
func (s *Store) ListUnmatched(ctx context.Context, userID string) ([]UnmatchedEmail, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, message_id, thread_id, subject, sender_name, sender_addr,
		       snippet, label_name, suggested_status, received_at
		FROM unmatched_emails
		WHERE user_id = ? AND dismissed = 0
		ORDER BY received_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unmatched emails: %w", err)
	}
	defer rows.Close()

	var out []UnmatchedEmail
	for rows.Next() {
		var u UnmatchedEmail
		var receivedAt int64
		if err := rows.Scan(&u.ID, &u.MessageID, &u.ThreadID, &u.Subject, &u.SenderName,
			&u.SenderAddr, &u.Snippet, &u.LabelName, &u.SuggestedStatus, &receivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unmatched email: %w", err)
		}
		u.ReceivedAt = time.Unix(receivedAt, 0)
		out = append(out, u)
	}
	return out, rows.Err()
}

// DismissUnmatched removes a notification from the review queue. The row
// stays so re-syncing the same message does not resurrect it.
func (s *Store) DismissUnmatched(ctx context.Context, userID string, id int64) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE unmatched_emails SET dismissed = 1 WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to dismiss unmatched email: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
