package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Insight is one generated campaign analysis snapshot.
type Insight struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	MetricsJSON string    `json:"metrics_json"`
	Strategy    string    `json:"strategy,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// SaveInsight stores a freshly generated snapshot.
func (s *Store) SaveInsight(ctx context.Context, in *Insight) error {
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now()
	}
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO ai_insights (user_id, metrics_json, strategy, generated_at)
		VALUES (?, ?, ?, ?)
	`, in.UserID, in.MetricsJSON, in.Strategy, in.GeneratedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save insight: %w", err)
	}
	in.ID, _ = res.LastInsertId()
	return nil
}

// LatestInsight returns the most recent snapshot for the owner.
func (s *Store) LatestInsight(ctx context.Context, userID string) (*Insight, error) {
	var in Insight
	var generatedAt int64
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, metrics_json, strategy, generated_at
		FROM ai_insights WHERE user_id = ?
		ORDER BY generated_at DESC, id DESC LIMIT 1
	`, userID).Scan(&in.ID, &in.UserID, &in.MetricsJSON, &in.Strategy, &generatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load insight: %w", err)
	}
	in.GeneratedAt = time.Unix(generatedAt, 0)
	return &in, nil
}
