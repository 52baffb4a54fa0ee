package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jobtrack-app/jobtrack/internal/mailsync"
)

// ErrNotFound is returned when a row does not exist or belongs to another
// user.
var ErrNotFound = errors.New("not found")

// Application is one tracked job application.
type Application struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	CompanyName    string     `json:"company_name"`
	Position       string     `json:"position"`
	Status         string     `json:"status"`
	AppliedDate    *time.Time `json:"applied_date,omitempty"`
	Location       string     `json:"location,omitempty"`
	URL            string     `json:"url,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	JobDescription string     `json:"job_description,omitempty"`
	SalaryMin      *int64     `json:"salary_min,omitempty"`
	SalaryMax      *int64     `json:"salary_max,omitempty"`
	CompanySize    string     `json:"company_size,omitempty"`
	AnnualRevenue  string     `json:"annual_revenue,omitempty"`
	Industry       string     `json:"industry,omitempty"`
	CompanyType    string     `json:"company_type,omitempty"`
	StockTicker    string     `json:"stock_ticker,omitempty"`
	CompanySummary string     `json:"company_summary,omitempty"`
	FitScore       *int64     `json:"fit_score,omitempty"`
	FitAnalysis    string     `json:"fit_analysis,omitempty"`
	// StatusUpdatedAt tracks the last status transition, distinct from
	// UpdatedAt which moves on any edit. Nil until the first transition.
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

const applicationColumns = `id, user_id, company_name, position, status, applied_date,
	location, url, notes, job_description, salary_min, salary_max,
	company_size, annual_revenue, industry, company_type, stock_ticker,
	company_summary, fit_score, fit_analysis, status_updated_at, created_at, updated_at`

func scanApplication(row interface{ Scan(...any) error }) (*Application, error) {
	var a Application
	var applied, salaryMin, salaryMax, fitScore, statusUpdated sql.NullInt64
	var createdAt, updatedAt int64
	err := row.Scan(&a.ID, &a.UserID, &a.CompanyName, &a.Position, &a.Status,
		&applied, &a.Location, &a.URL, &a.Notes, &a.JobDescription,
		&salaryMin, &salaryMax, &a.CompanySize, &a.AnnualRevenue, &a.Industry,
		&a.CompanyType, &a.StockTicker, &a.CompanySummary, &fitScore,
		&a.FitAnalysis, &statusUpdated, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if applied.Valid {
		t := time.Unix(applied.Int64, 0)
		a.AppliedDate = &t
	}
	if salaryMin.Valid {
		a.SalaryMin = &salaryMin.Int64
	}
	if salaryMax.Valid {
		a.SalaryMax = &salaryMax.Int64
	}
	if fitScore.Valid {
		a.FitScore = &fitScore.Int64
	}
	if statusUpdated.Valid {
		t := time.Unix(statusUpdated.Int64, 0)
		a.StatusUpdatedAt = &t
	}
	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updatedAt, 0)
	return &a, nil
}

func nullUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// CreateApplication inserts the application and appends a creation event to
// the outbox in one transaction. A missing id or timestamps are filled in.
func (s *Store) CreateApplication(ctx context.Context, a *Application) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = string(mailsync.StatusApplied)
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.UserID, a.CompanyName, a.Position, a.Status, nullUnix(a.AppliedDate),
		a.Location, a.URL, a.Notes, a.JobDescription, nullInt(a.SalaryMin), nullInt(a.SalaryMax),
		a.CompanySize, a.AnnualRevenue, a.Industry, a.CompanyType, a.StockTicker,
		a.CompanySummary, nullInt(a.FitScore), a.FitAnalysis, nullUnix(a.StatusUpdatedAt),
		now.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}

	if err := appendOutboxTx(ctx, tx, "applications."+a.UserID, "application.created", a); err != nil {
		return err
	}
	return tx.Commit()
}

// GetApplication loads one application scoped to its owner.
func (s *Store) GetApplication(ctx context.Context, userID, id string) (*Application, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT `+applicationColumns+` FROM applications WHERE id = ? AND user_id = ?
	`, id, userID)
	a, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

// ListUserApplications returns all of the owner's applications, most recent
// first.
func (s *Store) ListUserApplications(ctx context.Context, userID string) ([]Application, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+applicationColumns+` FROM applications
		WHERE user_id = ? ORDER BY created_at DESC, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// UpdateApplication overwrites the mutable fields of an application. Status
// is not touched here; status moves go through ApplyStatusChange so the
// history stays complete.
func (s *Store) UpdateApplication(ctx context.Context, a *Application) error {
	a.UpdatedAt = time.Now()
	res, err := s.DB.ExecContext(ctx, `
		UPDATE applications SET
			company_name = ?, position = ?, applied_date = ?, location = ?,
			url = ?, notes = ?, job_description = ?, salary_min = ?,
			salary_max = ?, company_size = ?, annual_revenue = ?, industry = ?,
			company_type = ?, stock_ticker = ?, company_summary = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?
	`, a.CompanyName, a.Position, nullUnix(a.AppliedDate), a.Location,
		a.URL, a.Notes, a.JobDescription, nullInt(a.SalaryMin),
		nullInt(a.SalaryMax), a.CompanySize, a.AnnualRevenue, a.Industry,
		a.CompanyType, a.StockTicker, a.CompanySummary,
		a.UpdatedAt.Unix(), a.ID, a.UserID)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveFitScore stores the scoring result on the application.
func (s *Store) SaveFitScore(ctx context.Context, userID, id string, score int64, analysisJSON string) error {
	res, err := s.DB.ExecContext(ctx, `
		UPDATE applications SET fit_score = ?, fit_analysis = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, score, analysisJSON, time.Now().Unix(), id, userID)
	if err != nil {
		return fmt.Errorf("failed to save fit score: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteApplication removes an application and its history.
func (s *Store) DeleteApplication(ctx context.Context, userID, id string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM applications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM application_status_history WHERE application_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	if err := appendOutboxTx(ctx, tx, "applications."+userID, "application.deleted",
		map[string]string{"id": id, "user_id": userID}); err != nil {
		return err
	}
	return tx.Commit()
}

// HistoryEntry is one row of the immutable status audit trail.
type HistoryEntry struct {
	ID             int64     `json:"id"`
	ApplicationID  string    `json:"application_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Source         string    `json:"source"`
	MessageID      string    `json:"message_id,omitempty"`
	Note           string    `json:"note,omitempty"`
	ChangedAt      time.Time `json:"changed_at"`
}

// StatusHistory returns an application's transitions, oldest first.
func (s *Store) StatusHistory(ctx context.Context, userID, applicationID string) ([]HistoryEntry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, application_id, previous_status, new_status, source, message_id, note, changed_at
		FROM application_status_history
		WHERE application_id = ? AND user_id = ?
		ORDER BY id
	`, applicationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var changedAt int64
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.PreviousStatus, &e.NewStatus,
			&e.Source, &e.MessageID, &e.Note, &changedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.ChangedAt = time.Unix(changedAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ApplyStatusChange updates the application row, appends the history entry,
// and stages the domain event in one transaction.
func (s *Store) ApplyStatusChange(ctx context.Context, change mailsync.StatusChange) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE applications SET status = ?, status_updated_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, string(change.New), change.ChangedAt.Unix(), change.ChangedAt.Unix(),
		change.ApplicationID, change.UserID)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO application_status_history
		(application_id, user_id, previous_status, new_status, source, message_id, note, changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, change.ApplicationID, change.UserID, string(change.Previous), string(change.New),
		change.Source, change.MessageID, change.Note, change.ChangedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}

	if err := appendOutboxTx(ctx, tx, "applications."+change.UserID, "application.status_changed", change); err != nil {
		return err
	}
	return tx.Commit()
}

// appendOutboxTx serializes the event and stages it inside the caller's
// transaction.
func appendOutboxTx(ctx context.Context, tx *sql.Tx, subject, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}
	now := time.Now().Unix()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox (ts, subject, event_type, payload, msg_id, next_attempt_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, now, subject, eventType, data, uuid.NewString(), now)
	if err != nil {
		return fmt.Errorf("failed to insert outbox entry: %w", err)
	}
	return nil
}
