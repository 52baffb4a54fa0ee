package mailsync

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by Store.SyncState when the owner has never
// connected a mailbox.
var ErrNotConfigured = errors.New("mail sync not configured")

// SyncState is the per-owner credential record. It is read once per run and
// written at most twice (credential refresh, then completion). Updated
// credentials are passed back through the store rather than mutated on a
// shared object.
type SyncState struct {
	UserID       string
	Provider     ProviderName
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	Enabled      bool
	LastSyncAt   time.Time
}

// StatusChange records one accepted application status transition, applied
// atomically together with its immutable history entry.
type StatusChange struct {
	UserID        string
	ApplicationID string
	Previous      Status
	New           Status
	Source        string // "manual", "email", "import"
	MessageID     string // originating message, when Source is "email"
	Note          string
	ChangedAt     time.Time
}

// Store is the persistence the sync run needs. Implemented by the sqlite
// store; tests use an in-memory fake.
type Store interface {
	// SyncState loads the owner's credential record; ErrNotConfigured when
	// absent.
	SyncState(ctx context.Context, userID string) (*SyncState, error)

	// SaveCredentials persists a refreshed access credential and its expiry.
	SaveCredentials(ctx context.Context, userID, accessToken string, expiry time.Time) error

	// ListApplications returns the owner's applications for matching.
	ListApplications(ctx context.Context, userID string) ([]Application, error)

	// ApplicationStatus re-reads an application's current stored status.
	ApplicationStatus(ctx context.Context, applicationID string) (Status, error)

	// ApplyStatusChange updates the application row and appends the history
	// entry in one transaction.
	ApplyStatusChange(ctx context.Context, change StatusChange) error

	// InsertUnmatched stages an unmatched notification. Re-inserting the
	// same message for the same owner is a no-op.
	InsertUnmatched(ctx context.Context, userID string, n UnmatchedNotification) error

	// StampLastSync records the completion of a run, regardless of how many
	// messages were processed.
	StampLastSync(ctx context.Context, userID string, at time.Time) error
}
