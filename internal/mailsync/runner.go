package mailsync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// Phase names the orchestrator's steps; fatal errors are tagged with the
// phase they occurred in.
type Phase string

const (
	PhaseIdle            Phase = "IDLE"
	PhaseCredentialCheck Phase = "CREDENTIAL_CHECK"
	PhaseRefreshing      Phase = "REFRESHING"
	PhaseLabelResolution Phase = "LABEL_RESOLUTION"
	PhaseFetching        Phase = "FETCHING"
	PhaseProcessing      Phase = "PROCESSING"
	PhasePersisting      Phase = "PERSISTING"
	PhaseDone            Phase = "DONE"
)

// Result is the aggregate outcome of one sync run. Configuration problems
// (nothing connected, sync disabled, zero labels resolved) are reported here
// with Success=false rather than as errors; only credential and upstream
// service failures abort the run.
type Result struct {
	Success            bool              `json:"success"`
	Processed          int               `json:"processed"`
	Matched            int               `json:"matched"`
	Unmatched          int               `json:"unmatched"`
	NetworkingContacts int               `json:"networkingContacts"`
	Error              string            `json:"error,omitempty"`
	Debug              *LabelDiagnostics `json:"debug,omitempty"`
}

// Runner orchestrates one sync run for one owner: credential check and
// refresh, label resolution, paged fetching, classification, reconciliation,
// and the completion stamp.
type Runner struct {
	Store       Store
	Tokens      TokenRefresher
	NewProvider ProviderFactory
	Contacts    ContactExtractor

	now func() time.Time
}

// NewRunner wires a runner; a nil contacts extractor falls back to the no-op
// implementation.
func NewRunner(store Store, tokens TokenRefresher, factory ProviderFactory, contacts ContactExtractor) *Runner {
	if contacts == nil {
		contacts = NopContactExtractor{}
	}
	return &Runner{
		Store:       store,
		Tokens:      tokens,
		NewProvider: factory,
		Contacts:    contacts,
		now:         time.Now,
	}
}

// Run executes one sync run. A non-nil error is fatal (credential refresh or
// upstream service failure); everything else comes back in the Result.
func (r *Runner) Run(ctx context.Context, userID string) (*Result, error) {
	// CREDENTIAL_CHECK
	state, err := r.Store.SyncState(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return &Result{Success: false, Error: "mail sync not configured; connect your mailbox first"}, nil
		}
		return nil, fmt.Errorf("%s: load sync state: %w", PhaseCredentialCheck, err)
	}
	if !state.Enabled {
		return &Result{Success: false, Error: "mail sync is disabled"}, nil
	}

	accessToken := state.AccessToken
	if state.TokenExpiry.Before(r.now()) {
		// REFRESHING: serialized ahead of any fetch so a stale credential is
		// never used for provider calls.
		newToken, expiry, err := r.Tokens.Refresh(ctx, state.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("%s: refresh access credential: %w", PhaseRefreshing, err)
		}
		if err := r.Store.SaveCredentials(ctx, userID, newToken, expiry); err != nil {
			return nil, fmt.Errorf("%s: persist refreshed credential: %w", PhaseRefreshing, err)
		}
		accessToken = newToken
	}

	provider, err := r.NewProvider(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: create mail provider: %w", PhaseCredentialCheck, err)
	}

	// LABEL_RESOLUTION
	labels, err := provider.ListLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: list labels: %w", PhaseLabelResolution, err)
	}
	catalog := ResolveLabels(labels)
	if catalog.Empty() {
		// Misconfiguration, not a service failure: surface diagnostics and
		// still stamp the run as having happened.
		if err := r.Store.StampLastSync(ctx, userID, r.now()); err != nil {
			log.Printf("sync %s: stamp last sync: %v", userID, err)
		}
		return &Result{
			Success: false,
			Error:   "none of the expected labels exist in this mailbox",
			Debug:   Diagnostics(labels),
		}, nil
	}

	apps, err := r.Store.ListApplications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: list applications: %w", PhaseLabelResolution, err)
	}
	classifier := NewClassifier(catalog, NewMatcher(apps))

	// FETCHING + PROCESSING: explicit page-cursor loop so messages beyond a
	// single page are never silently dropped.
	res := &Result{}
	seen := make(map[string]bool)
	pageToken := ""
	for {
		page, err := provider.ListMessageIDs(ctx, catalog.IDs(), pageToken)
		if err != nil {
			if pageToken == "" {
				return nil, fmt.Errorf("%s: list messages: %w", PhaseFetching, err)
			}
			// Mid-pagination failure: keep what we have; the labels persist
			// and the remainder is reconsidered next run.
			log.Printf("sync %s: list messages page: %v", userID, err)
			break
		}

		for _, id := range page.IDs {
			// A message carrying two tracked labels shows up once per label.
			if seen[id] {
				continue
			}
			seen[id] = true
			msg, err := provider.GetMessage(ctx, id)
			if err != nil {
				// Transient per-message failure; skipped, not fatal.
				log.Printf("sync %s: get message %s: %v", userID, id, err)
				continue
			}
			switch classifier.Ingest(msg) {
			case KindNetworking:
				res.NetworkingContacts++
				res.Processed++
				if err := r.Contacts.ExtractContact(ctx, userID, msg); err != nil {
					log.Printf("sync %s: extract contact from %s: %v", userID, id, err)
				}
			case KindStatusUpdate:
				res.Processed++
			}
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	res.Matched, res.Unmatched = NewReconciler(r.Store).Apply(ctx, userID, classifier.Pending(), classifier.Staged())

	// PERSISTING: the last-sync stamp lands even for an empty run.
	if err := r.Store.StampLastSync(ctx, userID, r.now()); err != nil {
		log.Printf("sync %s: stamp last sync: %v", userID, err)
	}

	res.Success = true
	return res, nil
}
