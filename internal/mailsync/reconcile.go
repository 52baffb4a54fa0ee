package mailsync

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"
)

// Reconciler applies grouped pending updates to the store, resolving
// conflicts by recency: for each application only the most recently received
// message wins. Messages carry no causal ordering beyond receipt time, so
// last-message-wins is a deliberate simplification.
type Reconciler struct {
	store Store
	now   func() time.Time
}

// NewReconciler builds a reconciler over the given store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store, now: time.Now}
}

// Apply resolves each application's pending updates and persists the staged
// unmatched notifications. Returns how many applications actually changed
// status and how many notifications were staged. Per-application store
// failures are logged and skipped; they never abort the batch.
func (r *Reconciler) Apply(ctx context.Context, userID string, pending map[string][]PendingUpdate, staged []UnmatchedNotification) (matched, unmatched int) {
	for appID, updates := range pending {
		if len(updates) == 0 {
			continue
		}
		sort.Slice(updates, func(i, j int) bool {
			return updates[i].ReceivedAt.After(updates[j].ReceivedAt)
		})
		winner := updates[0]

		current, err := r.store.ApplicationStatus(ctx, appID)
		if err != nil {
			log.Printf("reconcile: read status for %s: %v", appID, err)
			continue
		}
		if current == winner.Status {
			// Re-running a sync over the same messages is a no-op: no
			// duplicate history entries.
			continue
		}

		note := fmt.Sprintf("Auto-updated from label %q", winner.StatusLabel)
		if len(updates) > 1 {
			note = fmt.Sprintf("%s (%d competing messages collapsed)", note, len(updates))
		}

		err = r.store.ApplyStatusChange(ctx, StatusChange{
			UserID:        userID,
			ApplicationID: appID,
			Previous:      current,
			New:           winner.Status,
			Source:        "email",
			MessageID:     winner.MessageID,
			Note:          note,
			ChangedAt:     r.now(),
		})
		if err != nil {
			log.Printf("reconcile: apply status change for %s: %v", appID, err)
			continue
		}
		matched++
	}

	for _, n := range staged {
		if err := r.store.InsertUnmatched(ctx, userID, n); err != nil {
			log.Printf("reconcile: stage unmatched %s: %v", n.MessageID, err)
			continue
		}
		unmatched++
	}

	return matched, unmatched
}
