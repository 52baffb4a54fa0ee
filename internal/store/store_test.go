package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrack-app/jobtrack/internal/mailsync"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestApplicationLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	app := &Application{UserID: "u1", CompanyName: "Acme", Position: "Engineer"}
	require.NoError(t, s.CreateApplication(ctx, app))
	require.NotEmpty(t, app.ID)
	assert.Equal(t, "applied", app.Status)

	got, err := s.GetApplication(ctx, "u1", app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.CompanyName)
	assert.Equal(t, "Engineer", got.Position)

	// Scoped to the owner.
	_, err = s.GetApplication(ctx, "u2", app.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got.Position = "Staff Engineer"
	got.Notes = "referred by J."
	require.NoError(t, s.UpdateApplication(ctx, got))

	got, err = s.GetApplication(ctx, "u1", app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", got.Position)
	assert.Equal(t, "referred by J.", got.Notes)

	apps, err := s.ListUserApplications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, apps, 1)

	require.NoError(t, s.DeleteApplication(ctx, "u1", app.ID))
	_, err = s.GetApplication(ctx, "u1", app.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyStatusChange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	app := &Application{UserID: "u1", CompanyName: "Acme"}
	require.NoError(t, s.CreateApplication(ctx, app))

	changedAt := time.Now().Truncate(time.Second)
	change := mailsync.StatusChange{
		UserID:        "u1",
		ApplicationID: app.ID,
		Previous:      mailsync.StatusApplied,
		New:           mailsync.StatusInterviews,
		Source:        "email",
		MessageID:     "m1",
		Note:          `Auto-updated from label "JH25 - Interviews"`,
		ChangedAt:     changedAt,
	}
	require.NoError(t, s.ApplyStatusChange(ctx, change))

	status, err := s.ApplicationStatus(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, mailsync.StatusInterviews, status)

	// The transition stamps its own timestamp, separate from updated_at.
	got, err := s.GetApplication(ctx, "u1", app.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StatusUpdatedAt)
	assert.Equal(t, changedAt.Unix(), got.StatusUpdatedAt.Unix())

	history, err := s.StatusHistory(ctx, "u1", app.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "applied", history[0].PreviousStatus)
	assert.Equal(t, "interviews", history[0].NewStatus)
	assert.Equal(t, "email", history[0].Source)
	assert.Equal(t, "m1", history[0].MessageID)

	// Status change, creation, all land in the outbox.
	msgs, err := s.DequeueOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "applications.u1", msgs[0].Subject)

	// Unknown application is rejected before any write.
	change.ApplicationID = "nope"
	assert.ErrorIs(t, s.ApplyStatusChange(ctx, change), ErrNotFound)
}

func TestListApplicationsProjection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateApplication(ctx, &Application{UserID: "u1", CompanyName: "Acme"}))
	require.NoError(t, s.CreateApplication(ctx, &Application{UserID: "u1", CompanyName: "Globex"}))
	require.NoError(t, s.CreateApplication(ctx, &Application{UserID: "u2", CompanyName: "Initech"}))

	apps, err := s.ListApplications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	names := []string{apps[0].CompanyName, apps[1].CompanyName}
	assert.ElementsMatch(t, []string{"Acme", "Globex"}, names)
	assert.Equal(t, mailsync.StatusApplied, apps[0].Status)
}

func TestSyncStateLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SyncState(ctx, "u1")
	assert.ErrorIs(t, err, mailsync.ErrNotConfigured)

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, s.UpsertSyncState(ctx, &mailsync.SyncState{
		UserID:       "u1",
		Provider:     mailsync.ProviderGoogle,
		AccessToken:  "tok",
		RefreshToken: "refresh",
		TokenExpiry:  expiry,
	}))

	st, err := s.SyncState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, mailsync.ProviderGoogle, st.Provider)
	assert.Equal(t, "tok", st.AccessToken)
	assert.True(t, st.Enabled)
	assert.True(t, st.TokenExpiry.Equal(expiry))
	assert.True(t, st.LastSyncAt.IsZero())

	newExpiry := expiry.Add(time.Hour)
	require.NoError(t, s.SaveCredentials(ctx, "u1", "tok2", newExpiry))
	st, err = s.SyncState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "tok2", st.AccessToken)
	assert.Equal(t, "refresh", st.RefreshToken, "refresh token untouched")

	require.NoError(t, s.SetSyncEnabled(ctx, "u1", false))
	st, _ = s.SyncState(ctx, "u1")
	assert.False(t, st.Enabled)

	stamp := time.Now().Truncate(time.Second)
	require.NoError(t, s.StampLastSync(ctx, "u1", stamp))
	st, _ = s.SyncState(ctx, "u1")
	assert.True(t, st.LastSyncAt.Equal(stamp))

	assert.ErrorIs(t, s.SaveCredentials(ctx, "nobody", "x", newExpiry), mailsync.ErrNotConfigured)
}

func TestInsertUnmatchedDedupes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := mailsync.UnmatchedNotification{
		MessageID:       "m1",
		Subject:         "Offer from Initech",
		SenderAddr:      "hr@initech.com",
		LabelName:       "JH25 - Offer",
		SuggestedStatus: mailsync.StatusOffer,
		ReceivedAt:      time.Now(),
	}
	require.NoError(t, s.InsertUnmatched(ctx, "u1", n))
	require.NoError(t, s.InsertUnmatched(ctx, "u1", n))

	queue, err := s.ListUnmatched(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "offer", queue[0].SuggestedStatus)

	require.NoError(t, s.DismissUnmatched(ctx, "u1", queue[0].ID))
	queue, err = s.ListUnmatched(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, queue)

	// Dismissed rows still block re-insertion.
	require.NoError(t, s.InsertUnmatched(ctx, "u1", n))
	queue, _ = s.ListUnmatched(ctx, "u1")
	assert.Empty(t, queue)
}

func TestContactUpsertMerges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := time.Now().Add(-24 * time.Hour).Truncate(time.Second)
	require.NoError(t, s.UpsertContact(ctx, &Contact{
		UserID: "u1", Name: "Jordan Lee", Email: "jordan@acme.com", Company: "Acme", LastContact: &first,
	}))

	// Same address again with sparser data: existing fields survive.
	later := time.Now().Truncate(time.Second)
	require.NoError(t, s.UpsertContact(ctx, &Contact{
		UserID: "u1", Email: "jordan@acme.com", LastContact: &later,
	}))

	contacts, err := s.ListContacts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Jordan Lee", contacts[0].Name)
	assert.Equal(t, "Acme", contacts[0].Company)
	require.NotNil(t, contacts[0].LastContact)
	assert.True(t, contacts[0].LastContact.Equal(later))
}

func TestInsightSnapshots(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.LatestInsight(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveInsight(ctx, &Insight{
		UserID: "u1", MetricsJSON: `{"total":1}`, GeneratedAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, s.SaveInsight(ctx, &Insight{
		UserID: "u1", MetricsJSON: `{"total":2}`, Strategy: "follow up weekly",
	}))

	in, err := s.LatestInsight(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, `{"total":2}`, in.MetricsJSON)
	assert.Equal(t, "follow up weekly", in.Strategy)
}

func TestOutboxRetryWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateApplication(ctx, &Application{UserID: "u1", CompanyName: "Acme"}))

	msgs, err := s.DequeueOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	// Backed-off messages stay out of the queue until their window opens.
	require.NoError(t, s.MarkOutboxRetry(ctx, msgs[0].ID, time.Hour))
	msgs, err = s.DequeueOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, s.MarkOutboxRetry(ctx, 1, -time.Minute))
	msgs, err = s.DequeueOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	require.NoError(t, s.MarkPublished(ctx, msgs[0].ID))
	msgs, err = s.DequeueOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
