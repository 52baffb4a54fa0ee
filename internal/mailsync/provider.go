package mailsync

import (
	"context"
	"time"
)

// ProviderName represents mail provider types
type ProviderName string

const (
	ProviderGoogle    ProviderName = "GOOGLE"
	ProviderMicrosoft ProviderName = "MICROSOFT"
)

// Label is a provider-side tag (name + id pair). Names may carry arbitrary
// parent-folder prefixes, e.g. "Inbox/JH25 - Offer".
type Label struct {
	ID   string
	Name string
}

// Message represents normalized message metadata across providers
type Message struct {
	ID         string // provider ID (Gmail: Id, Outlook: id)
	ThreadID   string // provider thread/conversation id
	LabelIDs   []string
	SenderName string // display name from the From header
	SenderAddr string // address from the From header
	Subject    string
	Snippet    string
	ReceivedAt time.Time
}

// MessagePage is one page of message ids plus the cursor for the next page.
// An empty NextPageToken means the listing is exhausted.
type MessagePage struct {
	IDs           []string
	NextPageToken string
}

// MailProvider interface for provider-agnostic label and message access
type MailProvider interface {
	// ListLabels returns every label in the owner's mailbox.
	ListLabels(ctx context.Context) ([]Label, error)

	// ListMessageIDs lists ids of messages carrying any of the given label
	// ids, one page at a time. Pass the previous page's NextPageToken to
	// continue.
	ListMessageIDs(ctx context.Context, labelIDs []string, pageToken string) (*MessagePage, error)

	// GetMessage fetches a single message's metadata.
	GetMessage(ctx context.Context, id string) (*Message, error)
}

// ProviderFactory builds a MailProvider once a valid access token is known.
// The orchestrator calls it only after the credential-check step so a
// refreshed token is never raced by an in-flight fetch.
type ProviderFactory func(ctx context.Context, accessToken string) (MailProvider, error)

// TokenRefresher exchanges a refresh credential for a new access credential.
// Implemented by auth.TokenClient against the identity provider.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken string, expiry time.Time, err error)
}

// ContactExtractor turns a networking-labeled message into a stored contact.
// Recognized but not yet implemented: the sync run only counts networking
// messages. NopContactExtractor keeps that behavior explicit.
type ContactExtractor interface {
	ExtractContact(ctx context.Context, userID string, msg *Message) error
}

// NopContactExtractor counts for nothing; networking messages are tallied by
// the runner and otherwise left alone.
type NopContactExtractor struct{}

func (NopContactExtractor) ExtractContact(ctx context.Context, userID string, msg *Message) error {
	return nil
}
