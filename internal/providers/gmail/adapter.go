package gmail

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/jobtrack-app/jobtrack/internal/mailsync"
)

// Adapter implements MailProvider for Gmail.
type Adapter struct {
	svc *gmail.Service
}

// New creates a Gmail adapter bound to the given access token.
func New(ctx context.Context, accessToken string) (*Adapter, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := gmail.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Adapter{svc: svc}, nil
}

// Factory adapts New to the provider factory signature.
func Factory(ctx context.Context, accessToken string) (mailsync.MailProvider, error) {
	return New(ctx, accessToken)
}

// ListLabels returns every label in the mailbox, user-defined and system.
func (a *Adapter) ListLabels(ctx context.Context) ([]mailsync.Label, error) {
	resp, err := a.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	labels := make([]mailsync.Label, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		labels = append(labels, mailsync.Label{ID: l.Id, Name: l.Name})
	}
	return labels, nil
}

// ListMessageIDs pages through messages carrying ANY of the given labels.
// Gmail's list call intersects multiple labelIds, so labels are walked one
// at a time; the cursor carries both the label index and Gmail's own page
// token as "index|token".
func (a *Adapter) ListMessageIDs(ctx context.Context, labelIDs []string, pageToken string) (*mailsync.MessagePage, error) {
	if len(labelIDs) == 0 {
		return &mailsync.MessagePage{}, nil
	}

	idx := 0
	token := ""
	if pageToken != "" {
		i, rest, ok := strings.Cut(pageToken, "|")
		if !ok {
			return nil, fmt.Errorf("malformed page cursor %q", pageToken)
		}
		idx, _ = strconv.Atoi(i)
		token = rest
		if idx < 0 || idx >= len(labelIDs) {
			return nil, fmt.Errorf("page cursor label index %d out of range", idx)
		}
	}

	call := a.svc.Users.Messages.List("me").
		LabelIds(labelIDs[idx]).
		IncludeSpamTrash(false).
		MaxResults(100).
		Context(ctx)
	if token != "" {
		call = call.PageToken(token)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for label %s: %w", labelIDs[idx], err)
	}

	page := &mailsync.MessagePage{IDs: make([]string, 0, len(resp.Messages))}
	for _, m := range resp.Messages {
		page.IDs = append(page.IDs, m.Id)
	}

	switch {
	case resp.NextPageToken != "":
		page.NextPageToken = fmt.Sprintf("%d|%s", idx, resp.NextPageToken)
	case idx+1 < len(labelIDs):
		page.NextPageToken = fmt.Sprintf("%d|", idx+1)
	}
	return page, nil
}

// GetMessage fetches message metadata and normalizes it.
func (a *Adapter) GetMessage(ctx context.Context, id string) (*mailsync.Message, error) {
	m, err := a.svc.Users.Messages.Get("me", id).
		Format("metadata").
		MetadataHeaders("Subject", "From").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return normalize(m), nil
}

// normalize converts a Gmail message to the provider-neutral shape.
func normalize(m *gmail.Message) *mailsync.Message {
	headers := make(map[string]string)
	if m.Payload != nil {
		for _, kv := range m.Payload.Headers {
			headers[kv.Name] = kv.Value
		}
	}

	name, addr := parseFrom(headers["From"])
	return &mailsync.Message{
		ID:         m.Id,
		ThreadID:   m.ThreadId,
		LabelIDs:   m.LabelIds,
		SenderName: name,
		SenderAddr: addr,
		Subject:    headers["Subject"],
		Snippet:    m.Snippet,
		ReceivedAt: time.UnixMilli(m.InternalDate),
	}
}

// parseFrom splits an RFC 5322 From header into display name and address.
func parseFrom(from string) (name, addr string) {
	if from == "" {
		return "", ""
	}
	a, err := mail.ParseAddress(from)
	if err != nil {
		// Header too mangled for the parser; use it as the bare address.
		return "", strings.TrimSpace(from)
	}
	return a.Name, a.Address
}
