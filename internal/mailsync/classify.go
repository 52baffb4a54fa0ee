package mailsync

import (
	"time"
)

// Kind is the classifier's verdict for one message.
type Kind int

const (
	// KindUnclassifiable messages carry none of the expected labels and are
	// skipped outright (not counted as unmatched).
	KindUnclassifiable Kind = iota
	// KindNetworking messages are counted; contact extraction is delegated
	// to a ContactExtractor.
	KindNetworking
	// KindStatusUpdate messages carry one of the status labels.
	KindStatusUpdate
)

// PendingUpdate is one status-bearing message attributed to an application,
// awaiting conflict resolution.
type PendingUpdate struct {
	MessageID   string
	Status      Status
	StatusLabel string
	ReceivedAt  time.Time
}

// UnmatchedNotification is a status-bearing message that could not be
// confidently attached to any application.
type UnmatchedNotification struct {
	MessageID       string
	ThreadID        string
	Subject         string
	SenderName      string
	SenderAddr      string
	Snippet         string
	LabelName       string
	SuggestedStatus Status
	ReceivedAt      time.Time
}

// Classifier inspects messages against a resolved label catalog and groups
// status updates by the application they resolve to.
type Classifier struct {
	catalog *LabelCatalog
	matcher *Matcher

	// pending accumulates status updates per application id.
	pending map[string][]PendingUpdate
	// staged accumulates unmatched notifications for this run.
	staged []UnmatchedNotification
}

// NewClassifier builds a classifier over a resolved catalog and the owner's
// application matcher.
func NewClassifier(catalog *LabelCatalog, matcher *Matcher) *Classifier {
	return &Classifier{
		catalog: catalog,
		matcher: matcher,
		pending: make(map[string][]PendingUpdate),
	}
}

// Classify resolves the message's label ids to logical names and decides the
// message kind. Networking wins over status labels; among status labels the
// first resolved one carries the status.
func (c *Classifier) Classify(msg *Message) (Kind, Status, string) {
	var statusLabel string
	var status Status
	haveStatus := false

	for _, id := range msg.LabelIDs {
		logical, ok := c.catalog.LogicalName(id)
		if !ok {
			continue
		}
		if labelNameMatches(logical, NetworkingLabel) {
			return KindNetworking, "", logical
		}
		if !haveStatus {
			if st, ok := StatusLabelMap[logical]; ok {
				statusLabel = logical
				status = st
				haveStatus = true
			}
		}
	}

	if haveStatus {
		return KindStatusUpdate, status, statusLabel
	}
	return KindUnclassifiable, "", ""
}

// Ingest classifies one message and records the outcome: status updates are
// matched to an application and grouped, or staged as unmatched. Returns the
// kind so the runner can keep its counters.
func (c *Classifier) Ingest(msg *Message) Kind {
	kind, status, label := c.Classify(msg)
	if kind != KindStatusUpdate {
		return kind
	}

	company := ExtractCompany(msg.Subject, msg.SenderName, msg.SenderAddr)
	if company != "" {
		if appID, ok := c.matcher.Match(company); ok {
			c.pending[appID] = append(c.pending[appID], PendingUpdate{
				MessageID:   msg.ID,
				Status:      status,
				StatusLabel: label,
				ReceivedAt:  msg.ReceivedAt,
			})
			return kind
		}
	}

	c.staged = append(c.staged, UnmatchedNotification{
		MessageID:       msg.ID,
		ThreadID:        msg.ThreadID,
		Subject:         msg.Subject,
		SenderName:      msg.SenderName,
		SenderAddr:      msg.SenderAddr,
		Snippet:         msg.Snippet,
		LabelName:       label,
		SuggestedStatus: status,
		ReceivedAt:      msg.ReceivedAt,
	})
	return kind
}

// Pending returns the per-application update groups accumulated so far.
func (c *Classifier) Pending() map[string][]PendingUpdate {
	return c.pending
}

// Staged returns the unmatched notifications accumulated so far.
func (c *Classifier) Staged() []UnmatchedNotification {
	return c.staged
}
