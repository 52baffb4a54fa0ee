package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jobtrack-app/jobtrack/internal/mailsync"
)

// Contact is one networking contact harvested from labeled mail or entered
// by hand.
type Contact struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Name        string     `json:"name,omitempty"`
	Email       string     `json:"email"`
	Company     string     `json:"company,omitempty"`
	LastContact *time.Time `json:"last_contact,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// UpsertContact inserts a contact keyed by (user, email); seeing the same
// address again refreshes the last-contact time and fills missing fields.
func (s *Store) UpsertContact(ctx context.Context, c *Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO networking_contacts (id, user_id, name, email, company, last_contact, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, email) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE networking_contacts.name END,
			company = CASE WHEN excluded.company != '' THEN excluded.company ELSE networking_contacts.company END,
			last_contact = COALESCE(excluded.last_contact, networking_contacts.last_contact)
	`, c.ID, c.UserID, c.Name, c.Email, c.Company, nullUnix(c.LastContact), c.Notes, c.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert contact: %w", err)
	}
	return nil
}

// ExtractContact records the sender of a networking-labeled message as a
// contact. Satisfies the sync runner's contact extractor.
func (s *Store) ExtractContact(ctx context.Context, userID string, msg *mailsync.Message) error {
	if msg.SenderAddr == "" {
		return nil
	}
	received := msg.ReceivedAt
	return s.UpsertContact(ctx, &Contact{
		UserID:      userID,
		Name:        msg.SenderName,
		Email:       msg.SenderAddr,
		Company:     mailsync.ExtractCompany(msg.Subject, msg.SenderName, msg.SenderAddr),
		LastContact: &received,
	})
}

// ListContacts returns the owner's contacts, most recently contacted first.
func (s *Store) ListContacts(ctx context.Context, userID string) ([]Contact, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, user_id, name, email, company, last_contact, notes, created_at
		FROM networking_contacts
		WHERE user_id = ?
		ORDER BY last_contact DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		var lastContact sql.NullInt64
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Company,
			&lastContact, &c.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		if lastContact.Valid {
			t := time.Unix(lastContact.Int64, 0)
			c.LastContact = &t
		}
		c.CreatedAt = time.Unix(createdAt, 0)
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
