package outlook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"

	"github.com/jobtrack-app/jobtrack/internal/mailsync"
)

// Adapter implements MailProvider for Outlook via Microsoft Graph. Outlook
// has categories rather than labels; categories are keyed by display name,
// so each label's ID and Name are the same string.
type Adapter struct {
	client *msgraphsdk.GraphServiceClient
}

// New creates an Outlook adapter bound to the given access token.
func New(ctx context.Context, accessToken string) (*Adapter, error) {
	cred := &staticTokenCredential{token: accessToken}
	client, err := msgraphsdk.NewGraphServiceClientWithCredentials(cred, []string{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Graph client: %w", err)
	}
	return &Adapter{client: client}, nil
}

// Factory adapts New to the provider factory signature.
func Factory(ctx context.Context, accessToken string) (mailsync.MailProvider, error) {
	return New(ctx, accessToken)
}

// ListLabels returns the mailbox's master categories as labels.
func (a *Adapter) ListLabels(ctx context.Context) ([]mailsync.Label, error) {
	result, err := a.client.Me().Outlook().MasterCategories().Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	var labels []mailsync.Label
	for _, cat := range result.GetValue() {
		name := cat.GetDisplayName()
		if name == nil || *name == "" {
			continue
		}
		labels = append(labels, mailsync.Label{ID: *name, Name: *name})
	}
	return labels, nil
}

// ListMessageIDs pages through messages carrying any of the given categories.
// Graph paging hands back an opaque @odata.nextLink; that link is the cursor.
func (a *Adapter) ListMessageIDs(ctx context.Context, labelIDs []string, pageToken string) (*mailsync.MessagePage, error) {
	if len(labelIDs) == 0 {
		return &mailsync.MessagePage{}, nil
	}

	var result models.MessageCollectionResponseable
	var err error
	if pageToken != "" {
		builder := users.NewItemMessagesRequestBuilder(pageToken, a.client.GetAdapter())
		result, err = builder.Get(ctx, nil)
	} else {
		requestConfig := &users.ItemMessagesRequestBuilderGetRequestConfiguration{
			QueryParameters: &users.ItemMessagesRequestBuilderGetQueryParameters{
				Top:    int32Ptr(100),
				Select: []string{"id"},
				Filter: stringPtr(categoryFilter(labelIDs)),
			},
		}
		result, err = a.client.Me().Messages().Get(ctx, requestConfig)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	page := &mailsync.MessagePage{}
	for _, msg := range result.GetValue() {
		if id := msg.GetId(); id != nil {
			page.IDs = append(page.IDs, *id)
		}
	}
	if next := result.GetOdataNextLink(); next != nil {
		page.NextPageToken = *next
	}
	return page, nil
}

// GetMessage fetches one message and normalizes it; the message's categories
// become its label ids.
func (a *Adapter) GetMessage(ctx context.Context, id string) (*mailsync.Message, error) {
	requestConfig := &users.ItemMessagesMessageItemRequestBuilderGetRequestConfiguration{
		QueryParameters: &users.ItemMessagesMessageItemRequestBuilderGetQueryParameters{
			Select: []string{"id", "conversationId", "subject", "from", "bodyPreview", "receivedDateTime", "categories"},
		},
	}
	m, err := a.client.Me().Messages().ByMessageId(id).Get(ctx, requestConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return normalize(m), nil
}

// normalize converts a Graph message to the provider-neutral shape.
func normalize(m models.Messageable) *mailsync.Message {
	msg := &mailsync.Message{}

	if id := m.GetId(); id != nil {
		msg.ID = *id
	}
	if convID := m.GetConversationId(); convID != nil {
		msg.ThreadID = *convID
	}
	if subject := m.GetSubject(); subject != nil {
		msg.Subject = *subject
	}
	if from := m.GetFrom(); from != nil {
		if emailAddr := from.GetEmailAddress(); emailAddr != nil {
			if name := emailAddr.GetName(); name != nil {
				msg.SenderName = *name
			}
			if addr := emailAddr.GetAddress(); addr != nil {
				msg.SenderAddr = *addr
			}
		}
	}
	if preview := m.GetBodyPreview(); preview != nil {
		msg.Snippet = *preview
	}
	if rcvd := m.GetReceivedDateTime(); rcvd != nil {
		msg.ReceivedAt = *rcvd
	}
	msg.LabelIDs = m.GetCategories()

	return msg
}

// categoryFilter builds an OData filter matching any of the categories.
func categoryFilter(names []string) string {
	clauses := make([]string, 0, len(names))
	for _, name := range names {
		escaped := strings.ReplaceAll(name, "'", "''")
		clauses = append(clauses, fmt.Sprintf("categories/any(c:c eq '%s')", escaped))
	}
	return strings.Join(clauses, " or ")
}

// staticTokenCredential implements Azure credential interface
type staticTokenCredential struct {
	token string
}

func (c *staticTokenCredential) GetToken(ctx context.Context, options policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{
		Token:     c.token,
		ExpiresOn: time.Now().Add(1 * time.Hour),
	}, nil
}

func int32Ptr(i int32) *int32 {
	return &i
}

func stringPtr(s string) *string {
	return &s
}
