package gmail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gmail "google.golang.org/api/gmail/v1"
)

func TestParseFrom(t *testing.T) {
	tests := []struct {
		from     string
		wantName string
		wantAddr string
	}{
		{`Jane Recruiter <jane@acme.com>`, "Jane Recruiter", "jane@acme.com"},
		{`jane@acme.com`, "", "jane@acme.com"},
		{`"Acme Talent" <talent@acme.com>`, "Acme Talent", "talent@acme.com"},
		{``, "", ""},
		{`<<broken`, "", "<<broken"},
	}
	for _, tt := range tests {
		name, addr := parseFrom(tt.from)
		assert.Equal(t, tt.wantName, name, tt.from)
		assert.Equal(t, tt.wantAddr, addr, tt.from)
	}
}

func TestNormalize(t *testing.T) {
	m := &gmail.Message{
		Id:           "m1",
		ThreadId:     "t1",
		LabelIds:     []string{"L1", "L2"},
		Snippet:      "We received your application",
		InternalDate: 1700000000000,
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Application received"},
				{Name: "From", Value: "Jane <jane@acme.com>"},
			},
		},
	}

	got := normalize(m)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "t1", got.ThreadID)
	assert.Equal(t, []string{"L1", "L2"}, got.LabelIDs)
	assert.Equal(t, "Application received", got.Subject)
	assert.Equal(t, "Jane", got.SenderName)
	assert.Equal(t, "jane@acme.com", got.SenderAddr)
	assert.Equal(t, int64(1700000000), got.ReceivedAt.Unix())
}
