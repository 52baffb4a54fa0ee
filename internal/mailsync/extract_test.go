package mailsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCompany(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		senderName string
		senderAddr string
		want       string
	}{
		{
			name:    "subject at pattern",
			subject: "Update on your application at Acme Corp",
			want:    "Acme Corp",
		},
		{
			name:    "subject for pattern",
			subject: "Interview scheduled for Initech",
			want:    "Initech",
		},
		{
			name:       "subject beats sender domain",
			subject:    "Your application at Hooli",
			senderAddr: "recruiting@other.com",
			want:       "Hooli",
		},
		{
			name:    "subject stopword rejected, no sender",
			subject: "Thanks for Your patience",
			want:    "",
		},
		{
			name:       "generic noreply at ATS yields nothing",
			subject:    "Thank you for applying",
			senderAddr: "noreply@greenhouse.io",
			want:       "",
		},
		{
			name:       "local part used when meaningful",
			subject:    "We received your application",
			senderAddr: "acme@mail.example.net",
			want:       "Acme",
		},
		{
			name:       "short local part falls through to domain",
			subject:    "",
			senderAddr: "hr@globex.com",
			want:       "Globex",
		},
		{
			name:       "recruiter local part falls through to domain",
			subject:    "",
			senderAddr: "recruiter@initrode.io",
			want:       "Initrode",
		},
		{
			name:       "free-mail domain rejected",
			subject:    "",
			senderAddr: "careers@gmail.com",
			want:       "",
		},
		{
			name:       "workday domain rejected",
			subject:    "",
			senderAddr: "jobs@myworkday.com",
			want:       "",
		},
		{
			name:       "display name with at sign",
			subject:    "",
			senderName: "Jane Doe @ Pied Piper",
			senderAddr: "noreply@gmail.com",
			want:       "Pied Piper",
		},
		{
			name: "nothing usable",
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractCompany(tc.subject, tc.senderName, tc.senderAddr)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompanyFromSubjectLowercaseStartIgnored(t *testing.T) {
	// The capture requires a capitalized start; "at lunchtime" is prose.
	assert.Equal(t, "", companyFromSubject("Let's talk at lunchtime", "", ""))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Acme", titleCase("acme"))
	assert.Equal(t, "", titleCase(""))
}
