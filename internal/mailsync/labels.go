package mailsync

import (
	"sort"
	"strings"
)

// Status is an application's lifecycle status.
type Status string

const (
	StatusApplied         Status = "applied"
	StatusFollowUp        Status = "follow_up"
	StatusRecruiterScreen Status = "recruiter_screen"
	StatusHiringManager   Status = "hiring_manager"
	StatusInterviews      Status = "interviews"
	StatusOffer           Status = "offer"
	StatusRejected        Status = "rejected"
	StatusWithdrawn       Status = "withdrawn"
)

// Statuses lists every valid status in pipeline order.
var Statuses = []Status{
	StatusApplied,
	StatusFollowUp,
	StatusRecruiterScreen,
	StatusHiringManager,
	StatusInterviews,
	StatusOffer,
	StatusRejected,
	StatusWithdrawn,
}

// ValidStatus reports whether s is one of the known lifecycle statuses.
func ValidStatus(s Status) bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// StatusLabelMap maps the expected mailbox label names to statuses. The label
// names are user-managed and historically inconsistent ("JH25-Rejected" has
// no spaces), so they are matched verbatim.
var StatusLabelMap = map[string]Status{
	"JH25 - Applied":          StatusApplied,
	"JH25 - Follow up":        StatusFollowUp,
	"JH25 - Hiring Manager":   StatusHiringManager,
	"JH25 - interviews":       StatusInterviews,
	"JH25 - Offer":            StatusOffer,
	"JH25 - Recruiter Screen": StatusRecruiterScreen,
	"JH25 - Withdraw":         StatusWithdrawn,
	"JH25-Rejected":           StatusRejected,
}

// NetworkingLabel marks messages to be handled as networking contacts rather
// than status updates.
const NetworkingLabel = "JH25 - Networking"

// maxLabelDiagnostics caps how many of the mailbox's actual label names are
// echoed back when resolution fails.
const maxLabelDiagnostics = 50

// labelNameMatches reports whether a provider label name matches an expected
// logical name: exact equality, or the provider name ends with the expected
// name (tolerates nesting, e.g. "Folder/JH25 - Offer").
func labelNameMatches(providerName, expected string) bool {
	return providerName == expected || strings.HasSuffix(providerName, expected)
}

// LabelCatalog is the result of resolving the expected logical labels against
// a mailbox's actual labels.
type LabelCatalog struct {
	// nameByID maps a resolved provider label id to the logical name it
	// satisfied.
	nameByID map[string]string
	// idByName maps a logical name to the provider label id that satisfied
	// it. First match wins when several nested labels share a suffix.
	idByName map[string]string
}

// ResolveLabels maps the expected logical label names (the 8 status labels
// plus the networking label) onto provider label ids. Labels that do not
// resolve are simply absent from the catalog; a catalog with zero entries is
// a configuration problem the caller must surface with diagnostics.
func ResolveLabels(labels []Label) *LabelCatalog {
	expected := ExpectedLabelNames()

	cat := &LabelCatalog{
		nameByID: make(map[string]string),
		idByName: make(map[string]string),
	}

	for _, want := range expected {
		for _, l := range labels {
			if !labelNameMatches(l.Name, want) {
				continue
			}
			cat.idByName[want] = l.ID
			cat.nameByID[l.ID] = want
			break
		}
	}

	return cat
}

// ExpectedLabelNames returns the logical label names the sync looks for, in
// stable order (status labels sorted, networking last).
func ExpectedLabelNames() []string {
	names := make([]string, 0, len(StatusLabelMap)+1)
	for name := range StatusLabelMap {
		names = append(names, name)
	}
	// Map iteration order is random; keep the diagnostic output stable.
	sort.Strings(names)
	return append(names, NetworkingLabel)
}

// Empty reports whether zero expected labels resolved.
func (c *LabelCatalog) Empty() bool {
	return len(c.idByName) == 0
}

// IDs returns the resolved provider label ids, used to build the message
// listing query.
func (c *LabelCatalog) IDs() []string {
	ids := make([]string, 0, len(c.idByName))
	for _, name := range ExpectedLabelNames() {
		if id, ok := c.idByName[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// LogicalName resolves a provider label id back to the logical label name it
// satisfied, if any.
func (c *LabelCatalog) LogicalName(labelID string) (string, bool) {
	name, ok := c.nameByID[labelID]
	return name, ok
}

// Diagnostics builds the payload surfaced to the user when zero labels
// resolve: the full expected list plus a bounded sample of what the mailbox
// actually contains.
func Diagnostics(labels []Label) *LabelDiagnostics {
	avail := make([]string, 0, maxLabelDiagnostics)
	for _, l := range labels {
		if len(avail) >= maxLabelDiagnostics {
			break
		}
		avail = append(avail, l.Name)
	}
	return &LabelDiagnostics{
		ExpectedLabels:  ExpectedLabelNames(),
		AvailableLabels: avail,
	}
}

// LabelDiagnostics is attached to a sync result when label resolution fails.
type LabelDiagnostics struct {
	ExpectedLabels  []string `json:"expectedLabels"`
	AvailableLabels []string `json:"availableLabels"`
}
