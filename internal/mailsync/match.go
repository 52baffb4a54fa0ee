package mailsync

import (
	"strings"
)

// Application is the narrow view of a stored application the matcher needs.
type Application struct {
	ID          string
	CompanyName string
	Status      Status
}

// Matcher finds the stored application a candidate company name refers to.
// It operates on the owner's applications loaded once per sync run.
type Matcher struct {
	apps []Application
}

// NewMatcher builds a matcher over the owner's applications. Iteration order
// is the stored order; when several applications satisfy the substring rule
// the first one wins (no similarity ranking).
func NewMatcher(apps []Application) *Matcher {
	return &Matcher{apps: apps}
}

// Match resolves a candidate company name to an application id.
// Step 1: exact case-insensitive equality. Step 2: normalized substring
// containment in either direction. Returns ("", false) when nothing matches.
func (m *Matcher) Match(companyName string) (string, bool) {
	if companyName == "" {
		return "", false
	}

	for _, app := range m.apps {
		if strings.EqualFold(app.CompanyName, companyName) {
			return app.ID, true
		}
	}

	cand := normalizeCompany(companyName)
	if cand == "" {
		return "", false
	}
	for _, app := range m.apps {
		stored := normalizeCompany(app.CompanyName)
		if stored == "" {
			continue
		}
		if strings.Contains(cand, stored) || strings.Contains(stored, cand) {
			return app.ID, true
		}
	}

	return "", false
}

// Application returns the matcher's view of an application by id.
func (m *Matcher) Application(id string) (Application, bool) {
	for _, app := range m.apps {
		if app.ID == id {
			return app, true
		}
	}
	return Application{}, false
}

// normalizeCompany strips everything but letters and digits and lower-cases,
// so "Acme, Inc." and "acme inc" compare equal.
func normalizeCompany(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
