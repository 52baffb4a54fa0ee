package mailsync

import (
	"regexp"
	"strings"
	"unicode"
)

// The extractor is an ordered chain of heuristics; the first one that yields
// a non-empty, non-generic name wins. Ordering is a precision-over-recall
// choice: explicit subject-line mentions are the most trustworthy signal,
// ATS and free-mail domains the least.

// subjectCompanyRe captures the capitalized text following "at" or "for",
// e.g. "Update on your application at Acme Corp" -> "Acme Corp".
var subjectCompanyRe = regexp.MustCompile(`\b(?:at|for)\s+([A-Z][A-Za-z0-9&][A-Za-z0-9 &]*)`)

// subjectStopwords rejects captures that are grammar, not company names.
var subjectStopwords = map[string]bool{
	"the":  true,
	"a":    true,
	"an":   true,
	"your": true,
}

// genericLocalParts are sender local-parts that never name a company.
var genericLocalParts = []string{
	"noreply", "no-reply", "info", "contact", "support",
	"hello", "team", "recruiter", "jobs", "careers",
}

// atsDomains are applicant-tracking systems that send mail on behalf of many
// companies; their domain says nothing about the employer.
var atsDomains = []string{
	"myworkday", "workday", "greenhouse", "lever", "jobvite", "smartrecruiters",
}

// freeMailDomains carry no company signal at all.
var freeMailDomains = []string{
	"gmail.com", "yahoo.com", "outlook.com",
}

// companyHeuristic is one step of the extraction chain. It returns "" when it
// cannot produce a confident name.
type companyHeuristic func(subject, senderName, senderAddr string) string

// companyHeuristics is the chain in priority order. Kept as data so each step
// is independently testable.
var companyHeuristics = []companyHeuristic{
	companyFromSubject,
	companyFromLocalPart,
	companyFromDomain,
	companyFromDisplayName,
}

// ExtractCompany derives a best-guess company name from a message's subject
// and sender. Returns "" when every heuristic rejects.
func ExtractCompany(subject, senderName, senderAddr string) string {
	for _, h := range companyHeuristics {
		if name := h(subject, senderName, senderAddr); name != "" {
			return name
		}
	}
	return ""
}

// companyFromSubject matches "at <Company>" / "for <Company>" in the subject.
func companyFromSubject(subject, _, _ string) string {
	m := subjectCompanyRe.FindStringSubmatch(subject)
	if m == nil {
		return ""
	}
	name := strings.TrimSpace(m[1])
	// Captures opening with grammar ("Your patience") are prose, not names.
	first, _, _ := strings.Cut(name, " ")
	if subjectStopwords[strings.ToLower(first)] {
		return ""
	}
	return name
}

// companyFromLocalPart uses the text before "@" unless it is generic.
func companyFromLocalPart(_, _, senderAddr string) string {
	at := strings.Index(senderAddr, "@")
	if at <= 0 {
		return ""
	}
	local := strings.ToLower(senderAddr[:at])
	if len(local) <= 2 {
		return ""
	}
	for _, g := range genericLocalParts {
		if strings.Contains(local, g) {
			return ""
		}
	}
	return titleCase(local)
}

// companyFromDomain uses the text between "@" and the first "." unless the
// sender is a known ATS or free-mail provider.
func companyFromDomain(_, _, senderAddr string) string {
	at := strings.Index(senderAddr, "@")
	if at < 0 || at == len(senderAddr)-1 {
		return ""
	}
	domain := strings.ToLower(senderAddr[at+1:])
	for _, free := range freeMailDomains {
		if strings.Contains(domain, free) {
			return ""
		}
	}
	host := domain
	if dot := strings.Index(domain, "."); dot > 0 {
		host = domain[:dot]
	}
	if host == "" {
		return ""
	}
	for _, ats := range atsDomains {
		if strings.Contains(host, ats) {
			return ""
		}
	}
	return titleCase(host)
}

// companyFromDisplayName handles "Jane Doe @ Acme" style display names.
func companyFromDisplayName(_, senderName, _ string) string {
	if !strings.Contains(senderName, "@") {
		return ""
	}
	parts := strings.SplitN(senderName, "@", 2)
	return strings.TrimSpace(parts[1])
}

// titleCase upper-cases the first rune only, matching how domain tokens are
// presented ("acme" -> "Acme").
func titleCase(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
