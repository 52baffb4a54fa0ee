package insights

import (
	"math"
	"time"

	"github.com/jobtrack-app/jobtrack/internal/store"
)

// TargetDeadline is the campaign's hard offer deadline.
var TargetDeadline = time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

// staleAfter is how long an active application can sit without movement
// before it is flagged.
const staleAfter = 14 * 24 * time.Hour

// StaleApp is one flagged application in the metrics summary.
type StaleApp struct {
	Company         string `json:"company"`
	Title           string `json:"title,omitempty"`
	Status          string `json:"status"`
	FitScore        *int64 `json:"fit_score,omitempty"`
	DaysSinceUpdate int    `json:"days_since_update"`
}

// Metrics is the campaign snapshot handed to the model and stored alongside
// the generated strategy.
type Metrics struct {
	TotalApplications int            `json:"total_applications"`
	StatusBreakdown   map[string]int `json:"status_breakdown"`
	ResponseRate      float64        `json:"response_rate"`
	InterviewRate     float64        `json:"interview_rate"`
	DaysToDeadline    int            `json:"days_to_deadline"`
	WeeksRemaining    int            `json:"weeks_remaining"`
	AvgDaysToResponse *int           `json:"avg_days_to_response"`
	StaleApplications int            `json:"stale_applications"`
	TopStaleApps      []StaleApp     `json:"top_stale_apps,omitempty"`
	HighFitActive     int            `json:"high_fit_active"`
	NetworkingContacts int           `json:"networking_contacts"`
}

// terminal statuses never count as stale; there is nothing left to chase.
func isTerminal(status string) bool {
	return status == "rejected" || status == "withdrawn" || status == "offer"
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Compute derives the campaign metrics from the owner's data as of now.
func Compute(apps []store.Application, history []store.HistoryEntry, contacts []store.Contact, now time.Time) Metrics {
	m := Metrics{
		StatusBreakdown:    make(map[string]int),
		NetworkingContacts: len(contacts),
	}
	m.TotalApplications = len(apps)
	for _, a := range apps {
		m.StatusBreakdown[a.Status]++
	}

	if m.TotalApplications > 0 {
		total := float64(m.TotalApplications)
		// A response means the application moved into the live pipeline;
		// rejections without a screen don't count.
		responded := m.StatusBreakdown["recruiter_screen"] + m.StatusBreakdown["hiring_manager"] +
			m.StatusBreakdown["interviews"] + m.StatusBreakdown["offer"]
		m.ResponseRate = round1(float64(responded) / total * 100)
		interviewed := m.StatusBreakdown["interviews"] + m.StatusBreakdown["hiring_manager"] +
			m.StatusBreakdown["offer"]
		m.InterviewRate = round1(float64(interviewed) / total * 100)
	}

	m.DaysToDeadline = int(math.Ceil(TargetDeadline.Sub(now).Hours() / 24))
	m.WeeksRemaining = int(math.Ceil(float64(m.DaysToDeadline) / 7))

	// Average days from applying to the first movement off "applied".
	appByID := make(map[string]*store.Application, len(apps))
	for i := range apps {
		appByID[apps[i].ID] = &apps[i]
	}
	var responseDays []int
	for _, h := range history {
		if h.PreviousStatus != "applied" {
			continue
		}
		app, ok := appByID[h.ApplicationID]
		if !ok || app.AppliedDate == nil {
			continue
		}
		days := int(math.Ceil(h.ChangedAt.Sub(*app.AppliedDate).Hours() / 24))
		if days > 0 {
			responseDays = append(responseDays, days)
		}
	}
	if len(responseDays) > 0 {
		sum := 0
		for _, d := range responseDays {
			sum += d
		}
		avg := int(math.Round(float64(sum) / float64(len(responseDays))))
		m.AvgDaysToResponse = &avg
	}

	for _, a := range apps {
		if isTerminal(a.Status) {
			continue
		}
		if a.FitScore != nil && *a.FitScore >= 80 {
			m.HighFitActive++
		}
		lastMove := a.UpdatedAt
		if a.StatusUpdatedAt != nil {
			lastMove = *a.StatusUpdatedAt
		}
		sinceUpdate := now.Sub(lastMove)
		if sinceUpdate >= staleAfter {
			m.StaleApplications++
			if len(m.TopStaleApps) < 5 {
				m.TopStaleApps = append(m.TopStaleApps, StaleApp{
					Company:         a.CompanyName,
					Title:           a.Position,
					Status:          a.Status,
					FitScore:        a.FitScore,
					DaysSinceUpdate: int(math.Ceil(sinceUpdate.Hours() / 24)),
				})
			}
		}
	}

	return m
}
