package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jobtrack-app/jobtrack/internal/llm"
	"github.com/jobtrack-app/jobtrack/internal/store"
)

// Generator computes campaign metrics and asks the model for a strategy,
// persisting both as one snapshot.
type Generator struct {
	store  *store.Store
	oracle llm.Oracle
	now    func() time.Time
}

func NewGenerator(s *store.Store, oracle llm.Oracle) *Generator {
	return &Generator{store: s, oracle: oracle, now: time.Now}
}

const strategyPromptFormat = `You are a senior career advisor analyzing a job search campaign with a hard offer deadline of %s.

CURRENT DATA:
%s

Generate strategic insights and return ONLY valid JSON:

{
  "executive_summary": "2-3 sentences on search health and urgency",
  "pipeline_health": {
    "status": "healthy | at_risk | critical",
    "explanation": "why this assessment"
  },
  "whats_working": ["pattern 1", "pattern 2"],
  "whats_not_working": ["pattern 1", "pattern 2"],
  "immediate_actions": [
    {"action": "specific action", "rationale": "why", "priority": "critical | high | medium"}
  ],
  "follow_up_priorities": [
    {"company": "Company Name", "current_status": "status", "days_since_update": 14, "recommended_action": "action"}
  ],
  "weekly_targets": {"new_applications": 10, "follow_ups": 5, "networking_conversations": 3},
  "risk_alerts": [
    {"risk": "specific concern", "mitigation": "what to do"}
  ]
}

Be direct, actionable, and data-driven.`

// Strategy is the model's generated advice, kept loosely typed: the schema
// is advisory and the client renders whatever comes back.
type Strategy map[string]any

// Generate builds a fresh snapshot for the user and persists it.
func (g *Generator) Generate(ctx context.Context, userID string) (*store.Insight, error) {
	apps, err := g.store.ListUserApplications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load applications: %w", err)
	}

	var history []store.HistoryEntry
	for _, a := range apps {
		h, err := g.store.StatusHistory(ctx, userID, a.ID)
		if err != nil {
			return nil, fmt.Errorf("load status history: %w", err)
		}
		history = append(history, h...)
	}

	contacts, err := g.store.ListContacts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}

	metrics := Compute(apps, history, contacts, g.now())
	metricsJSON, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("encode metrics: %w", err)
	}

	prompt := fmt.Sprintf(strategyPromptFormat, TargetDeadline.Format("Jan 2, 2006"), string(metricsJSON))
	response, err := g.oracle.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("insight generation: %w", err)
	}

	var strategy Strategy
	if err := llm.ExtractJSON(response, &strategy); err != nil {
		return nil, err
	}
	strategyJSON, err := json.Marshal(strategy)
	if err != nil {
		return nil, fmt.Errorf("encode strategy: %w", err)
	}

	snapshot := &store.Insight{
		UserID:      userID,
		MetricsJSON: string(metricsJSON),
		Strategy:    string(strategyJSON),
		GeneratedAt: g.now(),
	}
	if err := g.store.SaveInsight(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}
