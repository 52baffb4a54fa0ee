package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jobtrack-app/jobtrack/internal/llm"
)

// DefaultResume is used when the caller supplies no resume text. Intended to
// be replaced per deployment via RESUME_TEXT.
const DefaultResume = `CANDIDATE
Senior go-to-market and revenue operations leader

EXPERIENCE:
- 15+ years across enterprise SaaS and consumer brands
- Expertise: Revenue Operations, GTM Strategy, Sales Enablement, Platform Consolidation

KEY ACHIEVEMENTS:
- Rolled out sales tooling adopted by thousands of global users
- Built automated revenue-attribution reporting
- Led cross-functional teams across multiple international sales organizations

TARGET:
- VP+ roles
- Location: NYC-based or remote`

// FitAnalysis is the model's structured verdict on one application.
type FitAnalysis struct {
	FitScore                    int      `json:"fit_score"`
	Strengths                   []string `json:"strengths"`
	Gaps                        []string `json:"gaps"`
	Recommendation              string   `json:"recommendation"`
	TalkingPoints               []string `json:"talking_points"`
	InterviewQuestionsToPrepare []string `json:"interview_questions_to_prepare"`
}

// Scorer evaluates job fit against a resume.
type Scorer struct {
	oracle llm.Oracle
	resume string
}

// NewScorer builds a scorer; an empty resume falls back to DefaultResume.
func NewScorer(oracle llm.Oracle, resume string) *Scorer {
	if strings.TrimSpace(resume) == "" {
		resume = DefaultResume
	}
	return &Scorer{oracle: oracle, resume: resume}
}

const scoringPromptFormat = `You are evaluating job fit for a senior candidate. Return ONLY valid JSON.

CANDIDATE RESUME:
%s

JOB DESCRIPTION:
%s

Evaluate fit and return:
{
  "fit_score": <number 0-100>,
  "strengths": ["<specific reason this role matches the candidate's experience>", "<another strength>", "<third strength>"],
  "gaps": ["<potential concern or missing qualification>", "<another gap if applicable>"],
  "recommendation": "<one of: 'pursue aggressively', 'strong fit', 'worth pursuing', 'proceed with caution', 'likely not a fit'>",
  "talking_points": ["<specific achievement from the resume to highlight for THIS role>", "<another relevant talking point>", "<third talking point>"],
  "interview_questions_to_prepare": ["<likely question based on gaps>", "<another question>"]
}

Scoring Guidelines:
- 90-100: Perfect match, pursue immediately
- 80-89: Strong fit, high priority
- 70-79: Good fit, worth pursuing
- 60-69: Moderate fit, proceed with caution
- Below 60: Significant gaps, likely not a fit`

// Score evaluates the job description against the resume; resumeText
// overrides the scorer's default when non-empty.
func (s *Scorer) Score(ctx context.Context, jobDescription, resumeText string) (*FitAnalysis, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, fmt.Errorf("empty job description")
	}
	resume := s.resume
	if strings.TrimSpace(resumeText) != "" {
		resume = resumeText
	}

	prompt := fmt.Sprintf(scoringPromptFormat, llm.SanitizeText(resume), llm.SanitizeText(jobDescription))
	response, err := s.oracle.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("fit scoring: %w", err)
	}

	var analysis FitAnalysis
	if err := llm.ExtractJSON(response, &analysis); err != nil {
		return nil, err
	}
	if analysis.FitScore < 0 || analysis.FitScore > 100 {
		return nil, fmt.Errorf("fit score %d out of range", analysis.FitScore)
	}
	return &analysis, nil
}

// AnalysisJSON serializes the analysis for storage on the application row.
func AnalysisJSON(a *FitAnalysis) (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to encode fit analysis: %w", err)
	}
	return string(data), nil
}
