package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedOracle struct {
	response string
	err      error
	prompt   string
}

func (o *cannedOracle) GenerateContent(ctx context.Context, prompt string) (string, error) {
	o.prompt = prompt
	return o.response, o.err
}

const goodResponse = `{
	"fit_score": 82,
	"strengths": ["Deep RevOps background", "Platform consolidation track record", "Global team leadership"],
	"gaps": ["No direct fintech experience"],
	"recommendation": "strong fit",
	"talking_points": ["Tool adoption rollout", "Revenue attribution program", "Cross-org leadership"],
	"interview_questions_to_prepare": ["How would you ramp on fintech compliance?"]
}`

func TestScore(t *testing.T) {
	oracle := &cannedOracle{response: goodResponse}
	analysis, err := NewScorer(oracle, "").Score(context.Background(), "VP Revenue Operations at a fintech...", "")
	require.NoError(t, err)
	assert.Equal(t, 82, analysis.FitScore)
	assert.Equal(t, "strong fit", analysis.Recommendation)
	assert.Len(t, analysis.Strengths, 3)

	// Empty resume argument falls back to the default.
	assert.Contains(t, oracle.prompt, "CANDIDATE RESUME")
	assert.Contains(t, oracle.prompt, "Revenue Operations")
}

func TestScoreResumeOverride(t *testing.T) {
	oracle := &cannedOracle{response: goodResponse}
	_, err := NewScorer(oracle, "").Score(context.Background(), "some role", "MY CUSTOM RESUME")
	require.NoError(t, err)
	assert.Contains(t, oracle.prompt, "MY CUSTOM RESUME")
	assert.NotContains(t, oracle.prompt, "15+ years")
}

func TestScoreRejectsOutOfRange(t *testing.T) {
	oracle := &cannedOracle{response: `{"fit_score": 140, "recommendation": "strong fit"}`}
	_, err := NewScorer(oracle, "").Score(context.Background(), "role", "")
	assert.Error(t, err)
}

func TestScoreEmptyJobDescription(t *testing.T) {
	_, err := NewScorer(&cannedOracle{}, "").Score(context.Background(), "  ", "")
	assert.Error(t, err)
}

func TestScorePropagatesOracleFailure(t *testing.T) {
	oracle := &cannedOracle{err: errors.New("deadline exceeded")}
	_, err := NewScorer(oracle, "").Score(context.Background(), "role", "")
	assert.ErrorContains(t, err, "deadline exceeded")
}

func TestAnalysisJSONRoundTrip(t *testing.T) {
	out, err := AnalysisJSON(&FitAnalysis{FitScore: 75, Recommendation: "worth pursuing"})
	require.NoError(t, err)
	assert.Contains(t, out, `"fit_score":75`)
}
