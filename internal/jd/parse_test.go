package jd

import (
	"context"
	"encoding/json"
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

func TestParse(t *testing.T) {
	oracle := &cannedOracle{response: `{
		"company_name": "Acme Corp",
		"job_title": "Senior Engineer",
		"salary_min": 150000,
		"salary_max": "180,000",
		"location": "Remote",
		"company_size": "1000-5000",
		"annual_revenue": "$2B",
		"industry": "Logistics",
		"company_type": "public",
		"stock_ticker": "ACME",
		"company_summary": "Acme builds logistics software."
	}`}

	details, err := NewParser(oracle).Parse(context.Background(), "We are hiring a Senior Engineer at Acme Corp...")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", details.CompanyName)
	assert.Equal(t, "Senior Engineer", details.JobTitle)
	require.True(t, details.SalaryMin.Valid)
	assert.Equal(t, int64(150000), details.SalaryMin.Value)
	require.True(t, details.SalaryMax.Valid)
	assert.Equal(t, int64(180000), details.SalaryMax.Value)
	assert.Equal(t, "ACME", details.StockTicker)
	assert.Contains(t, oracle.prompt, "Senior Engineer at Acme Corp")
}

func TestParseRejectsIncompleteResponse(t *testing.T) {
	oracle := &cannedOracle{response: `{"company_name": "", "job_title": "Engineer"}`}
	_, err := NewParser(oracle).Parse(context.Background(), "some text")
	assert.Error(t, err)
}

func TestParseRejectsEmptyInput(t *testing.T) {
	_, err := NewParser(&cannedOracle{}).Parse(context.Background(), "   \n ")
	assert.Error(t, err)
}

func TestParsePropagatesOracleFailure(t *testing.T) {
	oracle := &cannedOracle{err: errors.New("quota exceeded")}
	_, err := NewParser(oracle).Parse(context.Background(), "text")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestFlexInt(t *testing.T) {
	tests := []struct {
		in        string
		wantValid bool
		wantValue int64
	}{
		{`120000`, true, 120000},
		{`"120000"`, true, 120000},
		{`"$120,000"`, true, 120000},
		{`120000.5`, true, 120000},
		{`null`, false, 0},
		{`""`, false, 0},
		{`"competitive"`, false, 0},
	}
	for _, tt := range tests {
		var f FlexInt
		require.NoError(t, json.Unmarshal([]byte(tt.in), &f), tt.in)
		assert.Equal(t, tt.wantValid, f.Valid, tt.in)
		if tt.wantValid {
			assert.Equal(t, tt.wantValue, f.Value, tt.in)
		}
	}
}
