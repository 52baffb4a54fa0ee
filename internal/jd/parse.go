package jd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jobtrack-app/jobtrack/internal/llm"
)

// JobDetails is the structured result of parsing one job description.
type JobDetails struct {
	CompanyName    string  `json:"company_name"`
	JobTitle       string  `json:"job_title"`
	SalaryMin      FlexInt `json:"salary_min"`
	SalaryMax      FlexInt `json:"salary_max"`
	Location       string  `json:"location"`
	CompanySize    string  `json:"company_size"`
	AnnualRevenue  string  `json:"annual_revenue"`
	Industry       string  `json:"industry"`
	CompanyType    string  `json:"company_type"`
	StockTicker    string  `json:"stock_ticker"`
	CompanySummary string  `json:"company_summary"`
}

// FlexInt tolerates the model emitting a number, a numeric string
// ("120,000", "$120000"), or null.
type FlexInt struct {
	Value int64
	Valid bool
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	s := strings.Trim(string(data), `"`)
	s = strings.NewReplacer(",", "", "$", "", " ", "").Replace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Prose like "competitive" is not a parse failure; the field is
		// just absent.
		return nil
	}
	f.Value = int64(v)
	f.Valid = true
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(f.Value, 10)), nil
}

// Ptr returns the value as a nullable pointer for storage.
func (f FlexInt) Ptr() *int64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// Parser turns raw job description text into JobDetails via the model.
type Parser struct {
	oracle llm.Oracle
}

func NewParser(oracle llm.Oracle) *Parser {
	return &Parser{oracle: oracle}
}

const extractionPromptFormat = `Extract structured information from this job description. Respond with ONLY a JSON object, no other text.

Required JSON fields:
- company_name: the hiring company's name
- job_title: the title of the role
- salary_min: lower salary bound as a number, or null if not stated
- salary_max: upper salary bound as a number, or null if not stated
- location: role location (city, state, "Remote", etc.), or empty string
- company_size: approximate employee count or range, or empty string
- annual_revenue: approximate annual revenue, or empty string
- industry: the company's industry, or empty string
- company_type: "public", "private", "startup", "nonprofit", or empty string
- stock_ticker: ticker symbol if public, or empty string
- company_summary: one or two sentences describing the company

Job description:
%s`

// Parse extracts structured details from job description text.
func (p *Parser) Parse(ctx context.Context, text string) (*JobDetails, error) {
	text = llm.SanitizeText(text)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty job description")
	}

	response, err := p.oracle.GenerateContent(ctx, fmt.Sprintf(extractionPromptFormat, text))
	if err != nil {
		return nil, fmt.Errorf("job description extraction: %w", err)
	}

	var details JobDetails
	if err := llm.ExtractJSON(response, &details); err != nil {
		return nil, err
	}
	if details.CompanyName == "" || details.JobTitle == "" {
		return nil, fmt.Errorf("model response missing company_name or job_title")
	}
	return &details, nil
}

// ParseDocx extracts the text from a .docx upload and parses it.
func (p *Parser) ParseDocx(ctx context.Context, data []byte) (*JobDetails, string, error) {
	text, err := ExtractDocxText(data)
	if err != nil {
		return nil, "", err
	}
	details, err := p.Parse(ctx, text)
	if err != nil {
		return nil, "", err
	}
	return details, text, nil
}

var _ json.Unmarshaler = (*FlexInt)(nil)
