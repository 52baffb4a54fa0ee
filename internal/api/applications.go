package api

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobtrack-app/jobtrack/internal/mailsync"
	"github.com/jobtrack-app/jobtrack/internal/scoring"
	"github.com/jobtrack-app/jobtrack/internal/store"
)

type ApplicationRequest struct {
	CompanyName    string     `json:"company_name" binding:"required"`
	Position       string     `json:"position"`
	Status         string     `json:"status"`
	AppliedDate    *time.Time `json:"applied_date"`
	Location       string     `json:"location"`
	URL            string     `json:"url"`
	Notes          string     `json:"notes"`
	JobDescription string     `json:"job_description"`
	SalaryMin      *int64     `json:"salary_min"`
	SalaryMax      *int64     `json:"salary_max"`
	CompanySize    string     `json:"company_size"`
	AnnualRevenue  string     `json:"annual_revenue"`
	Industry       string     `json:"industry"`
	CompanyType    string     `json:"company_type"`
	StockTicker    string     `json:"stock_ticker"`
	CompanySummary string     `json:"company_summary"`
}

func (r *ApplicationRequest) apply(a *store.Application) {
	a.CompanyName = r.CompanyName
	a.Position = r.Position
	a.AppliedDate = r.AppliedDate
	a.Location = r.Location
	a.URL = r.URL
	a.Notes = r.Notes
	a.JobDescription = r.JobDescription
	a.SalaryMin = r.SalaryMin
	a.SalaryMax = r.SalaryMax
	a.CompanySize = r.CompanySize
	a.AnnualRevenue = r.AnnualRevenue
	a.Industry = r.Industry
	a.CompanyType = r.CompanyType
	a.StockTicker = r.StockTicker
	a.CompanySummary = r.CompanySummary
}

func (s *Server) handleListApplications(c *gin.Context) {
	apps, err := s.deps.Store.ListUserApplications(c.Request.Context(), userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, apps)
}

func (s *Server) handleCreateApplication(c *gin.Context) {
	var req ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != "" && !mailsync.ValidStatus(mailsync.Status(req.Status)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	app := &store.Application{UserID: userID(c), Status: req.Status}
	req.apply(app)
	if err := s.deps.Store.CreateApplication(c.Request.Context(), app); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (s *Server) handleGetApplication(c *gin.Context) {
	app, err := s.deps.Store.GetApplication(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) handleUpdateApplication(c *gin.Context) {
	var req ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app, err := s.deps.Store.GetApplication(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	req.apply(app)
	if err := s.deps.Store.UpdateApplication(c.Request.Context(), app); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app)
}

func (s *Server) handleDeleteApplication(c *gin.Context) {
	err := s.deps.Store.DeleteApplication(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type StatusChangeRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

func (s *Server) handleChangeStatus(c *gin.Context) {
	var req StatusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	newStatus := mailsync.Status(req.Status)
	if !mailsync.ValidStatus(newStatus) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	ctx := c.Request.Context()
	uid := userID(c)
	app, err := s.deps.Store.GetApplication(ctx, uid, c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if app.Status == string(newStatus) {
		c.JSON(http.StatusOK, app)
		return
	}

	err = s.deps.Store.ApplyStatusChange(ctx, mailsync.StatusChange{
		UserID:        uid,
		ApplicationID: app.ID,
		Previous:      mailsync.Status(app.Status),
		New:           newStatus,
		Source:        "manual",
		Note:          req.Note,
		ChangedAt:     time.Now(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	app.Status = string(newStatus)
	c.JSON(http.StatusOK, app)
}

func (s *Server) handleStatusHistory(c *gin.Context) {
	history, err := s.deps.Store.StatusHistory(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}

type ParseRequest struct {
	Text string `json:"text"`
}

// handleParseJD parses a job description from JSON text or an uploaded
// .docx file.
func (s *Server) handleParseJD(c *gin.Context) {
	ctx := c.Request.Context()

	if file, err := c.FormFile("file"); err == nil {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if ext != ".docx" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only .docx uploads are supported"})
			return
		}
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		details, text, err := s.deps.Parser.ParseDocx(ctx, data)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"details": details, "text": text})
		return
	}

	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text or file is required"})
		return
	}
	details, err := s.deps.Parser.Parse(ctx, req.Text)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"details": details, "text": req.Text})
}

type ScoreRequest struct {
	ResumeText string `json:"resume_text"`
}

func (s *Server) handleScoreFit(c *gin.Context) {
	var req ScoreRequest
	// Body is optional; an empty one means "use the default resume".
	_ = c.ShouldBindJSON(&req)

	ctx := c.Request.Context()
	uid := userID(c)
	app, err := s.deps.Store.GetApplication(ctx, uid, c.Param("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(app.JobDescription) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "application has no job description to score"})
		return
	}

	analysis, err := s.deps.Scorer.Score(ctx, app.JobDescription, req.ResumeText)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	analysisJSON, err := scoring.AnalysisJSON(analysis)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := s.deps.Store.SaveFitScore(ctx, uid, app.ID, int64(analysis.FitScore), analysisJSON); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"application_id": app.ID,
		"fit_score":      analysis.FitScore,
		"fit_analysis":   analysis,
	})
}
