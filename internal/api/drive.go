package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jobtrack-app/jobtrack/internal/jd"
	"github.com/jobtrack-app/jobtrack/internal/llm"
	"github.com/jobtrack-app/jobtrack/internal/mailsync"
	"github.com/jobtrack-app/jobtrack/internal/store"
)

// googleAccessToken returns a valid Google access token for the user,
// refreshing and persisting it when expired. Drive access rides on the same
// credential as Gmail sync.
func (s *Server) googleAccessToken(ctx context.Context, uid string) (string, error) {
	state, err := s.deps.Store.SyncState(ctx, uid)
	if err != nil {
		return "", err
	}
	if state.Provider != mailsync.ProviderGoogle {
		return "", fmt.Errorf("drive import requires a connected Google account")
	}

	if !state.TokenExpiry.Before(timeNow()) {
		return state.AccessToken, nil
	}
	tokens := s.deps.TokenClients[mailsync.ProviderGoogle]
	accessToken, expiry, err := tokens.Refresh(ctx, state.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh access credential: %w", err)
	}
	if err := s.deps.Store.SaveCredentials(ctx, uid, accessToken, expiry); err != nil {
		return "", err
	}
	return accessToken, nil
}

func (s *Server) handleDriveFiles(c *gin.Context) {
	ctx := c.Request.Context()
	token, err := s.googleAccessToken(ctx, userID(c))
	if err != nil {
		s.driveError(c, err)
		return
	}

	client, err := s.deps.NewDrive(ctx, token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	files, err := client.ListDocuments(ctx, c.Query("q"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, files)
}

type DriveImportRequest struct {
	FileID string `json:"file_id" binding:"required"`
}

// handleDriveImport pulls a job description document out of Drive, parses
// it, and creates the application.
func (s *Server) handleDriveImport(c *gin.Context) {
	var req DriveImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	uid := userID(c)
	token, err := s.googleAccessToken(ctx, uid)
	if err != nil {
		s.driveError(c, err)
		return
	}
	client, err := s.deps.NewDrive(ctx, token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data, isDocx, err := client.FetchText(ctx, req.FileID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	var details *jd.JobDetails
	var text string
	if isDocx {
		details, text, err = s.deps.Parser.ParseDocx(ctx, data)
	} else {
		text = llm.SanitizeText(string(data))
		details, err = s.deps.Parser.Parse(ctx, text)
	}
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	app := &store.Application{
		UserID:         uid,
		CompanyName:    details.CompanyName,
		Position:       details.JobTitle,
		Location:       details.Location,
		JobDescription: text,
		SalaryMin:      details.SalaryMin.Ptr(),
		SalaryMax:      details.SalaryMax.Ptr(),
		CompanySize:    details.CompanySize,
		AnnualRevenue:  details.AnnualRevenue,
		Industry:       details.Industry,
		CompanyType:    details.CompanyType,
		StockTicker:    details.StockTicker,
		CompanySummary: details.CompanySummary,
	}
	if err := s.deps.Store.CreateApplication(ctx, app); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, app)
}

func (s *Server) driveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mailsync.ErrNotConfigured):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "connect a Google account first"})
	case strings.Contains(err.Error(), "requires a connected Google account"):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
