package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobtrack-app/jobtrack/internal/mailsync"
	"github.com/jobtrack-app/jobtrack/internal/store"
)

type SyncConnectRequest struct {
	Provider     string    `json:"provider" binding:"required"`
	AccessToken  string    `json:"access_token" binding:"required"`
	RefreshToken string    `json:"refresh_token" binding:"required"`
	TokenExpiry  time.Time `json:"token_expiry" binding:"required"`
}

func (s *Server) handleSyncConnect(c *gin.Context) {
	var req SyncConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	provider := mailsync.ProviderName(req.Provider)
	if _, ok := s.deps.Factories[provider]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported provider"})
		return
	}

	err := s.deps.Store.UpsertSyncState(c.Request.Context(), &mailsync.SyncState{
		UserID:       userID(c),
		Provider:     provider,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		TokenExpiry:  req.TokenExpiry,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type SyncToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (s *Server) handleSyncToggle(c *gin.Context) {
	var req SyncToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := s.deps.Store.SetSyncEnabled(c.Request.Context(), userID(c), *req.Enabled)
	if err != nil {
		if errors.Is(err, mailsync.ErrNotConfigured) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// handleSyncMail runs one sync pass over the connected mailbox.
// Configuration problems come back as 200 with success=false; upstream
// failures are a gateway error.
func (s *Server) handleSyncMail(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	state, err := s.deps.Store.SyncState(ctx, uid)
	if err != nil {
		if errors.Is(err, mailsync.ErrNotConfigured) {
			c.JSON(http.StatusOK, &mailsync.Result{
				Success: false,
				Error:   "mail sync not configured; connect your mailbox first",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	factory, ok := s.deps.Factories[state.Provider]
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no adapter for provider " + string(state.Provider)})
		return
	}
	tokens := s.deps.TokenClients[state.Provider]

	runner := mailsync.NewRunner(s.deps.Store, tokens, factory, s.deps.Store)
	result, err := runner.Run(ctx, uid)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListUnmatched(c *gin.Context) {
	queue, err := s.deps.Store.ListUnmatched(c.Request.Context(), userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, queue)
}

func (s *Server) handleDismissUnmatched(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := s.deps.Store.DismissUnmatched(c.Request.Context(), userID(c), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListContacts(c *gin.Context) {
	contacts, err := s.deps.Store.ListContacts(c.Request.Context(), userID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contacts)
}
