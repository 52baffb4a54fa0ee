package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jobtrack-app/jobtrack/internal/store"
)

func insightResponse(in *store.Insight) gin.H {
	var metrics, strategy json.RawMessage
	// Stored as JSON text; hand it back as JSON, not a quoted string.
	metrics = json.RawMessage(in.MetricsJSON)
	if in.Strategy != "" {
		strategy = json.RawMessage(in.Strategy)
	}
	return gin.H{
		"id":           in.ID,
		"metrics":      metrics,
		"strategy":     strategy,
		"generated_at": in.GeneratedAt,
	}
}

func (s *Server) handleGetInsights(c *gin.Context) {
	in, err := s.deps.Store.LatestInsight(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no insights generated yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, insightResponse(in))
}

func (s *Server) handleGenerateInsights(c *gin.Context) {
	in, err := s.deps.Insights.Generate(c.Request.Context(), userID(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, insightResponse(in))
}
