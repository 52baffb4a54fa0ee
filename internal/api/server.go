package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobtrack-app/jobtrack/internal/auth"
	"github.com/jobtrack-app/jobtrack/internal/drive"
	"github.com/jobtrack-app/jobtrack/internal/insights"
	"github.com/jobtrack-app/jobtrack/internal/jd"
	"github.com/jobtrack-app/jobtrack/internal/mailsync"
	"github.com/jobtrack-app/jobtrack/internal/scoring"
	"github.com/jobtrack-app/jobtrack/internal/store"
)

// DriveFactory builds a Drive client for an access token.
type DriveFactory func(ctx context.Context, accessToken string) (*drive.Client, error)

// Deps is everything the HTTP layer needs wired in.
type Deps struct {
	Store    *store.Store
	Auth     *auth.AuthService
	Sessions *auth.SessionTokens
	// Verifier accepts tokens from an external identity provider when set;
	// session tokens always work.
	Verifier *auth.JWTVerifier

	Parser   *jd.Parser
	Scorer   *scoring.Scorer
	Insights *insights.Generator

	TokenClients map[mailsync.ProviderName]mailsync.TokenRefresher
	Factories    map[mailsync.ProviderName]mailsync.ProviderFactory
	NewDrive     DriveFactory
}

// Server is the HTTP API.
type Server struct {
	deps Deps
}

func New(deps Deps) *Server {
	return &Server{deps: deps}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.handleHealth)
	r.POST("/register", s.handleRegister)
	r.POST("/login", s.handleLogin)

	authorized := r.Group("/")
	authorized.Use(s.authMiddleware())

	authorized.GET("/applications", s.handleListApplications)
	authorized.POST("/applications", s.handleCreateApplication)
	authorized.POST("/applications/parse", s.handleParseJD)
	authorized.GET("/applications/:id", s.handleGetApplication)
	authorized.PUT("/applications/:id", s.handleUpdateApplication)
	authorized.DELETE("/applications/:id", s.handleDeleteApplication)
	authorized.POST("/applications/:id/status", s.handleChangeStatus)
	authorized.GET("/applications/:id/history", s.handleStatusHistory)
	authorized.POST("/applications/:id/score", s.handleScoreFit)

	authorized.POST("/sync/connect", s.handleSyncConnect)
	authorized.PATCH("/sync", s.handleSyncToggle)
	authorized.POST("/sync/mail", s.handleSyncMail)
	authorized.GET("/sync/unmatched", s.handleListUnmatched)
	authorized.DELETE("/sync/unmatched/:id", s.handleDismissUnmatched)

	authorized.GET("/drive/files", s.handleDriveFiles)
	authorized.POST("/drive/import", s.handleDriveImport)

	authorized.GET("/insights", s.handleGetInsights)
	authorized.POST("/insights/generate", s.handleGenerateInsights)

	authorized.GET("/contacts", s.handleListContacts)

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if s.deps.Verifier != nil {
		resp["jwks"] = s.deps.Verifier.GetCacheStats()
	}
	c.JSON(http.StatusOK, resp)
}

// authMiddleware authenticates via session tokens, falling back to the
// external JWT verifier when one is configured.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		if userID, username, err := s.deps.Sessions.Parse(tokenString); err == nil {
			c.Set("user_id", userID)
			c.Set("username", username)
			c.Next()
			return
		}

		if s.deps.Verifier != nil {
			if identity, err := s.deps.Verifier.UserFromRequest(c.Request); err == nil {
				c.Set("user_id", identity.ID)
				c.Set("username", identity.Email)
				c.Next()
				return
			}
		}

		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		c.Abort()
	}
}

func userID(c *gin.Context) string {
	return c.GetString("user_id")
}

var timeNow = time.Now
