package main

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/jobtrack-app/jobtrack/internal/api"
	"github.com/jobtrack-app/jobtrack/internal/auth"
	"github.com/jobtrack-app/jobtrack/internal/drive"
	"github.com/jobtrack-app/jobtrack/internal/events"
	"github.com/jobtrack-app/jobtrack/internal/insights"
	"github.com/jobtrack-app/jobtrack/internal/jd"
	"github.com/jobtrack-app/jobtrack/internal/llm"
	"github.com/jobtrack-app/jobtrack/internal/mailsync"
	"github.com/jobtrack-app/jobtrack/internal/providers/gmail"
	"github.com/jobtrack-app/jobtrack/internal/providers/outlook"
	"github.com/jobtrack-app/jobtrack/internal/scoring"
	"github.com/jobtrack-app/jobtrack/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	dataDir := envOr("DATA_DIR", "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatal(err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	authDB, err := auth.OpenDB(filepath.Join(dataDir, "auth.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer authDB.Close()

	appStore, err := store.Open(filepath.Join(dataDir, "jobtrack.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer appStore.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Events are optional: without NATS the outbox just accumulates.
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		publisher, err := events.NewPublisher(natsURL)
		if err != nil {
			log.Fatal(err)
		}
		defer publisher.Close()
		if err := publisher.EnsureStream(ctx); err != nil {
			log.Fatal(err)
		}
		go events.NewDispatcher(appStore, publisher).Run(ctx)
	} else {
		log.Printf("NATS_URL not set; event publishing disabled")
	}

	var oracle llm.Oracle
	vertex, err := llm.NewVertexAIClient()
	if err != nil {
		log.Printf("Vertex AI unavailable, AI features disabled: %v", err)
		oracle = unavailableOracle{}
	} else {
		defer vertex.Close()
		oracle = vertex
	}

	var verifier *auth.JWTVerifier
	if jwksURL := os.Getenv("JWKS_URL"); jwksURL != "" {
		verifier, err = auth.NewJWTVerifier(jwksURL)
		if err != nil {
			log.Fatal(err)
		}
	}

	tokenClients := map[mailsync.ProviderName]mailsync.TokenRefresher{
		mailsync.ProviderGoogle:    auth.NewGoogleTokenClient(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET")),
		mailsync.ProviderMicrosoft: auth.NewMicrosoftTokenClient(os.Getenv("MS_CLIENT_ID"), os.Getenv("MS_CLIENT_SECRET")),
	}
	factories := map[mailsync.ProviderName]mailsync.ProviderFactory{
		mailsync.ProviderGoogle:    gmail.Factory,
		mailsync.ProviderMicrosoft: outlook.Factory,
	}

	server := api.New(api.Deps{
		Store:        appStore,
		Auth:         auth.NewAuthService(authDB),
		Sessions:     auth.NewSessionTokens([]byte(jwtSecret), 24*time.Hour),
		Verifier:     verifier,
		Parser:       jd.NewParser(oracle),
		Scorer:       scoring.NewScorer(oracle, os.Getenv("RESUME_TEXT")),
		Insights:     insights.NewGenerator(appStore, oracle),
		TokenClients: tokenClients,
		Factories:    factories,
		NewDrive: func(ctx context.Context, accessToken string) (*drive.Client, error) {
			return drive.New(ctx, accessToken)
		},
	})

	addr := ":" + envOr("PORT", "8080")
	log.Printf("listening on %s", addr)
	log.Fatal(server.Router().Run(addr))
}

// unavailableOracle stands in when no model backend is configured.
type unavailableOracle struct{}

func (unavailableOracle) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("no model backend configured")
}
