package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/vocadeck/vocadeck-api/auth"
	"github.com/vocadeck/vocadeck-api/config"
	"github.com/vocadeck/vocadeck-api/database"
	"github.com/vocadeck/vocadeck-api/handlers"
	"github.com/vocadeck/vocadeck-api/middleware"
	"github.com/vocadeck/vocadeck-api/services"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.IsDevelopment {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET_KEY not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database gateway: eager warmup, but a database that is down at boot
	// does not stop the process. The first request retries.
	gateway, err := database.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to initialize database gateway", zap.Error(err))
	}
	if err := gateway.Warmup(ctx); err != nil {
		logger.Warn("database warmup failed, continuing", zap.Error(err))
	}
	gateway.StartKeepAlive(cfg.KeepAliveInterval, cfg.ActivityWindow)
	defer func() {
		if err := gateway.Close(); err != nil {
			logger.Warn("closing database", zap.Error(err))
		}
	}()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := services.NewAuthService(gateway, tokens, cfg.BcryptCost)
	deckSvc := services.NewDeckService(gateway)
	cardSvc := services.NewCardService(gateway)

	h := &handlers.Handler{
		Auth:  authSvc,
		Decks: deckSvc,
		Cards: cardSvc,
		Log:   logger,
		Dev:   cfg.IsDevelopment,
	}
	requireAuth := middleware.RequireAuth(tokens, authSvc)

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", requireAuth(h.Logout))
	mux.HandleFunc("GET /api/auth/me", requireAuth(h.Me))
	mux.HandleFunc("PUT /api/auth/profile", requireAuth(h.UpdateProfile))
	mux.HandleFunc("PUT /api/auth/password", requireAuth(h.ChangePassword))

	// Decks
	mux.HandleFunc("POST /api/decks", requireAuth(h.CreateDeck))
	mux.HandleFunc("GET /api/decks", requireAuth(h.ListDecks))
	mux.HandleFunc("GET /api/decks/{deckID}", requireAuth(h.GetDeck))
	mux.HandleFunc("PUT /api/decks/{deckID}", requireAuth(h.UpdateDeck))
	mux.HandleFunc("DELETE /api/decks/{deckID}", requireAuth(h.DeleteDeck))
	mux.HandleFunc("GET /api/decks/{deckID}/stats", requireAuth(h.DeckStats))

	// Cards
	mux.HandleFunc("POST /api/decks/{deckID}/cards", requireAuth(h.CreateCard))
	mux.HandleFunc("GET /api/decks/{deckID}/cards", requireAuth(h.ListCards))
	mux.HandleFunc("GET /api/decks/{deckID}/cards/{cardID}", requireAuth(h.GetCard))
	mux.HandleFunc("PUT /api/decks/{deckID}/cards/{cardID}", requireAuth(h.UpdateCard))
	mux.HandleFunc("DELETE /api/decks/{deckID}/cards/{cardID}", requireAuth(h.DeleteCard))
	mux.HandleFunc("PATCH /api/decks/{deckID}/cards/{cardID}/memorized", requireAuth(h.ToggleCardMemorized))
	mux.HandleFunc("PUT /api/decks/{deckID}/cards/memorized", requireAuth(h.BulkSetMemorized))
	mux.HandleFunc("GET /api/decks/{deckID}/study", requireAuth(h.StudySession))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(mux)

	server := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: corsHandler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
}
