// Package main provides a test server for end-to-end testing of chat clients.
// It runs the real chat API with in-memory SQLite and serves fake upstreams
// (calendar webhook and streaming language model) on the same port.
//
// Usage:
//
//	go run ./cmd/testserver
//
// The fake webhook picks a reply shape from the question ("next" → event list,
// "link" → plain text, "fail" → HTTP 500, "empty" → empty array, anything else
// → day headers) or from a ?shape= query parameter.
//
// The server exposes additional test control endpoints:
//   - POST /api/test/reset - Delete all sessions
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/omriShneor/clarity/internal/calformat"
	"github.com/omriShneor/clarity/internal/chat"
	"github.com/omriShneor/clarity/internal/classifier"
	"github.com/omriShneor/clarity/internal/config"
	"github.com/omriShneor/clarity/internal/database"
	"github.com/omriShneor/clarity/internal/llm"
	"github.com/omriShneor/clarity/internal/logging"
	"github.com/omriShneor/clarity/internal/server"
	"github.com/omriShneor/clarity/internal/webhook"
)

func main() {
	cfg := config.LoadFromEnv()
	logging.Setup(cfg.LogLevel, true)

	log.Info().Msg("Starting Clarity Test Server (in-memory SQLite, fake upstreams)")

	db, err := database.New(":memory:")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create database")
	}
	defer db.Close()

	webhookURL, llmURL := fakeUpstreamURLs(cfg.HTTPPort)
	handler := buildHandler(db, cfg, webhookURL, llmURL)

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		fmt.Printf("\nTest Server running on http://localhost:%d\n", cfg.HTTPPort)
		fmt.Println("\nFake upstreams:")
		fmt.Println("  POST /fake/webhook - Calendar webhook")
		fmt.Println("  POST /fake/llm     - Streaming language model")
		fmt.Println("\nTest endpoints:")
		fmt.Println("  POST /api/test/reset - Delete all sessions")
		fmt.Println("\nPress Ctrl+C to stop")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down test server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}

	fmt.Println("Test server stopped")
}

// buildHandler wires the real chat API to the given upstream URLs and mounts
// the fakes and test endpoints next to it.
func buildHandler(db *database.DB, cfg *config.Config, webhookURL, llmURL string) http.Handler {
	calendar := webhook.NewClient(webhookURL, webhook.Options{
		Timeout:       5 * time.Second,
		Retries:       0,
		LegacyPayload: cfg.WebhookLegacyPayload,
	})
	model := llm.NewClient("test-key", cfg.LLMModel, cfg.LLMTemperature).WithAPIURL(llmURL)
	formatter := calformat.New(calformat.Options{DisambiguateDuplicateDays: cfg.DisambiguateDays})

	svc := chat.NewService(chat.Config{
		Store:       db,
		Router:      classifier.New(cfg.Routing),
		Calendar:    calendar,
		Model:       model,
		Formatter:   formatter,
		HistorySize: cfg.HistorySize,
	})

	srv := server.New(server.ServerConfig{
		DB:                 db,
		Chat:               svc,
		Formatter:          formatter,
		Port:               cfg.HTTPPort,
		CalendarConfigured: true,
		LLMConfigured:      true,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /fake/webhook", handleFakeWebhook)
	mux.HandleFunc("POST /fake/llm", handleFakeLLM)

	mux.HandleFunc("POST /api/test/reset", func(w http.ResponseWriter, r *http.Request) {
		log.Info().Msg("Resetting test database")

		sessions, err := db.ListSessions()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to list sessions: %v", err), http.StatusInternalServerError)
			return
		}
		for _, s := range sessions {
			if _, err := db.DeleteSession(s.ID); err != nil {
				http.Error(w, fmt.Sprintf("Failed to delete session: %v", err), http.StatusInternalServerError)
				return
			}
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{"status": "reset", "deleted": len(sessions)})
	})

	// Fallback to main handler
	mux.Handle("/", srv.Handler())

	return mux
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
