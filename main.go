package main

import (
	"context"
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
	"github.com/omriShneor/clarity/internal/retention"
	"github.com/omriShneor/clarity/internal/server"
	"github.com/omriShneor/clarity/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal("loading config", err)
	}
	logging.Setup(cfg.LogLevel, cfg.DevMode)

	db, err := initDatabase(cfg)
	if err != nil {
		fatal("creating database", err)
	}
	defer db.Close()

	calendar := initWebhook(cfg)
	model := initModel(cfg)
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
		CalendarConfigured: cfg.CalendarConfigured(),
		LLMConfigured:      cfg.LLMConfigured(),
	})
	pruner := initRetention(cfg, db)
	if pruner != nil {
		defer pruner.Stop()
	}

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	waitForShutdown(srv)
}

func initDatabase(cfg *config.Config) (*database.DB, error) {
	return database.New(cfg.DBPath)
}

func initWebhook(cfg *config.Config) *webhook.Client {
	client := webhook.NewClient(cfg.WebhookURL, webhook.Options{
		Timeout:       cfg.WebhookTimeout,
		Retries:       cfg.WebhookRetries,
		LegacyPayload: cfg.WebhookLegacyPayload,
	})
	if !client.IsConfigured() {
		log.Warn().Msg("CLARITY_WEBHOOK_URL not set, calendar questions will get an apology")
	} else {
		log.Info().Bool("legacy_payload", cfg.WebhookLegacyPayload).Msg("Calendar webhook configured")
	}
	return client
}

func initModel(cfg *config.Config) *llm.Client {
	client := llm.NewClient(cfg.AnthropicAPIKey, cfg.LLMModel, cfg.LLMTemperature)
	if !client.IsConfigured() {
		log.Warn().Msg("ANTHROPIC_API_KEY not set, general chat will get an apology")
	} else {
		log.Info().Str("model", cfg.LLMModel).Msg("Language model configured")
	}
	return client
}

func initRetention(cfg *config.Config, db *database.DB) *retention.Pruner {
	if cfg.RetentionDays == 0 {
		return nil
	}

	pruner := retention.NewPruner(db, cfg.RetentionDays)
	if _, err := pruner.PruneOnce(); err != nil {
		log.Error().Err(err).Msg("Initial session prune failed")
	}
	if err := pruner.Start(cfg.PruneSchedule); err != nil {
		fatal("starting session pruner", err)
	}
	return pruner
}

func fatal(context string, err error) {
	log.Error().Err(err).Msgf("Error %s", context)
	os.Exit(1)
}

func waitForShutdown(srv *server.Server) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}
