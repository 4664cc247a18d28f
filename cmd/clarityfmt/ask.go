package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/omriShneor/clarity/internal/config"
	"github.com/omriShneor/clarity/internal/logging"
	"github.com/omriShneor/clarity/internal/webhook"
)

func newAskCmd(opts *formatOptions) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Ask the calendar webhook and render its reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadFromEnv()
			logging.SetupWriter(cmd.ErrOrStderr(), cfg.LogLevel, true)

			client := webhook.NewClient(cfg.WebhookURL, webhook.Options{
				Timeout:       cfg.WebhookTimeout,
				Retries:       cfg.WebhookRetries,
				LegacyPayload: cfg.WebhookLegacyPayload,
			})
			if !client.IsConfigured() {
				return fmt.Errorf("%w: set CLARITY_WEBHOOK_URL", webhook.ErrNotConfigured)
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.WebhookTimeout*time.Duration(cfg.WebhookRetries+1))
			defer cancel()

			reply, err := client.Query(ctx, sessionID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			return writeFormatted(cmd.OutOrStdout(), cmd.ErrOrStderr(), reply.DisplayText(), opts)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "session id sent with legacy payloads")

	return cmd
}
