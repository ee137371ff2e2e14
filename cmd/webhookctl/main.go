package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/aktp/portal/app/models"
	"github.com/aktp/portal/internal/pkg/billing"
	"github.com/aktp/portal/internal/pkg/database"
	"github.com/aktp/portal/internal/pkg/env"
	"github.com/aktp/portal/internal/pkg/mail"
	"github.com/aktp/portal/internal/pkg/notify"
)

// ledger is the part of the billing service the CLI drives.
type ledger interface {
	ListWebhookEvents(ctx context.Context, filter billing.WebhookEventFilter) ([]models.BillingWebhookEvent, error)
	Replay(ctx context.Context, ids []uint) []billing.ReplayResult
}

var noEmail bool

var rootCmd = &cobra.Command{
	Use:   "webhookctl",
	Short: "Inspect and replay recorded Stripe webhook events",
	Long: `webhookctl reads the billing_webhook_events ledger.

Events that were skipped (for example because the Stripe customer was not yet
linked to a practitioner) or that failed can be re-run from their stored
payload once the underlying data is fixed.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noEmail, "no-email", false, "do not send notifications while replaying")
	rootCmd.AddCommand(newListCmd(openLedger), newReplayCmd(openLedger))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openLedger() (ledger, error) {
	env.SetupEnvFile()
	database.SetupDatabase()

	var notifier billing.Notifier
	if !noEmail {
		dispatcher, err := notify.NewDispatcher(mail.NewSMTPMailer(mail.SMTPConfigFromEnv()), notify.SiteFromEnv())
		if err != nil {
			return nil, err
		}
		notifier = dispatcher
	}
	return billing.NewServiceFromDB(database.GetDB(), notifier, billing.ConfigFromEnv()), nil
}
