package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aktp/portal/app/models"
	"github.com/aktp/portal/internal/pkg/billing"
)

func newListCmd(open func() (ledger, error)) *cobra.Command {
	var filter billing.WebhookEventFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded webhook events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := open()
			if err != nil {
				return err
			}
			events, err := l.ListWebhookEvents(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("list webhook events: %w", err)
			}
			return printEvents(cmd.OutOrStdout(), events)
		},
	}
	cmd.Flags().BoolVar(&filter.PendingOnly, "pending", false, "only events that were skipped, failed or never processed")
	cmd.Flags().StringVar(&filter.EventType, "type", "", "only events of this Stripe type")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum number of rows")
	return cmd
}

func printEvents(out io.Writer, events []models.BillingWebhookEvent) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(out, "No webhook events found.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEVENT\tTYPE\tOUTCOME\tATTEMPTS\tRECEIVED\tDETAIL")
	for _, e := range events {
		outcome := e.Outcome
		if e.ProcessedAt == nil {
			outcome = "pending"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.ID, e.ProviderEventID, e.EventType, outcome, e.Attempts,
			e.CreatedAt.UTC().Format("2006-01-02 15:04:05"), e.ProcessingError)
	}
	return tw.Flush()
}
