package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aktp/portal/internal/pkg/billing"
)

var errReplayFailed = errors.New("one or more events failed to replay")

func newReplayCmd(open func() (ledger, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "replay ID [ID...]",
		Short: "Re-run recorded events from their stored payload",
		Long: `Re-run recorded events by ledger id (see "webhookctl list").
The stored payload was signature-checked when it was received, so it is
dispatched again without a new verification.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			l, err := open()
			if err != nil {
				return err
			}
			return printReplay(cmd.OutOrStdout(), l.Replay(cmd.Context(), ids))
		},
	}
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid event id %q", arg)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func printReplay(out io.Writer, results []billing.ReplayResult) error {
	failed := false
	for _, r := range results {
		if r.Err != nil {
			failed = true
			fmt.Fprintf(out, "%d %s: error: %v\n", r.ID, r.EventID, r.Err)
			continue
		}
		fmt.Fprintf(out, "%d %s (%s): %s %s\n", r.ID, r.EventID, r.Type, r.Result.Outcome, r.Result.Reason)
	}
	if failed {
		return errReplayFailed
	}
	return nil
}
