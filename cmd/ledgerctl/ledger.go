package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/client"
)

func init() {
	ledgerCmd := &cobra.Command{Use: "ledger", Short: "Ledger operations"}

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List ledger entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				return runLedgerList(ctx, c, os.Stdout)
			})
		},
	})

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "get DATE",
		Short: "Get the ledger entry for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				e, err := c.GetEntry(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, e)
			})
		},
	})

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "delete DATE",
		Short: "Delete the ledger entry for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				if err := c.DeleteEntry(ctx, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(os.Stdout, "deleted %s\n", args[0])
				return nil
			})
		},
	})

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "feedback DATE TEXT",
		Short: "Replace the feedback note of an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				e, err := c.SetFeedback(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, e)
			})
		},
	})

	rootCmd.AddCommand(ledgerCmd)
}

func runLedgerList(ctx context.Context, c *client.Client, out io.Writer) error {
	entries, err := c.ListLedger(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "ledger is empty")
		return nil
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(out, "%s  study %6.1f  water %6.0f  score %3.0f  %s\n",
			e.DateKey, e.Summary.CountedTotal, e.Summary.WaterMl, e.Summary.Score, e.Feedback)
	}
	return nil
}
