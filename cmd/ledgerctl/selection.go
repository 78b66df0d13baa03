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
	var noWait bool
	selectCmd := &cobra.Command{
		Use:   "select DATE",
		Short: "Select the active day (YYYY-MM-DD) and load it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				return runSelect(ctx, c, args[0], !noWait, os.Stdout)
			})
		},
	}
	selectCmd.Flags().BoolVar(&noWait, "no-wait", false, "Return before the day has loaded")
	rootCmd.AddCommand(selectCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the active day and load state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				st, err := c.Selection(ctx)
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, st)
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "reload",
		Short: "Fetch the active day again",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				st, err := c.Reload(ctx, true)
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, st)
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "summary",
		Short: "Show the summary of the active day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				return runSummary(ctx, c, os.Stdout)
			})
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "day",
		Short: "List the sessions of the active day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				v, err := c.Day(ctx)
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, v)
			})
		},
	})

	var domain string
	annotateCmd := &cobra.Command{
		Use:   "annotate EVENT_ID LABEL",
		Short: "Label an event of the active day (empty label clears it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				s, err := c.Annotate(ctx, domain, args[0], args[1])
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, s)
			})
		},
	}
	annotateCmd.Flags().StringVarP(&domain, "domain", "d", "", "water|book|laptop; required when the id occurs in several feeds")
	rootCmd.AddCommand(annotateCmd)

	rulesCmd := &cobra.Command{Use: "rules", Short: "Classification rules"}
	rulesCmd.AddCommand(&cobra.Command{
		Use:   "reload",
		Short: "Re-read the service's rules file and reclassify the active day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				v, err := c.ReloadRules(ctx)
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, map[string]int{"version": v})
			})
		},
	})
	rootCmd.AddCommand(rulesCmd)
}

func runSelect(ctx context.Context, c *client.Client, date string, wait bool, out io.Writer) error {
	st, err := c.Select(ctx, date, wait)
	if err != nil {
		return err
	}
	if st.LoadFailed {
		_, _ = fmt.Fprintf(out, "warning: %s failed to load: %s\n", st.DateKey, st.LoadError)
	}
	return printJSON(out, st)
}

func runSummary(ctx context.Context, c *client.Client, out io.Writer) error {
	s, err := c.Summary(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s  study %.1f min (excluded %.1f)  water %.0f ml (other drinks %.0f ml, %d logs)  score %.0f\n",
		s.DateKey, s.CountedTotal, s.ExcludedTotal, s.WaterMl, s.DrinkMl, s.DrinkCount, s.Score)
	return nil
}
