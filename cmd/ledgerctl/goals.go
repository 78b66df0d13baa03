package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hihiyo7/Personal-Healthcare-Assistant/client"
)

func init() {
	goalsCmd := &cobra.Command{Use: "goals", Short: "Scoring goals"}

	goalsCmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the current goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				g, err := c.GetGoals(ctx)
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, g)
			})
		},
	})

	var water, study float64
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the goals and rescore the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			if water <= 0 || study <= 0 {
				return fmt.Errorf("--water and --study must be positive")
			}
			return withClient(func(ctx context.Context, c *client.Client) error {
				g, err := c.SetGoals(ctx, client.Goals{WaterMl: water, StudyMinutes: study})
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, g)
			})
		},
	}
	setCmd.Flags().Float64VarP(&water, "water", "w", 0, "Daily water goal in ml (required)")
	setCmd.Flags().Float64VarP(&study, "study", "s", 0, "Daily study goal in minutes (required)")
	_ = setCmd.MarkFlagRequired("water")
	_ = setCmd.MarkFlagRequired("study")
	goalsCmd.AddCommand(setCmd)

	rootCmd.AddCommand(goalsCmd)

	var date string
	rollupCmd := &cobra.Command{
		Use:       "rollup PERIOD",
		Short:     "Aggregate the ledger (daily, weekly, monthly)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"daily", "weekly", "monthly"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(func(ctx context.Context, c *client.Client) error {
				r, err := c.Rollup(ctx, args[0], date)
				if err != nil {
					return err
				}
				return printJSON(os.Stdout, r)
			})
		},
	}
	rollupCmd.Flags().StringVarP(&date, "date", "d", "", "Reference date (defaults to today)")
	rootCmd.AddCommand(rollupCmd)
}
