package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryan-cox/choreledger/internal/ledger"
	"github.com/bryan-cox/choreledger/internal/report"
)

var (
	cookRecipeID string

	maintainCmd = &cobra.Command{
		Use:   "maintain",
		Short: "Reopen recurring tasks and clear out expired completed tasks and history.",
		Long: `Runs the upkeep pass that every command runs on load, and reports what it changed.
Recurring tasks completed before today are reopened. Completed one-time tasks and
cooking history older than the retention window are removed.`,
		Args: cobra.NoArgs,
		RunE: runMaintainCommand,
	}

	retentionCmd = &cobra.Command{
		Use:   "retention [days]",
		Short: "Show or set how many days completed tasks and history are kept.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRetentionCommand,
	}

	cookCmd = &cobra.Command{
		Use:   "cook <recipe title>",
		Short: "Record that a recipe was cooked today.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCookCommand,
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show the cooking history, newest first.",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCommand,
	}
)

func init() {
	cookCmd.Flags().StringVar(&cookRecipeID, "recipe-id", "", "ID of the recipe that was cooked.")

	rootCmd.AddCommand(maintainCmd, retentionCmd, cookCmd, historyCmd)
}

func runMaintainCommand(cmd *cobra.Command, args []string) error {
	return withLedger(cmd, func(ctx context.Context, l *ledger.Ledger) error {
		rep, err := l.Maintain(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Reopened recurring tasks: %d\n", rep.Reset)
		fmt.Fprintf(out, "Removed completed tasks: %d\n", rep.Swept)
		fmt.Fprintf(out, "Removed history entries: %d\n", rep.HistorySwept)
		return nil
	})
}

func runRetentionCommand(cmd *cobra.Command, args []string) error {
	return withLedger(cmd, func(ctx context.Context, l *ledger.Ledger) error {
		if len(args) == 0 {
			s, err := l.Settings(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Retention: %d day(s)\n", s.EffectiveRetentionDays())
			return nil
		}

		days, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid retention '%s': must be a whole number of days", args[0])
		}
		s, err := l.SetRetentionDays(ctx, days)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Retention set to %d day(s)\n", s.RetentionDays)
		return nil
	})
}

func runCookCommand(cmd *cobra.Command, args []string) error {
	title := strings.Join(args, " ")
	return withLedger(cmd, func(ctx context.Context, l *ledger.Ledger) error {
		entry, err := l.LogCooked(ctx, cookRecipeID, title)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged: %s\n", entry.RecipeTitle)
		return nil
	})
}

func runHistoryCommand(cmd *cobra.Command, args []string) error {
	return withLedger(cmd, func(ctx context.Context, l *ledger.Ledger) error {
		history, err := l.History(ctx)
		if err != nil {
			return err
		}
		report.PrintHistory(cmd.OutOrStdout(), history)
		return nil
	})
}
