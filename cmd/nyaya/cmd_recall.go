package main

import (
	"context"

	"github.com/spf13/cobra"
)

var recallCmd = &cobra.Command{
	Use:   "recall <case-id>",
	Short: "Print a stored interaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		rec, err := a.engine.Recall(ctx, args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), rec)
	},
}

var similarLimit int

var similarCmd = &cobra.Command{
	Use:   "similar <question>",
	Short: "List earlier cases similar to a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		hits, err := a.engine.SimilarMemories(ctx, joinArgs(args), similarLimit)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), hits)
	},
}

func init() {
	similarCmd.Flags().IntVar(&similarLimit, "limit", 5, "maximum number of cases")
}
