package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sweetpotato0/nyaya/rag/legal"
)

var askUser string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one legal question and print the JSON response",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := buildApp(ctx, cfg)
		if err != nil {
			_ = writeJSON(cmd.OutOrStdout(), legal.Unavailable(err))
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		resp := a.engine.Ask(ctx, legal.Request{Query: strings.Join(args, " "), UserID: askUser})
		return writeJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	askCmd.Flags().StringVar(&askUser, "user", "", "user id stored with the interaction")
}
