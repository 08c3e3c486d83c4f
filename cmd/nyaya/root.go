package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sweetpotato0/nyaya/config"
	"github.com/sweetpotato0/nyaya/pkg/logging"
	"github.com/sweetpotato0/nyaya/pkg/telemetry"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	logLevel   string
)

var cfg config.Config

var shutdownTracing = func(context.Context) error { return nil }

var rootCmd = &cobra.Command{
	Use:   "nyaya",
	Short: "Legal information assistant for Indian law",
	Long: "nyaya answers legal questions with retrieved statutes, similar cases and civic action steps.\n" +
		"It provides general legal information, not legal advice.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()
		if logLevel != "" {
			logging.SetLogger(logging.New(os.Stderr, os.Getenv("NYAYA_LOG_FORMAT"), logLevel))
		}
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		shutdown, err := telemetry.Init(cmd.Context(), telemetry.Config{
			ServiceName:    "nyaya",
			ServiceVersion: version,
			Environment:    cfg.Telemetry.Environment,
			Disable:        cfg.Telemetry.Disable,
			Exporter:       cfg.Telemetry.Exporter,
			Endpoint:       cfg.Telemetry.Endpoint,
			SampleRatio:    cfg.Telemetry.SampleRatio,
			Logger:         logging.WithComponent("telemetry"),
		})
		if err != nil {
			return err
		}
		shutdownTracing = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		return shutdownTracing(context.WithoutCancel(cmd.Context()))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("NYAYA_CONFIG"), "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error (default from NYAYA_LOG_LEVEL)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.Version = version
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
