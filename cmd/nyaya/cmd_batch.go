package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sweetpotato0/nyaya/rag/legal"
	"github.com/sweetpotato0/nyaya/runner"
)

var (
	batchFile        string
	batchUser        string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch [question...]",
	Short: "Answer many questions concurrently, one JSON line per answer",
	Long: `Reads questions from --file (one per line, '#' starts a comment, '-' reads stdin)
and from the arguments. Output order matches input order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		queries := append([]string(nil), args...)
		if batchFile != "" {
			more, err := readQueriesFrom(batchFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			queries = append(queries, more...)
		}
		if len(queries) == 0 {
			return fmt.Errorf("no questions given")
		}

		a, err := buildApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.WithoutCancel(ctx))

		n := batchConcurrency
		if n <= 0 {
			n = cfg.Engine.Concurrency
		}
		results := runner.New(a.engine, n).Run(ctx, batchUser, queries)

		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, r := range results {
			line := batchLine{TaskID: r.TaskID, Response: r.Response, ElapsedMS: r.Elapsed.Milliseconds()}
			if r.Err != nil {
				line.Error = r.Err.Error()
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
		}
		return nil
	},
}

type batchLine struct {
	TaskID    string          `json:"task_id"`
	Response  *legal.Response `json:"response,omitempty"`
	Error     string          `json:"error,omitempty"`
	ElapsedMS int64           `json:"elapsed_ms"`
}

func init() {
	batchCmd.Flags().StringVarP(&batchFile, "file", "f", "", "file with one question per line ('-' for stdin)")
	batchCmd.Flags().StringVar(&batchUser, "user", "", "user id stored with every interaction")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "parallel questions (default from config)")
}

func readQueriesFrom(path string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		return readQueries(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries: %w", err)
	}
	defer f.Close()
	return readQueries(f)
}

func readQueries(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return out, nil
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
