// nyaya answers questions about Indian law from a retrieval corpus.
//
// Usage:
//
//	nyaya ask "How do I file an RTI application?"
//	nyaya seed [--file corpus.yaml]
//	nyaya recall <case-id>
//	nyaya similar "landlord refuses to return deposit"
//	nyaya batch --file queries.txt
//	nyaya mcp
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
