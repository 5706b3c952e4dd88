// ./main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/heartofbedrock/AI-survey-solver/cmd"
)

// main is the entry point for the survey-solver application.
func main() {
	// Interrupt signals cancel the run context so the browser still gets
	// torn down on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
