// Command sanctions downloads published sanctions lists, converts them to a
// uniform entity file and screens names against it.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sanctions/internal/config"
	"github.com/JonMunkholm/sanctions/internal/core"
)

func main() {
	// A .env file is optional; variables already in the environment win.
	_ = godotenv.Load()

	// Configuration problems are reported by the commands that read the
	// affected sections, so --help and unrelated commands still run.
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(cfg).ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes the coded user message when one is known, and the
// technical error below it.
func printError(w io.Writer, err error) {
	if core.IsUserFacing(err) {
		fmt.Fprintf(w, "Error: %s\n  %v\n", core.FormatUserError(err), err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
