package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vmodel",
		Short: "Replay and validate observable model scripts",
		Long: `vmodel drives an observable key/value model from a script.

A script seeds the model, defines computed properties and lists steps
(set, remove, update, flush). Replaying it prints every beforechange,
change and batched update event as one JSON object per line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		replayCmd(),
		validateCmd(),
		schemaCmd(),
		versionCmd(),
	)
	return root
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
