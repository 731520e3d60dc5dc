// Package cmd provides the vinnie CLI commands.
//
// Commands:
//   - serve: HTTP gateway with streamed conversation turns (default)
//   - migrate: apply database migrations and exit
//   - version: print build information
//
// Signal handling and graceful shutdown are implemented via context
// cancellation.
package cmd

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vinnie",
	Short: "Vinnie AI conversational gateway",
	Long: "Vinnie AI is a multilingual conversational gateway: it resolves callers\n" +
		"to stable identities, streams generated replies, and keeps the full\n" +
		"conversation history in PostgreSQL.",
	SilenceUsage:  true,
	SilenceErrors: true,
	// Bare invocation starts the server.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// parseLogLevel maps a config string to a slog level, defaulting to info.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
