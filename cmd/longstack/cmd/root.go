// Package cmd provides the command-line interface of longstack.
package cmd

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var logger = zerolog.Nop()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "longstack",
	Short: "Demonstrates long stack traces across asynchronous callbacks.",
	Long: `longstack runs small programs on an instrumented event loop and ` +
		`prints the traces captured inside their callbacks. Every trace ` +
		`continues with the place where the callback was registered.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		_ = godotenv.Load()

		verbose, _ := cmd.Flags().GetBool("verbose")
		logger = newLogger(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"Log installs and restores of boundaries")
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger()
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}
