package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/tgreport/internal/apperr"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitConclusion   = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:   "tgreport",
	Short: "Publish terragrunt plan results to GitHub pull requests",
	Long: "tgreport collects terragrunt/terraform plan outputs, classifies each one, and " +
		"publishes them as GitHub check runs or a single pull-request comment.",
	SilenceUsage: true,
}

// Persistent logging flags
var (
	flagLogLevel  string
	flagLogFormat string
)

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json, actions)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		if apperr.KindOf(err) == "" {
			return ExitUsageError
		}
		return exitCodeFor(err)
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// exitCodeFor maps an error to the process exit code by its kind.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case apperr.Is(err, apperr.KindConfiguration):
		return ExitUsageError
	case apperr.Is(err, apperr.KindAuth):
		return ExitAuthError
	default:
		return ExitRuntimeError
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print tgreport version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tgreport version %s\n", version)
	},
}
