// Command hyperbench races competing implementations against each other and
// profiles staged workloads with the hyperbench toolkit.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

// NewRootCommand builds the hyperbench command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hyperbench",
		Short: "Micro-benchmarking and time accounting.",
		Long: `hyperbench races competing implementations in randomized trials and
reports running statistics for each, or splits the wall time of a staged
workload into named steps.`,
		SilenceUsage: true,
	}

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	flags := rootCmd.PersistentFlags()
	flags.String("log-level", zerolog.InfoLevel.String(), "Log level: trace, debug, info, warn, error. Per-run lines and failures log at debug.")
	flags.String("unit", "ms", "Display unit of the reports: ns, us, ms, s, m, h or d.")

	rootCmd.AddCommand(
		NewJuxtaCommand(stdout, stderr),
		NewStepsCommand(stdout, stderr),
		NewVersionCommand(stdout),
	)

	return rootCmd
}

// NewVersionCommand prints the build version.
func NewVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the hyperbench version.",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			_, err := io.WriteString(stdout, "hyperbench "+version+"\n")

			return err
		},
	}
}

// newLogger builds the zerolog logger named by the log-level flag.
func newLogger(cmd *cobra.Command, stderr io.Writer) (*zerolog.Logger, error) {
	levelName, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &logger, nil
}
