package main

import (
	"context"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hyp3rd/hyperbench"
	"github.com/hyp3rd/hyperbench/internal/constants"
	"github.com/hyp3rd/hyperbench/pkg/printer"
	"github.com/hyp3rd/hyperbench/pkg/stats"
)

const textFormat = "text"

// juxtaOptions holds the flags of the juxta command.
type juxtaOptions struct {
	Suite    string
	Trials   int
	Size     int
	Seed     uint64
	Format   string
	MgmtAddr string
	Linger   time.Duration
}

// NewJuxtaCommand races a suite of competing implementations.
func NewJuxtaCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &juxtaOptions{}
	juxtaCmd := &cobra.Command{
		Use:   "juxta",
		Short: "Races competing implementations in randomized trials.",
		Long: `Races competing implementations in randomized trials.

Every trial runs each implementation of the chosen suite once, in a freshly
shuffled order, and prints the running statistics of every implementation.
With a format other than text the progress is logged at info level and the
final report is encoded to stdout.

Suites: ` + strings.Join(suiteNames(), ", ") + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			seeded := cmd.Flags().Changed("seed")

			return runJuxta(cmd, opts, seeded, stdout, stderr)
		},
	}

	flags := juxtaCmd.Flags()
	flags.StringVar(&opts.Suite, "suite", "sort", "Suite of implementations to race.")
	flags.IntVar(&opts.Trials, "trials", constants.DefaultTrials, "Number of randomized trials.")
	flags.IntVar(&opts.Size, "size", 1000, "Input size of every run.")
	flags.Uint64Var(&opts.Seed, "seed", 0, "Seed of the trial order and the inputs; random when not set.")
	flags.StringVar(&opts.Format, "format", textFormat, "Report format: text, json, msgpack or cbor.")
	flags.StringVar(&opts.MgmtAddr, "mgmt-addr", "", "Serve the live report on this address, e.g. 127.0.0.1:8080.")
	flags.DurationVar(&opts.Linger, "linger", 0, "Keep the management server up this long after the trials.")

	return juxtaCmd
}

func runJuxta(cmd *cobra.Command, opts *juxtaOptions, seeded bool, stdout, stderr io.Writer) error {
	registerSuite, ok := suites[opts.Suite]
	if !ok {
		return ewrap.New("unknown suite " + opts.Suite + ", want one of " + strings.Join(suiteNames(), ", "))
	}

	if opts.Size < 1 {
		return ewrap.New("size must be positive")
	}

	cfgOpts, logger, err := sessionOptions(cmd, stderr)
	if err != nil {
		return err
	}

	// stdout carries the encoded report, so progress goes to the log
	progress := printer.Printer(printer.NewWriterPrinter(stdout))
	if opts.Format != textFormat {
		progress = printer.NewLogPrinter(*logger, zerolog.InfoLevel)
	}

	cfgOpts = append(cfgOpts, hyperbench.WithPrinter(progress))

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	if seeded {
		cfgOpts = append(cfgOpts, hyperbench.WithSeed(opts.Seed))
		rng = rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	}

	if opts.MgmtAddr != "" {
		cfgOpts = append(cfgOpts, hyperbench.WithManagementHTTP(opts.MgmtAddr))
	}

	ctx := cmd.Context()

	session, err := hyperbench.New(ctx, hyperbench.NewConfig(cfgOpts...))
	if err != nil {
		return err
	}

	defer closeSession(session)

	err = registerSuite(session, rng, opts.Size)
	if err != nil {
		return ewrap.Wrap(err, "registering suite "+opts.Suite)
	}

	err = session.RunRandomTrials(ctx, opts.Trials)
	if err != nil {
		return err
	}

	if opts.Format != textFormat {
		data, exportErr := session.Export(opts.Format)
		if exportErr != nil {
			return exportErr
		}

		_, err = stdout.Write(data)
		if err != nil {
			return err
		}
	}

	if opts.MgmtAddr != "" && opts.Linger > 0 {
		select {
		case <-time.After(opts.Linger):
		case <-ctx.Done():
		}
	}

	return nil
}

// sessionOptions maps the persistent flags onto session options.
func sessionOptions(cmd *cobra.Command, stderr io.Writer) ([]hyperbench.Option, *zerolog.Logger, error) {
	logger, err := newLogger(cmd, stderr)
	if err != nil {
		return nil, nil, err
	}

	unitName, err := cmd.Flags().GetString("unit")
	if err != nil {
		return nil, nil, err
	}

	unit, err := stats.ParseUnit(unitName)
	if err != nil {
		return nil, nil, err
	}

	return []hyperbench.Option{hyperbench.WithLogger(logger), hyperbench.WithUnit(unit)}, logger, nil
}

func closeSession(session *hyperbench.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultMgmtWriteTimeout)
	defer cancel()

	_ = session.Close(ctx)
}
