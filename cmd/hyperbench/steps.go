package main

import (
	"context"
	"io"
	"math/rand/v2"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/hyp3rd/ewrap"
	"github.com/spf13/cobra"

	"github.com/hyp3rd/hyperbench"
	"github.com/hyp3rd/hyperbench/internal/constants"
	"github.com/hyp3rd/hyperbench/pkg/printer"
)

// stepsOptions holds the flags of the steps command.
type stepsOptions struct {
	Workers int
	Jobs    int
	Rounds  int
	Buckets int
	Seed    uint64
	Top     int
	Trace   bool
}

// NewStepsCommand profiles a staged workload.
func NewStepsCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &stepsOptions{}
	stepsCmd := &cobra.Command{
		Use:   "steps",
		Short: "Splits the wall time of a staged workload into steps.",
		Long: `Splits the wall time of a staged workload into steps.

Each round generates random payloads, hashes them on a pool of workers while
counting the bucket every payload falls into, then encodes the session report.
The step report shows the share of time spent in each stage, followed by the
most frequent buckets.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSteps(cmd, opts, stdout, stderr)
		},
	}

	flags := stepsCmd.Flags()
	flags.IntVar(&opts.Workers, "workers", 4, "Number of workers hashing payloads.")
	flags.IntVar(&opts.Jobs, "jobs", 1000, "Number of payloads per round.")
	flags.IntVar(&opts.Rounds, "rounds", 3, "Number of rounds through the stages.")
	flags.IntVar(&opts.Buckets, "buckets", 16, "Number of histogram buckets.")
	flags.Uint64Var(&opts.Seed, "seed", 1, "Seed of the generated payloads.")
	flags.IntVar(&opts.Top, "top", constants.DefaultHistogramTop, "Number of buckets shown.")
	flags.BoolVar(&opts.Trace, "trace", false, "Print a timestamped line to stderr after every round.")

	return stepsCmd
}

func runSteps(cmd *cobra.Command, opts *stepsOptions, stdout, stderr io.Writer) error {
	if opts.Jobs < 0 || opts.Rounds < 0 || opts.Buckets < 1 {
		return ewrap.New("jobs and rounds cannot be negative and buckets must be positive")
	}

	cfgOpts, _, err := sessionOptions(cmd, stderr)
	if err != nil {
		return err
	}

	cfgOpts = append(cfgOpts,
		hyperbench.WithPrinter(printer.NewWriterPrinter(stdout)),
		hyperbench.WithStepPrefix("steps."),
	)

	ctx := cmd.Context()

	session, err := hyperbench.New(ctx, hyperbench.NewConfig(cfgOpts...))
	if err != nil {
		return err
	}

	defer closeSession(session)

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))

	trace := printer.NewProfileLogger(printer.NewWriterPrinter(stderr), printer.Delta)
	if !opts.Trace {
		trace.SetMode(printer.Off)
	}

	for round := range opts.Rounds {
		err = runRound(ctx, session, rng, opts)
		if err != nil {
			return err
		}

		trace.Log("round " + strconv.Itoa(round+1) + " hashed " + strconv.Itoa(opts.Jobs) + " payloads")
	}

	session.PrintStepResults()
	session.PrintHistogram(opts.Top)

	return nil
}

func runRound(ctx context.Context, session *hyperbench.Session, rng *rand.Rand, opts *stepsOptions) error {
	session.StartStep("generate")

	payloads := make([][]byte, opts.Jobs)
	for i := range payloads {
		payload := make([]byte, 256)
		for j := range payload {
			payload[j] = byte(rng.UintN(256))
		}

		payloads[i] = payload
	}

	session.StartStep("hash")

	pool := hyperbench.NewWorkerPool(ctx, opts.Workers)
	buckets := uint64(opts.Buckets)

	for _, payload := range payloads {
		err := pool.Enqueue(func(context.Context) error {
			bucket := xxhash.Sum64(payload) % buckets
			session.Count("bucket-" + strconv.FormatUint(bucket, 10))

			return nil
		})
		if err != nil {
			_ = pool.Shutdown()

			return err
		}
	}

	err := pool.Shutdown()
	if err != nil {
		return ewrap.Wrap(err, "hashing payloads")
	}

	session.StartStep("encode")

	_, err = session.Export(constants.DefaultSerializer)
	if err != nil {
		return err
	}

	session.FinishStep()

	return nil
}
