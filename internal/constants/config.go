// Package constants defines default configuration values for the hyperbench toolkit.
// It provides the standard report unit, trial counts, report framing and
// management server settings shared by the library and the CLI.
package constants

import "time"

const (
	// DefaultReportUnit is the precision used when rendering statistics.
	// Samples are always accumulated in seconds; the unit only affects display.
	DefaultReportUnit = time.Millisecond
	// DefaultTrials is the number of harness trials the CLI runs when none is given.
	DefaultTrials = 10
	// StepReportHeader opens every step profiler report.
	StepReportHeader = "------------------"
	// InitialSampleCapacity is the starting size of a running-stats sample buffer.
	InitialSampleCapacity = 16
	// DefaultMgmtReadTimeout bounds reads on the management HTTP server.
	DefaultMgmtReadTimeout = 5 * time.Second
	// DefaultMgmtWriteTimeout bounds writes on the management HTTP server.
	DefaultMgmtWriteTimeout = 5 * time.Second
	// DefaultHistogramTop is how many histogram keys the reports show by default.
	DefaultHistogramTop = 10
	// DefaultSerializer is the serializer used when a report format is not given.
	DefaultSerializer = "json"
)
