// Package stats calculates the running mean, median, min and max of a sampled signal.
//
// Samples are elapsed times in seconds. Non-finite samples (NaN, +Inf, -Inf) are
// counted but never enter the numeric aggregates.
package stats

import (
	"strconv"
	"strings"
	"time"

	"github.com/hyp3rd/hyperbench/internal/constants"
)

// Stat is an immutable snapshot of a RunningStats.
// With no valid samples every numeric field is zero and only NumNanOrInfinite is meaningful.
type Stat struct {
	Min              float64 `codec:"min"              json:"min"              msgpack:"min"`
	Max              float64 `codec:"max"              json:"max"              msgpack:"max"`
	Mean             float64 `codec:"mean"             json:"mean"             msgpack:"mean"`
	Median           float64 `codec:"median"           json:"median"           msgpack:"median"`
	Total            float64 `codec:"total"            json:"total"            msgpack:"total"`
	Num              int     `codec:"num"              json:"num"              msgpack:"num"`
	NumNanOrInfinite int     `codec:"numNanOrInfinite" json:"numNanOrInfinite" msgpack:"numNanOrInfinite"`
}

// String renders the snapshot in milliseconds.
func (s Stat) String() string {
	return s.Format(constants.DefaultReportUnit)
}

// Format renders the snapshot with the given unit precision, e.g.
// "median=2500ms mean=2300ms min=1000ms max=3000ms num=5".
func (s Stat) Format(unit time.Duration) string {
	if s.Num == 0 {
		if s.NumNanOrInfinite == 0 {
			return "No samples yet"
		}

		return "No valid samples, " + strconv.Itoa(s.NumNanOrInfinite) + " were NaN or infinite"
	}

	var builder strings.Builder

	builder.Grow(96)
	builder.WriteString("median=")
	builder.WriteString(FormatUnit(s.Median, unit))
	builder.WriteString(" mean=")
	builder.WriteString(FormatUnit(s.Mean, unit))
	builder.WriteString(" min=")
	builder.WriteString(FormatUnit(s.Min, unit))
	builder.WriteString(" max=")
	builder.WriteString(FormatUnit(s.Max, unit))
	builder.WriteString(" num=")
	builder.WriteString(strconv.Itoa(s.Num))

	if s.NumNanOrInfinite > 0 {
		builder.WriteString(" numNANorINFINITE=")
		builder.WriteString(strconv.Itoa(s.NumNanOrInfinite))
	}

	return builder.String()
}

// Samples is the total number of samples offered, valid or not.
func (s Stat) Samples() int {
	return s.Num + s.NumNanOrInfinite
}
