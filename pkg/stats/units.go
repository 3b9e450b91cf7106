package stats

import (
	"math"
	"strconv"
	"time"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/hyperbench/internal/sentinel"
)

// Day is the display unit for "d".
const Day = 24 * time.Hour

var unitSuffixes = map[time.Duration]string{
	time.Nanosecond:  "ns",
	time.Microsecond: "us",
	time.Millisecond: "ms",
	time.Second:      "s",
	time.Minute:      "m",
	time.Hour:        "h",
	Day:              "d",
}

// UnitSuffix returns the display suffix of unit, or an error if the unit has none.
func UnitSuffix(unit time.Duration) (string, error) {
	suffix, ok := unitSuffixes[unit]
	if !ok {
		return "", ewrap.Wrap(sentinel.ErrUnsupportedUnit, unit.String())
	}

	return suffix, nil
}

// ParseUnit maps a suffix such as "ms" back to its unit.
func ParseUnit(suffix string) (time.Duration, error) {
	for unit, s := range unitSuffixes {
		if s == suffix {
			return unit, nil
		}
	}

	return 0, ewrap.Wrap(sentinel.ErrUnsupportedUnit, suffix)
}

// FormatUnit formats the given elapsed time in seconds, rounded half away from
// zero to a whole number of the given unit. It panics if the unit is not one of
// ns, us, ms, s, m, h or d.
func FormatUnit(elapsedSec float64, unit time.Duration) string {
	suffix, err := UnitSuffix(unit)
	if err != nil {
		panic(err)
	}

	perSecond := float64(time.Second) / float64(unit)

	return strconv.FormatInt(int64(math.Round(elapsedSec*perSecond)), 10) + suffix
}
