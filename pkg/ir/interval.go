package ir

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/leapstack-labs/xsql/pkg/core"
)

// Interval is a whole number of time units.
type Interval struct {
	Value int64
	Unit  core.TimeUnit
}

// Millis returns the interval length in milliseconds.
func (iv Interval) Millis() int64 {
	return iv.Value * iv.Unit.Millis()
}

// Convert expresses the interval in unit. ok is false when the result
// would not be a whole number.
func (iv Interval) Convert(unit core.TimeUnit) (int64, bool) {
	if unit == core.TimeUnitNone || iv.Unit == core.TimeUnitNone {
		return 0, false
	}
	ms := iv.Millis()
	per := unit.Millis()
	if ms%per != 0 {
		return 0, false
	}
	return ms / per, true
}

// String renders the interval as "15 second".
func (iv Interval) String() string {
	return fmt.Sprintf("%d %s", iv.Value, iv.Unit)
}

var intervalPattern = regexp.MustCompile(`^\s*(-?\d+)\s*([A-Za-z]+)\s*$`)

// ParseInterval parses "15s", "10 minutes", "500ms".
func ParseInterval(s string) (Interval, error) {
	m := intervalPattern.FindStringSubmatch(s)
	if m == nil {
		return Interval{}, fmt.Errorf("invalid interval %q", s)
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	unit, ok := core.ParseTimeUnit(m[2])
	if !ok || unit == core.TimeUnitNone {
		return Interval{}, fmt.Errorf("invalid interval unit %q", m[2])
	}
	return Interval{Value: v, Unit: unit}, nil
}
