package core

import "strings"

// TimeUnit is a unit of an interval or of a window frame bound.
type TimeUnit int

const (
	// TimeUnitNone marks the absence of a unit (row-count frames only).
	TimeUnitNone TimeUnit = iota
	TimeUnitMillisecond
	TimeUnitSecond
	TimeUnitMinute
	TimeUnitHour
	TimeUnitDay
)

var timeUnitMillis = map[TimeUnit]int64{
	TimeUnitMillisecond: 1,
	TimeUnitSecond:      1000,
	TimeUnitMinute:      60 * 1000,
	TimeUnitHour:        60 * 60 * 1000,
	TimeUnitDay:         24 * 60 * 60 * 1000,
}

// String returns the lowercase singular unit name.
func (u TimeUnit) String() string {
	switch u {
	case TimeUnitMillisecond:
		return "millisecond"
	case TimeUnitSecond:
		return "second"
	case TimeUnitMinute:
		return "minute"
	case TimeUnitHour:
		return "hour"
	case TimeUnitDay:
		return "day"
	default:
		return "none"
	}
}

// Keyword returns the SQL keyword for the unit (SECOND, MINUTE, ...).
func (u TimeUnit) Keyword() string {
	return strings.ToUpper(u.String())
}

// Millis returns the length of one unit in milliseconds, or 0 for TimeUnitNone.
func (u TimeUnit) Millis() int64 {
	return timeUnitMillis[u]
}

// ParseTimeUnit converts a unit name to a TimeUnit.
// Accepts singular, plural and short forms (s, ms, min, h, d).
func ParseTimeUnit(s string) (TimeUnit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ms", "millisecond", "milliseconds":
		return TimeUnitMillisecond, true
	case "s", "sec", "second", "seconds":
		return TimeUnitSecond, true
	case "m", "min", "minute", "minutes":
		return TimeUnitMinute, true
	case "h", "hour", "hours":
		return TimeUnitHour, true
	case "d", "day", "days":
		return TimeUnitDay, true
	case "", "none":
		return TimeUnitNone, true
	default:
		return TimeUnitNone, false
	}
}
