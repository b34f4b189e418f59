package ir

import (
	"maps"
	"slices"
)

// Source describes the external connector of a streaming table.
// The compiler renders it into DDL but never opens it.
type Source struct {
	Connector  string
	Topic      string
	Format     string
	Properties map[string]string
}

// PropertyKeys returns the extra property keys in sorted order.
func (s *Source) PropertyKeys() []string {
	return slices.Sorted(maps.Keys(s.Properties))
}

// Watermark bounds how late an event-time value may arrive.
type Watermark struct {
	TimeCol      string
	AllowedDelay Interval
}

// TableOption configures an unbound table.
type TableOption func(*attrs)

// WithSource attaches a streaming source descriptor.
func WithSource(src Source) TableOption {
	return func(at *attrs) {
		s := src
		s.Properties = maps.Clone(src.Properties)
		at.source = &s
	}
}

// WithWatermark declares an event-time watermark on timeCol.
func WithWatermark(timeCol string, delay Interval) TableOption {
	return func(at *attrs) {
		at.watermark = &Watermark{TimeCol: timeCol, AllowedDelay: delay}
	}
}
