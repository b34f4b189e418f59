// Package flink provides the Apache Flink SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package flink

import (
	"github.com/leapstack-labs/xsql/pkg/core"
)

// Config is the Flink SQL dialect configuration.
//
// Flink is the streaming reference dialect: it has no true DISTINCT over an
// unbounded stream, declares watermarks inside CREATE TABLE, and exposes
// TUMBLE/HOP as windowing table-valued functions.
var Config = &core.DialectConfig{
	Name: "flink",
	Mode: core.ModeStreaming,
	Identifiers: core.IdentifierConfig{
		Quote:         "`",
		QuoteEnd:      "`",
		Escape:        "``",
		Normalization: core.NormCaseSensitive,
	},

	SupportsNativeDistinct: false,
	SupportsFilterClause:   true,
	SupportsWindowTVF:      true,
	RankIsOneIndexed:       true,
	ArrayBaseIndex:         1,
	FrameTimeUnit:          core.TimeUnitSecond,
	IntervalStyle:          core.IntervalQuotedValue,

	Functions: map[string]string{
		"timestamp_from_unix_s":  "TO_TIMESTAMP(FROM_UNIXTIME(%s))",
		"timestamp_from_unix_ms": "TO_TIMESTAMP(FROM_UNIXTIME(%s / 1000))",
		"extract_day_of_year":    "DAYOFYEAR(%s)",
		"extract_day_of_week":    "DAYOFWEEK(%s)",
		"extract_millisecond":    "EXTRACT(MILLISECOND FROM %s)",
		"proctime":               "PROCTIME()",
		"tumble":                 "TABLE(TUMBLE(TABLE %s, DESCRIPTOR(%s), %s))",
		"hop":                    "TABLE(HOP(TABLE %s, DESCRIPTOR(%s), %s, %s))",
	},
	TypeNames: map[string]string{
		"int8":      "TINYINT",
		"int32":     "INT",
		"float32":   "FLOAT",
		"float64":   "DOUBLE",
		"string":    "STRING",
		"timestamp": "TIMESTAMP(3)",
		"interval":  "INTERVAL SECOND",
	},
	Reserved: []string{
		"year", "month", "day", "hour", "minute", "second", "time", "timestamp",
		"date", "value", "values", "language", "result", "rows", "range",
		"watermark", "system_time", "current_time", "current_timestamp",
	},

	DDL: core.DDLConfig{
		CreateKeyword:    "TABLE",
		Properties:       core.PropertiesWith,
		ConnectorKey:     "connector",
		TopicKey:         "topic",
		FormatKey:        "format",
		Watermark:        "WATERMARK FOR {{.Column}} AS {{.Column}} - {{.Delay}}",
		SupportsIfExists: true,
	},
}
