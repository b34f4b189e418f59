// Package risingwave provides the RisingWave streaming SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package risingwave

import (
	"github.com/leapstack-labs/xsql/pkg/core"
)

// Config is the RisingWave dialect configuration.
//
// RisingWave speaks the Postgres grammar. Sources are declared with
// CREATE SOURCE, unquoted property keys and a trailing FORMAT ... ENCODE
// clause. Frames are row-count only.
var Config = &core.DialectConfig{
	Name: "risingwave",
	Mode: core.ModeStreaming,
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormLowercase,
	},

	SupportsNativeDistinct: true,
	SupportsFilterClause:   true,
	SupportsWindowTVF:      true,
	RankIsOneIndexed:       true,
	ArrayBaseIndex:         1,
	FrameTimeUnit:          core.TimeUnitNone,
	IntervalStyle:          core.IntervalQuotedString,

	Functions: map[string]string{
		"length":                 "LENGTH",
		"timestamp_from_unix_s":  "TO_TIMESTAMP(%s)",
		"timestamp_from_unix_ms": "TO_TIMESTAMP(%s / 1000.0)",
		"proctime":               "PROCTIME()",
		"tumble":                 "TUMBLE(%s, %s, %s)",
		"hop":                    "HOP(%s, %s, %s, %s)",
	},
	TypeNames: map[string]string{
		"int8":      "SMALLINT",
		"float32":   "REAL",
		"float64":   "DOUBLE PRECISION",
		"timestamp": "TIMESTAMP",
	},
	Reserved: []string{"emit", "watermark", "source", "sink"},

	DDL: core.DDLConfig{
		CreateKeyword:    "SOURCE",
		Properties:       core.PropertiesWithBare,
		ConnectorKey:     "connector",
		TopicKey:         "topic",
		Watermark:        "WATERMARK FOR {{.Column}} AS {{.Column}} - {{.Delay}}",
		Format:           "FORMAT PLAIN ENCODE {{upper .Format}}",
		SupportsIfExists: true,
	},
}
