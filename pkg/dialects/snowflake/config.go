// Package snowflake provides the Snowflake SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package snowflake

import (
	"github.com/leapstack-labs/xsql/pkg/core"
)

// Config is the Snowflake dialect configuration.
// Snowflake folds unquoted identifiers to uppercase, so lowercase column
// names are quoted to keep their case.
var Config = &core.DialectConfig{
	Name: "snowflake",
	Mode: core.ModeBatch,
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormUppercase,
	},

	SupportsNativeDistinct: true,
	SupportsQualify:        true,
	RankIsOneIndexed:       true,
	ArrayBaseIndex:         0,
	FrameTimeUnit:          core.TimeUnitNone,
	IntervalStyle:          core.IntervalQuotedString,

	Functions: map[string]string{
		"length":                 "LENGTH",
		"timestamp_from_unix_s":  "TO_TIMESTAMP(%s)",
		"timestamp_from_unix_ms": "TO_TIMESTAMP(%s, 3)",
		"extract_week_of_year":   "WEEKOFYEAR(%s)",
		"extract_day_of_year":    "DAYOFYEAR(%s)",
		"extract_day_of_week":    "DAYOFWEEK(%s)",
		"extract_millisecond":    "DATE_PART('ms', %s)",
	},
	TypeNames: map[string]string{
		"int8":      "NUMBER(3, 0)",
		"int16":     "NUMBER(5, 0)",
		"int32":     "NUMBER(10, 0)",
		"int64":     "NUMBER(19, 0)",
		"float32":   "FLOAT",
		"float64":   "FLOAT",
		"timestamp": "TIMESTAMP_NTZ",
	},
	Reserved: []string{"qualify", "sample", "tablesample", "regexp", "rlike", "ilike", "increment", "minus"},

	DDL: core.DDLConfig{
		CreateKeyword:       "TABLE",
		SupportsIfExists:    true,
		SupportsReplaceView: true,
	},
}
