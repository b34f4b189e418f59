// Package duckdb provides the DuckDB SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package duckdb

import (
	"github.com/leapstack-labs/xsql/pkg/core"
)

// Config is the DuckDB dialect configuration.
var Config = &core.DialectConfig{
	Name: "duckdb",
	Mode: core.ModeBatch,
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormCaseInsensitive,
	},

	SupportsNativeDistinct: true,
	SupportsQualify:        true,
	SupportsFilterClause:   true,
	RankIsOneIndexed:       true,
	ArrayBaseIndex:         1,
	FrameTimeUnit:          core.TimeUnitSecond,
	IntervalStyle:          core.IntervalBare,

	Functions: map[string]string{
		"length":                 "LENGTH",
		"timestamp_from_unix_s":  "TO_TIMESTAMP(%s)",
		"timestamp_from_unix_ms": "EPOCH_MS(%s)",
		"extract_week_of_year":   "WEEKOFYEAR(%s)",
		"extract_day_of_year":    "DAYOFYEAR(%s)",
		"extract_day_of_week":    "DAYOFWEEK(%s)",
		"extract_millisecond":    "MILLISECOND(%s)",
		"extract_second":         "SECOND(%s)",
	},
	TypeNames: map[string]string{
		"int8":    "TINYINT",
		"float32": "FLOAT",
		"float64": "DOUBLE",
	},
	Reserved: []string{"qualify", "pivot", "unpivot", "asof", "positional", "anti", "semi"},

	DDL: core.DDLConfig{
		CreateKeyword:       "TABLE",
		SupportsIfExists:    true,
		SupportsReplaceView: true,
	},
}
