// Package databricks provides the Databricks SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package databricks

import (
	"github.com/leapstack-labs/xsql/pkg/core"
)

// Config is the Databricks dialect configuration.
// Databricks SQL is based on Spark SQL with backtick identifiers and
// case-insensitive names. Tables are declared with TBLPROPERTIES; event-time
// watermarks belong to the streaming reader, not to the DDL.
var Config = &core.DialectConfig{
	Name: "databricks",
	Mode: core.ModeBatch,
	Identifiers: core.IdentifierConfig{
		Quote:         "`",
		QuoteEnd:      "`",
		Escape:        "``",
		Normalization: core.NormCaseInsensitive,
	},

	SupportsNativeDistinct: true,
	SupportsQualify:        true,
	RankIsOneIndexed:       true,
	ArrayBaseIndex:         0,
	FrameTimeUnit:          core.TimeUnitSecond,
	IntervalStyle:          core.IntervalBare,

	Functions: map[string]string{
		"length":                 "LENGTH",
		"timestamp_from_unix_s":  "TIMESTAMP_SECONDS",
		"timestamp_from_unix_ms": "TIMESTAMP_MILLIS",
		"extract_week_of_year":   "WEEKOFYEAR(%s)",
		"extract_day_of_year":    "DAYOFYEAR(%s)",
		"extract_day_of_week":    "DAYOFWEEK(%s)",
	},
	TypeNames: map[string]string{
		"int8":    "TINYINT",
		"int32":   "INT",
		"float32": "FLOAT",
		"float64": "DOUBLE",
		"string":  "STRING",
	},
	Reserved: []string{"qualify", "pivot", "unpivot", "lateral", "minus", "rlike", "regexp"},

	DDL: core.DDLConfig{
		CreateKeyword:    "TABLE",
		Properties:       core.PropertiesTblProperties,
		ConnectorKey:     "connector",
		TopicKey:         "topic",
		FormatKey:        "format",
		SupportsIfExists: true,

		SupportsReplaceView: true,
	},
}
