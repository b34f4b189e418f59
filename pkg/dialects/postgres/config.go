// Package postgres provides the PostgreSQL dialect definition.
// This package is pure Go with no database driver dependencies.
package postgres

import (
	"github.com/leapstack-labs/xsql/pkg/core"
)

// Config is the PostgreSQL dialect configuration.
// This is pure data; Postgres is a batch engine with no streaming DDL.
var Config = &core.DialectConfig{
	Name: "postgres",
	Mode: core.ModeBatch,
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormLowercase,
	},

	SupportsNativeDistinct: true,
	SupportsFilterClause:   true,
	RankIsOneIndexed:       true,
	ArrayBaseIndex:         1,
	FrameTimeUnit:          core.TimeUnitSecond,
	IntervalStyle:          core.IntervalQuotedString,

	Functions: map[string]string{
		"length":                 "LENGTH",
		"timestamp_from_unix_s":  "TO_TIMESTAMP(%s)",
		"timestamp_from_unix_ms": "TO_TIMESTAMP(%s / 1000.0)",
		"extract_millisecond":    "EXTRACT(MILLISECONDS FROM %s)",
	},
	TypeNames: map[string]string{
		"string": "TEXT",
	},
	Reserved: []string{"analyse", "analyze", "do", "placing", "returning", "variadic"},

	DDL: core.DDLConfig{
		CreateKeyword:       "TABLE",
		SupportsIfExists:    true,
		SupportsReplaceView: true,
	},
}
