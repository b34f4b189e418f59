// Package ansi provides the base ANSI SQL dialect.
//
// The other dialect packages start from the same standard tables and
// override what their engine spells differently.
package ansi

import (
	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/dialect"
)

// Config is the ANSI SQL dialect configuration.
var Config = &core.DialectConfig{
	Name: "ansi",
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
	IntervalStyle:          core.IntervalQuotedValue,

	DDL: core.DDLConfig{
		CreateKeyword: "TABLE",
	},
}

// ANSI is the base ANSI SQL dialect.
var ANSI = dialect.New(Config).
	Functions(dialect.StandardFunctions()).
	Operators(dialect.ANSIOperators()).
	TypeNames(dialect.StandardTypeNames()).
	WithReservedWords(dialect.StandardReserved...).
	Build()
