package duckdb

import (
	"github.com/leapstack-labs/xsql/pkg/dialect"
)

// DuckDB is the DuckDB dialect.
var DuckDB = dialect.New(Config).
	Functions(dialect.StandardFunctions()).
	Operators(dialect.ANSIOperators()).
	TypeNames(dialect.StandardTypeNames()).
	WithReservedWords(dialect.StandardReserved...).
	Build()
