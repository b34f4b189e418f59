package postgres

import (
	"github.com/leapstack-labs/xsql/pkg/dialect"
)

// Postgres is the PostgreSQL dialect.
var Postgres = dialect.New(Config).
	Functions(dialect.StandardFunctions()).
	Operators(dialect.ANSIOperators()).
	TypeNames(dialect.StandardTypeNames()).
	WithReservedWords(dialect.StandardReserved...).
	Build()
