package snowflake

import (
	"github.com/leapstack-labs/xsql/pkg/dialect"
)

// Snowflake is the Snowflake dialect.
var Snowflake = dialect.New(Config).
	Functions(dialect.StandardFunctions()).
	Operators(dialect.ANSIOperators()).
	TypeNames(dialect.StandardTypeNames()).
	WithReservedWords(dialect.StandardReserved...).
	Build()
