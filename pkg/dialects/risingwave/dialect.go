package risingwave

import (
	"github.com/leapstack-labs/xsql/pkg/dialect"
)

// RisingWave is the RisingWave dialect.
var RisingWave = dialect.New(Config).
	Functions(dialect.StandardFunctions()).
	Operators(dialect.ANSIOperators()).
	TypeNames(dialect.StandardTypeNames()).
	WithReservedWords(dialect.StandardReserved...).
	Build()
