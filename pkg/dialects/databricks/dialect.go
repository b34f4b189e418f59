package databricks

import (
	"github.com/leapstack-labs/xsql/pkg/dialect"
)

// Databricks is the Databricks SQL dialect. Spark has no TIME type.
var Databricks = dialect.New(Config).
	Functions(dialect.StandardFunctions()).
	Operators(dialect.ANSIOperators()).
	TypeNames(dialect.StandardTypeNames()).
	WithoutTypeNames("time").
	WithReservedWords(dialect.StandardReserved...).
	Build()
