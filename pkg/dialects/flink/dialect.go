package flink

import (
	"github.com/leapstack-labs/xsql/pkg/dialect"
)

// Flink is the Apache Flink SQL dialect.
var Flink = dialect.New(Config).
	Functions(dialect.StandardFunctions()).
	Operators(dialect.ANSIOperators()).
	TypeNames(dialect.StandardTypeNames()).
	WithReservedWords(dialect.StandardReserved...).
	Build()
