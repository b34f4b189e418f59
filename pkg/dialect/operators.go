package dialect

import "github.com/leapstack-labs/xsql/pkg/core"

// ANSIOperators returns the standard SQL spelling and precedence of every
// canonical infix and prefix operator. Each call returns a fresh map.
func ANSIOperators() map[string]core.OperatorDef {
	return map[string]core.OperatorDef{
		// Logical operators (lowest precedence)
		"or":  {Symbol: "OR", Precedence: core.PrecedenceOr},
		"and": {Symbol: "AND", Precedence: core.PrecedenceAnd},
		"not": {Symbol: "NOT", Precedence: core.PrecedenceNot},

		// Comparison operators
		"equals":        {Symbol: "=", Precedence: core.PrecedenceComparison},
		"not_equals":    {Symbol: "<>", Precedence: core.PrecedenceComparison},
		"less":          {Symbol: "<", Precedence: core.PrecedenceComparison},
		"less_equal":    {Symbol: "<=", Precedence: core.PrecedenceComparison},
		"greater":       {Symbol: ">", Precedence: core.PrecedenceComparison},
		"greater_equal": {Symbol: ">=", Precedence: core.PrecedenceComparison},

		// Arithmetic operators
		"add":      {Symbol: "+", Precedence: core.PrecedenceAddition},
		"subtract": {Symbol: "-", Precedence: core.PrecedenceAddition},

		// Multiplicative operators (highest precedence for binary ops)
		"multiply": {Symbol: "*", Precedence: core.PrecedenceMultiply},
		"divide":   {Symbol: "/", Precedence: core.PrecedenceMultiply},
		"modulo":   {Symbol: "%", Precedence: core.PrecedenceMultiply},

		"negate": {Symbol: "-", Precedence: core.PrecedenceUnary},
	}
}
