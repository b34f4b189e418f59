package core

// Precedence levels for rendering operators. Higher binds tighter.
const (
	PrecedenceNone       = 0
	PrecedenceOr         = 1
	PrecedenceAnd        = 2
	PrecedenceNot        = 3
	PrecedenceComparison = 4 // =, <>, <, >, <=, >=, IN, IS NULL
	PrecedenceAddition   = 5 // +, -
	PrecedenceMultiply   = 6 // *, /, %
	PrecedenceUnary      = 7 // -
	PrecedencePostfix    = 8 // function calls, literals, columns
)

// OperatorDef is the infix or prefix spelling of a canonical operator.
type OperatorDef struct {
	Symbol     string
	Precedence int
}
