package ir

// Op identifies the operator of a node.
type Op int

// Relational operators.
const (
	OpTable Op = iota
	OpProject
	OpFilter
	OpAggregate
	OpDistinct
	OpSort
	OpLimit
	OpJoin
	OpTumble
	OpHop

	// Scalars
	OpColumn
	OpLiteral
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpEquals
	OpNotEquals
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAnd
	OpOr
	OpNot
	OpIsNull
	OpNotNull
	OpIsIn
	OpNegate
	OpAbs
	OpUpper
	OpLower
	OpLength
	OpCast
	OpSearchedCase
	OpSimpleCase
	OpExtract
	OpTimestampFromUnix
	OpProcTime

	// Aggregates
	OpSum
	OpMean
	OpMin
	OpMax
	OpCount
	OpCountStar
	OpCountDistinct

	// Analytic functions. The IR ranks are 0-indexed.
	OpRowNumber
	OpMinRank
	OpDenseRank

	// Dialect-native ranks, introduced only by rewrite passes.
	OpNativeRowNumber
	OpNativeRank
	OpNativeDenseRank

	OpWindow

	opCount
)

// Class groups operators by the shape of their result.
type Class int

// Operator classes.
const (
	ClassRelation Class = iota
	ClassScalar
	ClassAggregate
	ClassAnalytic
)

type opInfo struct {
	key     string // canonical snake_case name, used as function table key
	display string // CamelCase name, used by the naming engine
	class   Class
}

var ops = [opCount]opInfo{
	OpTable:     {"table", "Table", ClassRelation},
	OpProject:   {"project", "Project", ClassRelation},
	OpFilter:    {"filter", "Filter", ClassRelation},
	OpAggregate: {"aggregate", "Aggregate", ClassRelation},
	OpDistinct:  {"distinct", "Distinct", ClassRelation},
	OpSort:      {"sort", "Sort", ClassRelation},
	OpLimit:     {"limit", "Limit", ClassRelation},
	OpJoin:      {"join", "Join", ClassRelation},
	OpTumble:    {"tumble", "Tumble", ClassRelation},
	OpHop:       {"hop", "Hop", ClassRelation},

	OpColumn:            {"column", "Column", ClassScalar},
	OpLiteral:           {"literal", "Literal", ClassScalar},
	OpAdd:               {"add", "Add", ClassScalar},
	OpSubtract:          {"subtract", "Subtract", ClassScalar},
	OpMultiply:          {"multiply", "Multiply", ClassScalar},
	OpDivide:            {"divide", "Divide", ClassScalar},
	OpModulo:            {"modulo", "Modulus", ClassScalar},
	OpEquals:            {"equals", "Equals", ClassScalar},
	OpNotEquals:         {"not_equals", "NotEquals", ClassScalar},
	OpLess:              {"less", "Less", ClassScalar},
	OpLessEqual:         {"less_equal", "LessEqual", ClassScalar},
	OpGreater:           {"greater", "Greater", ClassScalar},
	OpGreaterEqual:      {"greater_equal", "GreaterEqual", ClassScalar},
	OpAnd:               {"and", "And", ClassScalar},
	OpOr:                {"or", "Or", ClassScalar},
	OpNot:               {"not", "Not", ClassScalar},
	OpIsNull:            {"is_null", "IsNull", ClassScalar},
	OpNotNull:           {"not_null", "NotNull", ClassScalar},
	OpIsIn:              {"is_in", "IsIn", ClassScalar},
	OpNegate:            {"negate", "Negate", ClassScalar},
	OpAbs:               {"abs", "Abs", ClassScalar},
	OpUpper:             {"upper", "Uppercase", ClassScalar},
	OpLower:             {"lower", "Lowercase", ClassScalar},
	OpLength:            {"length", "StringLength", ClassScalar},
	OpCast:              {"cast", "Cast", ClassScalar},
	OpSearchedCase:      {"searched_case", "SearchedCase", ClassScalar},
	OpSimpleCase:        {"simple_case", "SimpleCase", ClassScalar},
	OpExtract:           {"extract", "Extract", ClassScalar},
	OpTimestampFromUnix: {"timestamp_from_unix", "TimestampFromUNIX", ClassScalar},
	OpProcTime:          {"proctime", "ProcTime", ClassScalar},

	OpSum:           {"sum", "Sum", ClassAggregate},
	OpMean:          {"mean", "Mean", ClassAggregate},
	OpMin:           {"min", "Min", ClassAggregate},
	OpMax:           {"max", "Max", ClassAggregate},
	OpCount:         {"count", "Count", ClassAggregate},
	OpCountStar:     {"count_star", "CountStar", ClassAggregate},
	OpCountDistinct: {"count_distinct", "CountDistinct", ClassAggregate},

	OpRowNumber: {"row_number", "RowNumber", ClassAnalytic},
	OpMinRank:   {"min_rank", "MinRank", ClassAnalytic},
	OpDenseRank: {"dense_rank", "DenseRank", ClassAnalytic},

	OpNativeRowNumber: {"row_number", "RowNumber", ClassAnalytic},
	OpNativeRank:      {"rank", "Rank", ClassAnalytic},
	OpNativeDenseRank: {"dense_rank", "DenseRank", ClassAnalytic},

	OpWindow: {"window", "WindowFunction", ClassScalar},
}

// String returns the canonical snake_case name of the operator.
func (o Op) String() string {
	if o >= 0 && o < opCount {
		return ops[o].key
	}
	return "unknown"
}

// Display returns the CamelCase operator name used in derived names.
func (o Op) Display() string {
	if o >= 0 && o < opCount {
		return ops[o].display
	}
	return "Unknown"
}

// Class returns the operator class.
func (o Op) Class() Class {
	return ops[o].class
}

// IsRelation reports whether the operator produces a relation.
func (o Op) IsRelation() bool { return o.Class() == ClassRelation }

// IsAggregate reports whether the operator is an aggregate function.
func (o Op) IsAggregate() bool { return o.Class() == ClassAggregate }

// IsAnalytic reports whether the operator is a ranking function.
func (o Op) IsAnalytic() bool { return o.Class() == ClassAnalytic }

// IsNativeRank reports whether the operator is a dialect-native ranking call.
func (o Op) IsNativeRank() bool {
	return o == OpNativeRowNumber || o == OpNativeRank || o == OpNativeDenseRank
}

// Native returns the dialect-native counterpart of an IR ranking operator.
func (o Op) Native() (Op, bool) {
	switch o {
	case OpRowNumber:
		return OpNativeRowNumber, true
	case OpMinRank:
		return OpNativeRank, true
	case OpDenseRank:
		return OpNativeDenseRank, true
	default:
		return o, false
	}
}

// isSchemaPreserving reports whether a relation passes its input columns
// through unchanged.
func (o Op) isSchemaPreserving() bool {
	switch o {
	case OpFilter, OpSort, OpLimit, OpDistinct:
		return true
	default:
		return false
	}
}

func isArithmetic(o Op) bool { return o >= OpAdd && o <= OpModulo }

func isComparison(o Op) bool { return o >= OpEquals && o <= OpGreaterEqual }

// ParseOp looks up an operator by its canonical name.
// Native ranking operators are not addressable by name.
func ParseOp(name string) (Op, bool) {
	for i := Op(0); i < opCount; i++ {
		if i.IsNativeRank() {
			continue
		}
		if ops[i].key == name {
			return i, true
		}
	}
	return 0, false
}
