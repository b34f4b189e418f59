package ir

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/xsql/pkg/core"
)

// Name returns the output name of a node: the user-assigned name when
// present, otherwise a name derived purely from the node's structure.
// Derived names are dialect-independent.
func Name(n *Node) string {
	if n.name != "" {
		return n.name
	}
	return derivedName(n.op, n.args, &n.at, n.dtype)
}

// Describe returns a structural description of a node for error messages.
func Describe(n *Node) string {
	if n.op.IsRelation() {
		return relationLabel(n)
	}
	return Name(n)
}

func relationLabel(n *Node) string {
	switch n.op {
	case OpTable:
		return n.at.table
	case OpJoin:
		return "Join(" + relationLabel(n.args[0]) + ", " + relationLabel(n.args[1]) + ")"
	default:
		return n.op.Display() + "(" + relationLabel(n.args[0]) + ")"
	}
}

func derivedName(op Op, args []*Node, at *attrs, dtype DataType) string {
	switch op {
	case OpColumn:
		return at.column
	case OpLiteral:
		return literalRepr(at.value)
	case OpCast:
		return "Cast(" + Name(args[0]) + ", " + at.dtype.Name() + ")"
	case OpSearchedCase, OpSimpleCase:
		return caseName(op, args, at, dtype)
	case OpIsIn:
		return "IsIn(" + Name(args[0]) + ", " + tuple(args[1:]) + ")"
	case OpExtract:
		return "Extract" + camel(at.field) + "(" + Name(args[0]) + ")"
	case OpTimestampFromUnix:
		unit := "s"
		if at.unit == core.TimeUnitMillisecond {
			unit = "ms"
		}
		return op.Display() + "(" + Name(args[0]) + ", " + unit + ")"
	case OpWindow:
		return Name(args[0])
	case OpCountStar:
		return op.Display() + "(" + names(args[1:]) + ")"
	}
	if op.IsRelation() {
		return op.Display()
	}
	return op.Display() + "(" + names(args) + ")"
}

func caseName(op Op, args []*Node, at *attrs, dtype DataType) string {
	var b strings.Builder
	b.WriteString(op.Display())
	b.WriteByte('(')
	start := 0
	if op == OpSimpleCase {
		b.WriteString(Name(args[0]))
		b.WriteString(", ")
		start = 1
	}
	k := at.count
	b.WriteString(tuple(args[start : start+k]))
	b.WriteString(", ")
	b.WriteString(tuple(args[start+k : start+2*k]))
	b.WriteString(", ")
	if len(args) > start+2*k {
		b.WriteString(Name(args[len(args)-1]))
	} else {
		b.WriteString("Cast(NULL, " + dtype.Name() + ")")
	}
	b.WriteByte(')')
	return b.String()
}

func names(args []*Node) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = Name(a)
	}
	return strings.Join(parts, ", ")
}

func tuple(args []*Node) string {
	return "(" + names(args) + ")"
}

func literalRepr(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return "'" + x + "'"
	case Interval:
		return "Interval(" + strconv.FormatInt(x.Value, 10) + ", " + x.Unit.String() + ")"
	default:
		return "?"
	}
}

// camel converts week_of_year to WeekOfYear.
func camel(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "")
}

// Scope assigns collision-free output names within one emission scope.
type Scope struct {
	owners map[string]*Node
}

// NewScope creates an empty naming scope.
func NewScope() *Scope {
	return &Scope{owners: make(map[string]*Node)}
}

// Assign returns the output name of n within the scope. Identical nodes
// share a name, so assigning the same node twice is a duplicate column.
// A structurally distinct node whose derived name is taken receives a
// digest suffix; a taken user-assigned name is an error.
func (s *Scope) Assign(n *Node) (string, error) {
	name := Name(n)
	owner, taken := s.owners[name]
	if !taken {
		s.owners[name] = n
		return name, nil
	}
	if owner == n || n.name != "" {
		return "", &core.SchemaResolutionError{Ref: name, Table: "projection", Node: Describe(n), Message: core.ErrMsgDuplicateColumn}
	}
	suffixed := name + "_" + n.digest[:8]
	if _, clash := s.owners[suffixed]; clash {
		return "", &core.SchemaResolutionError{Ref: suffixed, Table: "projection", Node: Describe(n), Message: core.ErrMsgDuplicateColumn}
	}
	s.owners[suffixed] = n
	return suffixed, nil
}
