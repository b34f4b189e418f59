package graphfile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/ir"
	"gopkg.in/yaml.v3"
)

// scalarOps maps operator keys to plain scalar operators. Short comparison
// spellings are accepted alongside the canonical names.
var scalarOps = map[string]ir.Op{
	"add":           ir.OpAdd,
	"subtract":      ir.OpSubtract,
	"multiply":      ir.OpMultiply,
	"divide":        ir.OpDivide,
	"modulo":        ir.OpModulo,
	"equals":        ir.OpEquals,
	"eq":            ir.OpEquals,
	"not_equals":    ir.OpNotEquals,
	"ne":            ir.OpNotEquals,
	"less":          ir.OpLess,
	"lt":            ir.OpLess,
	"less_equal":    ir.OpLessEqual,
	"le":            ir.OpLessEqual,
	"greater":       ir.OpGreater,
	"gt":            ir.OpGreater,
	"greater_equal": ir.OpGreaterEqual,
	"ge":            ir.OpGreaterEqual,
	"and":           ir.OpAnd,
	"or":            ir.OpOr,
	"not":           ir.OpNot,
	"is_null":       ir.OpIsNull,
	"not_null":      ir.OpNotNull,
	"is_in":         ir.OpIsIn,
	"negate":        ir.OpNegate,
	"abs":           ir.OpAbs,
	"upper":         ir.OpUpper,
	"lower":         ir.OpLower,
	"length":        ir.OpLength,
}

var aggOps = map[string]ir.Op{
	"sum":            ir.OpSum,
	"mean":           ir.OpMean,
	"avg":            ir.OpMean,
	"min":            ir.OpMin,
	"max":            ir.OpMax,
	"count":          ir.OpCount,
	"count_distinct": ir.OpCountDistinct,
}

var rankOps = map[string]ir.Op{
	"row_number": ir.OpRowNumber,
	"min_rank":   ir.OpMinRank,
	"rank":       ir.OpMinRank,
	"dense_rank": ir.OpDenseRank,
}

type castSpec struct {
	Expr yaml.Node `yaml:"expr"`
	To   string    `yaml:"to"`
}

type extractSpec struct {
	Expr  yaml.Node `yaml:"expr"`
	Field string    `yaml:"field"`
}

type fromUnixSpec struct {
	Expr yaml.Node `yaml:"expr"`
	Unit string    `yaml:"unit"`
}

type whenSpec struct {
	When yaml.Node `yaml:"when"`
	Then yaml.Node `yaml:"then"`
}

type caseSpec struct {
	On    *yaml.Node `yaml:"on"`
	Cases []whenSpec `yaml:"cases"`
	Else  *yaml.Node `yaml:"else"`
}

type aggSpec struct {
	Of    yaml.Node  `yaml:"of"`
	Where *yaml.Node `yaml:"where"`
}

type frameSpec struct {
	Rows  []string `yaml:"rows"`
	Range []string `yaml:"range"`
}

type overSpec struct {
	Fn          yaml.Node   `yaml:"fn"`
	PartitionBy []yaml.Node `yaml:"partition_by"`
	OrderBy     []OrderKey  `yaml:"order_by"`
	Frame       *frameSpec  `yaml:"frame"`
}

// builder turns expression nodes into IR scalars over rel, and over right
// inside join predicates.
type builder struct {
	a     *ir.Arena
	rel   *ir.Node
	right *ir.Node
}

func at(n *yaml.Node, err error) error {
	return fmt.Errorf("line %d: %w", n.Line, err)
}

func (b *builder) expr(n *yaml.Node) (*ir.Node, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return b.literal(n)
	case yaml.MappingNode:
	default:
		return nil, at(n, fmt.Errorf("expected a literal or an operator mapping"))
	}

	var (
		name    string
		keys    []string
		key     string
		operand *yaml.Node
	)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i].Value, n.Content[i+1]
		if k == "as" {
			name = v.Value
			continue
		}
		keys = append(keys, k)
		key, operand = k, v
	}
	if len(keys) != 1 {
		sort.Strings(keys)
		return nil, at(n, fmt.Errorf("expected one operator, got [%s]", strings.Join(keys, ", ")))
	}

	e, err := b.operator(key, operand)
	if err != nil {
		return nil, err
	}
	if name != "" {
		if e, err = b.a.Alias(e, name); err != nil {
			return nil, at(n, err)
		}
	}
	return e, nil
}

func (b *builder) literal(n *yaml.Node) (*ir.Node, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, at(n, err)
	}
	e, err := b.a.Literal(v)
	if err != nil {
		return nil, at(n, err)
	}
	return e, nil
}

// operands reads v as a list of expressions; a non-sequence is a single
// operand.
func (b *builder) operands(v *yaml.Node) ([]*ir.Node, error) {
	if v.Kind != yaml.SequenceNode {
		e, err := b.expr(v)
		if err != nil {
			return nil, err
		}
		return []*ir.Node{e}, nil
	}
	return b.exprs(derefNodes(v.Content))
}

func derefNodes(ptrs []*yaml.Node) []yaml.Node {
	out := make([]yaml.Node, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}

func (b *builder) operator(key string, v *yaml.Node) (*ir.Node, error) {
	if op, ok := scalarOps[key]; ok {
		args, err := b.operands(v)
		if err != nil {
			return nil, err
		}
		e, err := b.a.Scalar(op, args...)
		if err != nil {
			return nil, at(v, err)
		}
		return e, nil
	}
	if op, ok := aggOps[key]; ok {
		return b.agg(op, v)
	}
	if op, ok := rankOps[key]; ok {
		e, err := b.a.Rank(op)
		if err != nil {
			return nil, at(v, err)
		}
		return e, nil
	}

	var (
		e, x, where *ir.Node
		err         error
	)
	switch key {
	case "col":
		e, err = b.a.Column(b.rel, v.Value)
	case "right":
		if b.right == nil {
			return nil, at(v, fmt.Errorf("right: only valid in join predicates"))
		}
		e, err = b.a.Column(b.right, v.Value)
	case "interval":
		var iv ir.Interval
		if iv, err = ir.ParseInterval(v.Value); err == nil {
			e, err = b.a.Literal(iv)
		}
	case "proctime":
		e, err = b.a.ProcTime()
	case "count_star":
		var spec struct {
			Where *yaml.Node `yaml:"where"`
		}
		if err := v.Decode(&spec); err != nil {
			return nil, at(v, err)
		}
		if where, err = b.optional(spec.Where); err != nil {
			return nil, err
		}
		e, err = b.a.CountStar(b.rel, where)
	case "cast":
		var spec castSpec
		if err := v.Decode(&spec); err != nil {
			return nil, at(v, err)
		}
		if x, err = b.expr(&spec.Expr); err != nil {
			return nil, err
		}
		var typ ir.DataType
		if typ, err = ir.ParseDataType(spec.To); err == nil {
			e, err = b.a.Cast(x, typ)
		}
	case "extract":
		var spec extractSpec
		if err := v.Decode(&spec); err != nil {
			return nil, at(v, err)
		}
		if x, err = b.expr(&spec.Expr); err != nil {
			return nil, err
		}
		e, err = b.a.Extract(x, spec.Field)
	case "from_unix":
		var spec fromUnixSpec
		if err := v.Decode(&spec); err != nil {
			return nil, at(v, err)
		}
		if x, err = b.expr(&spec.Expr); err != nil {
			return nil, err
		}
		unit, ok := core.ParseTimeUnit(spec.Unit)
		if !ok {
			return nil, at(v, fmt.Errorf("unknown time unit %q", spec.Unit))
		}
		e, err = b.a.TimestampFromUnix(x, unit)
	case "case":
		return b.caseExpr(v)
	case "over":
		return b.over(v)
	default:
		return nil, at(v, fmt.Errorf("unknown operator %q", key))
	}
	if err != nil {
		return nil, at(v, err)
	}
	return e, nil
}

func (b *builder) optional(n *yaml.Node) (*ir.Node, error) {
	if n == nil {
		return nil, nil
	}
	return b.expr(n)
}

// agg reads either a bare operand or {of: x, where: cond}.
func (b *builder) agg(op ir.Op, v *yaml.Node) (*ir.Node, error) {
	operand, cond := v, (*yaml.Node)(nil)
	if v.Kind == yaml.MappingNode && hasKey(v, "of") {
		var spec aggSpec
		if err := v.Decode(&spec); err != nil {
			return nil, at(v, err)
		}
		operand, cond = &spec.Of, spec.Where
	}
	x, err := b.expr(operand)
	if err != nil {
		return nil, err
	}
	where, err := b.optional(cond)
	if err != nil {
		return nil, err
	}
	e, err := b.a.Agg(op, x, where)
	if err != nil {
		return nil, at(v, err)
	}
	return e, nil
}

func hasKey(n *yaml.Node, key string) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}

func (b *builder) caseExpr(v *yaml.Node) (*ir.Node, error) {
	var spec caseSpec
	if err := v.Decode(&spec); err != nil {
		return nil, at(v, err)
	}
	whens := make([]*ir.Node, len(spec.Cases))
	thens := make([]*ir.Node, len(spec.Cases))
	for i := range spec.Cases {
		var err error
		if whens[i], err = b.expr(&spec.Cases[i].When); err != nil {
			return nil, err
		}
		if thens[i], err = b.expr(&spec.Cases[i].Then); err != nil {
			return nil, err
		}
	}
	def, err := b.optional(spec.Else)
	if err != nil {
		return nil, err
	}

	var e *ir.Node
	if spec.On != nil {
		base, err := b.expr(spec.On)
		if err != nil {
			return nil, err
		}
		e, err = b.a.SimpleCase(base, whens, thens, def)
		if err != nil {
			return nil, at(v, err)
		}
		return e, nil
	}
	e, err = b.a.SearchedCase(whens, thens, def)
	if err != nil {
		return nil, at(v, err)
	}
	return e, nil
}

func (b *builder) over(v *yaml.Node) (*ir.Node, error) {
	var spec overSpec
	if err := v.Decode(&spec); err != nil {
		return nil, at(v, err)
	}
	fn, err := b.expr(&spec.Fn)
	if err != nil {
		return nil, err
	}
	var ws ir.WindowSpec
	if ws.PartitionBy, err = b.exprs(spec.PartitionBy); err != nil {
		return nil, err
	}
	for i := range spec.OrderBy {
		k, err := b.expr(&spec.OrderBy[i].Expr)
		if err != nil {
			return nil, err
		}
		ws.OrderBy = append(ws.OrderBy, ir.SortKey{Expr: k, Desc: spec.OrderBy[i].Desc})
	}
	if spec.Frame != nil {
		if ws.Frame, err = parseFrame(spec.Frame); err != nil {
			return nil, at(v, err)
		}
	}
	e, err := b.a.Window(fn, ws)
	if err != nil {
		return nil, at(v, err)
	}
	return e, nil
}

func parseFrame(f *frameSpec) (*ir.Frame, error) {
	bounds, build := f.Rows, ir.Rows
	if f.Range != nil {
		if f.Rows != nil {
			return nil, fmt.Errorf("frame: rows and range are exclusive")
		}
		bounds, build = f.Range, ir.Range
	}
	if len(bounds) != 2 {
		return nil, fmt.Errorf("frame: expected [lower, upper], got %d bounds", len(bounds))
	}
	lower, err := parseBound(bounds[0])
	if err != nil {
		return nil, err
	}
	upper, err := parseBound(bounds[1])
	if err != nil {
		return nil, err
	}
	return build(lower, upper), nil
}

// parseBound parses "unbounded preceding", "current row", "3 preceding"
// and "5m following".
func parseBound(s string) (ir.Bound, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "unbounded preceding":
		return ir.UnboundedPreceding(), nil
	case "unbounded following":
		return ir.UnboundedFollowing(), nil
	case "current row":
		return ir.CurrentRow(), nil
	}
	amount, dir, ok := cutLast(s)
	if !ok || (dir != "preceding" && dir != "following") {
		return ir.Bound{}, fmt.Errorf("invalid frame bound %q", s)
	}
	if n, err := strconv.ParseInt(amount, 10, 64); err == nil {
		if dir == "preceding" {
			return ir.Preceding(n), nil
		}
		return ir.Following(n), nil
	}
	iv, err := ir.ParseInterval(amount)
	if err != nil {
		return ir.Bound{}, fmt.Errorf("invalid frame bound %q: %w", s, err)
	}
	if dir == "preceding" {
		return ir.PrecedingInterval(iv), nil
	}
	return ir.FollowingInterval(iv), nil
}

func cutLast(s string) (rest, last string, ok bool) {
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:i]), s[i+1:], true
}
