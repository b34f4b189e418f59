package ir

import (
	"fmt"

	"github.com/leapstack-labs/xsql/pkg/core"
)

// Window relation columns added by tumble and hop.
const (
	WindowStart = "window_start"
	WindowEnd   = "window_end"
)

// Extract fields. Date fields need a date or timestamp operand, time
// fields a time or timestamp operand.
var extractFields = map[string]bool{
	"year":         true,
	"quarter":      true,
	"month":        true,
	"week_of_year": true,
	"day_of_year":  true,
	"day":          true,
	"day_of_week":  true,
	"hour":         false,
	"minute":       false,
	"second":       false,
	"millisecond":  false,
}

// IsExtractField reports whether f is a supported extract field.
func IsExtractField(f string) bool {
	_, ok := extractFields[f]
	return ok
}

// Check re-derives the type and schema of n from its operands. It is the
// single implementation of the type rules, shared by construction and the
// resolver.
func Check(n *Node) (DataType, *Schema, error) {
	return derive(n.op, n.args, &n.at)
}

func mismatch(op Op, args []*Node, at *attrs, format string, a ...any) error {
	operands := make([]string, 0, len(args))
	for _, arg := range args {
		if arg.op.IsRelation() {
			operands = append(operands, relationLabel(arg))
			continue
		}
		operands = append(operands, arg.dtype.String())
	}
	return &core.TypeMismatchError{
		Op:       op.String(),
		Node:     derivedName(op, args, at, DataType{}),
		Operands: operands,
		Message:  fmt.Sprintf(format, a...),
	}
}

func nullable(args ...*Node) bool {
	for _, a := range args {
		if !a.dtype.NotNull {
			return true
		}
	}
	return false
}

func derive(op Op, args []*Node, at *attrs) (DataType, *Schema, error) {
	if op.IsRelation() {
		s, err := deriveSchema(op, args, at)
		return DataType{}, s, err
	}
	for _, arg := range args {
		if arg.op.IsRelation() && op != OpColumn && op != OpCountStar {
			return DataType{}, nil, mismatch(op, nil, at, "relation %s used as a value", relationLabel(arg))
		}
	}
	t, err := deriveType(op, args, at)
	return t, nil, err
}

func deriveType(op Op, args []*Node, at *attrs) (DataType, error) {
	fail := func(format string, a ...any) (DataType, error) {
		return DataType{}, mismatch(op, args, at, format, a...)
	}
	arity := func(n int) bool { return len(args) == n }

	switch {
	case op == OpColumn:
		rel := args[0]
		f, ok := rel.schema.Lookup(at.column)
		if !ok {
			return DataType{}, &core.SchemaResolutionError{Ref: at.column, Table: relationLabel(rel), Message: core.ErrMsgColumnNotFound}
		}
		return f.Type, nil

	case op == OpLiteral:
		return at.dtype, nil

	case isArithmetic(op):
		if !arity(2) {
			return fail("expected 2 operands")
		}
		return arithmeticType(op, args[0].dtype, args[1].dtype, nullable(args...), fail)

	case isComparison(op):
		if !arity(2) {
			return fail("expected 2 operands")
		}
		l, r := args[0].dtype, args[1].dtype
		if !isComparable(l, r) {
			return fail("operands are not comparable")
		}
		if op != OpEquals && op != OpNotEquals && (l.IsBoolean() || r.IsBoolean()) {
			return fail("booleans are not ordered")
		}
		return DataType{Kind: KindBoolean, NotNull: !nullable(args...)}, nil

	case op == OpAnd || op == OpOr:
		if !arity(2) {
			return fail("expected 2 operands")
		}
		for _, a := range args {
			if !a.dtype.IsBoolean() && !a.dtype.IsNull() {
				return fail("operands must be boolean")
			}
		}
		return DataType{Kind: KindBoolean, NotNull: !nullable(args...)}, nil

	case op == OpNot:
		if !arity(1) || !(args[0].dtype.IsBoolean() || args[0].dtype.IsNull()) {
			return fail("operand must be boolean")
		}
		return DataType{Kind: KindBoolean, NotNull: args[0].dtype.NotNull}, nil

	case op == OpIsNull || op == OpNotNull:
		if !arity(1) {
			return fail("expected 1 operand")
		}
		return Boolean.NonNull(), nil

	case op == OpIsIn:
		if len(args) < 2 {
			return fail("expected a value and at least one candidate")
		}
		for _, v := range args[1:] {
			if !isComparable(args[0].dtype, v.dtype) {
				return fail("candidate %s is not comparable with %s", v.dtype, args[0].dtype)
			}
		}
		return DataType{Kind: KindBoolean, NotNull: !nullable(args...)}, nil

	case op == OpNegate || op == OpAbs:
		if !arity(1) {
			return fail("expected 1 operand")
		}
		t := args[0].dtype
		if !t.IsNumeric() && !(op == OpNegate && t.Kind == KindInterval) {
			return fail("operand must be numeric")
		}
		return t, nil

	case op == OpUpper || op == OpLower:
		if !arity(1) || args[0].dtype.Kind != KindString {
			return fail("operand must be a string")
		}
		return args[0].dtype, nil

	case op == OpLength:
		if !arity(1) || args[0].dtype.Kind != KindString {
			return fail("operand must be a string")
		}
		return DataType{Kind: KindInt32, NotNull: args[0].dtype.NotNull}, nil

	case op == OpCast:
		if !arity(1) {
			return fail("expected 1 operand")
		}
		if !castable(args[0].dtype, at.dtype) {
			return fail("cannot cast %s to %s", args[0].dtype, at.dtype)
		}
		return DataType{Kind: at.dtype.Kind, NotNull: args[0].dtype.NotNull}, nil

	case op == OpSearchedCase || op == OpSimpleCase:
		return caseType(op, args, at, fail)

	case op == OpExtract:
		if !arity(1) {
			return fail("expected 1 operand")
		}
		dateField, ok := extractFields[at.field]
		if !ok {
			return fail("unknown field %q", at.field)
		}
		k := args[0].dtype.Kind
		valid := k == KindTimestamp || (dateField && k == KindDate) || (!dateField && k == KindTime)
		if !valid {
			return fail("cannot extract %s from %s", at.field, args[0].dtype)
		}
		return DataType{Kind: KindInt32, NotNull: args[0].dtype.NotNull}, nil

	case op == OpTimestampFromUnix:
		if !arity(1) || !args[0].dtype.IsInteger() {
			return fail("operand must be an integer")
		}
		if at.unit != core.TimeUnitSecond && at.unit != core.TimeUnitMillisecond {
			return fail("unit must be seconds or milliseconds")
		}
		return DataType{Kind: KindTimestamp, NotNull: args[0].dtype.NotNull}, nil

	case op == OpProcTime:
		if !arity(0) {
			return fail("expected no operands")
		}
		return Timestamp.NonNull(), nil

	case op.IsAggregate():
		return aggregateType(op, args, fail)

	case op.IsAnalytic():
		if !arity(0) {
			return fail("expected no operands")
		}
		return Int64.NonNull(), nil

	case op == OpWindow:
		return windowType(args, at, fail)
	}
	return fail("unknown operator")
}

type failFunc func(format string, a ...any) (DataType, error)

func arithmeticType(op Op, l, r DataType, null bool, fail failFunc) (DataType, error) {
	out := func(k Kind) (DataType, error) { return DataType{Kind: k, NotNull: !null}, nil }
	switch {
	case l.IsNull() && r.IsNull():
		return out(KindNull)
	case l.IsNumeric() && (r.IsNumeric() || r.IsNull()), r.IsNumeric() && l.IsNull():
		if op == OpDivide {
			return out(KindFloat64)
		}
		k := promoteNumeric(l.Kind, r.Kind)
		if l.IsNull() {
			k = r.Kind
		} else if r.IsNull() {
			k = l.Kind
		}
		return out(k)
	case (op == OpAdd || op == OpSubtract) && l.IsTemporal() && r.Kind == KindInterval:
		return out(l.Kind)
	case op == OpAdd && l.Kind == KindInterval && r.IsTemporal():
		return out(r.Kind)
	case op == OpSubtract && l.Kind == KindTimestamp && r.Kind == KindTimestamp:
		return out(KindInterval)
	case (op == OpAdd || op == OpSubtract) && l.Kind == KindInterval && r.Kind == KindInterval:
		return out(KindInterval)
	}
	return fail("operands must be numeric")
}

func castable(from, to DataType) bool {
	switch {
	case from.IsNull(), from.Kind == to.Kind:
		return true
	case to.IsNull():
		return false
	case from.Kind == KindString || to.Kind == KindString:
		return true
	case from.IsNumeric() && to.IsNumeric():
		return true
	case from.IsBoolean() && to.IsInteger(), from.IsInteger() && to.IsBoolean():
		return true
	case from.IsTemporal() && to.IsTemporal():
		return !(from.Kind == KindTime || to.Kind == KindTime) || from.Kind == KindTimestamp
	}
	return false
}

func caseType(op Op, args []*Node, at *attrs, fail failFunc) (DataType, error) {
	start := 0
	if op == OpSimpleCase {
		start = 1
	}
	k := at.count
	if k < 1 || len(args) < start+2*k || len(args) > start+2*k+1 {
		return fail("malformed case: %d branches over %d operands", k, len(args))
	}
	for _, w := range args[start : start+k] {
		if op == OpSearchedCase {
			if !w.dtype.IsBoolean() && !w.dtype.IsNull() {
				return fail("case condition %s must be boolean", Name(w))
			}
		} else if !isComparable(args[0].dtype, w.dtype) {
			return fail("case value %s is not comparable with %s", Name(w), args[0].dtype)
		}
	}
	results := args[start+k:]
	t := results[0].dtype
	for _, r := range results[1:] {
		c, ok := commonType(t, r.dtype)
		if !ok {
			return fail("case results %s and %s have no common type", t, r.dtype)
		}
		t = c
	}
	if t.IsNull() {
		return fail("case results are all NULL; cast one of them to give the case a type")
	}
	if len(args) == start+2*k {
		// a missing default yields NULL
		t.NotNull = false
	}
	return t, nil
}

func aggregateType(op Op, args []*Node, fail failFunc) (DataType, error) {
	if len(args) < 1 || len(args) > 2 {
		return fail("expected a value and an optional filter")
	}
	if len(args) == 2 {
		w := args[1]
		if !w.dtype.IsBoolean() {
			return fail("aggregate filter must be boolean")
		}
		if w.fl != 0 {
			return fail("aggregate filter cannot contain aggregates or window functions")
		}
	}
	if op == OpCountStar {
		if !args[0].op.IsRelation() {
			return fail("count_star counts the rows of a relation")
		}
		return Int64.NonNull(), nil
	}
	v := args[0]
	if v.fl != 0 {
		return fail("nested aggregates and window functions are not allowed")
	}
	t := v.dtype
	switch op {
	case OpSum:
		switch {
		case t.IsInteger():
			return Int64, nil
		case t.IsFloating():
			return Float64, nil
		case t.Kind == KindDecimal:
			return Decimal, nil
		}
		return fail("sum requires a numeric operand")
	case OpMean:
		switch {
		case t.Kind == KindDecimal:
			return Decimal, nil
		case t.IsNumeric():
			return Float64, nil
		}
		return fail("mean requires a numeric operand")
	case OpMin, OpMax:
		if !orderable(t) && !t.IsBoolean() {
			return fail("%s requires an orderable operand", op)
		}
		return t.AsNullable(), nil
	default:
		return Int64.NonNull(), nil
	}
}

func windowType(args []*Node, at *attrs, fail failFunc) (DataType, error) {
	if len(args) < 1 {
		return fail("missing window function")
	}
	fn := args[0]
	if !fn.op.IsAggregate() && !fn.op.IsAnalytic() {
		return fail("%s is not an aggregate or ranking function", Name(fn))
	}
	for _, k := range args[1:] {
		if k.fl != 0 {
			return fail("window keys cannot contain aggregates or window functions")
		}
	}
	if len(args) != 1+at.count+len(at.desc) {
		return fail("malformed window specification")
	}
	if at.frame != nil {
		spec := WindowSpec{Frame: at.frame}
		for i, d := range at.desc {
			spec.OrderBy = append(spec.OrderBy, SortKey{Expr: args[1+at.count+i], Desc: d})
		}
		desc := derivedName(OpWindow, args, at, fn.dtype)
		if fn.op.IsAnalytic() {
			return DataType{}, &core.WindowSpecError{Node: desc, Message: core.ErrMsgRankingFrame}
		}
		if msg := at.frame.validate(spec.OrderBy); msg != "" {
			return DataType{}, &core.WindowSpecError{Node: desc, Message: msg}
		}
	}
	return fn.dtype, nil
}

func deriveSchema(op Op, args []*Node, at *attrs) (*Schema, error) {
	fail := func(format string, a ...any) (*Schema, error) {
		return nil, mismatch(op, args, at, format, a...)
	}
	if op != OpTable && (len(args) == 0 || !args[0].op.IsRelation()) {
		return fail("missing input relation")
	}

	switch op {
	case OpTable:
		if at.schema == nil {
			return fail("table %s has no schema", at.table)
		}
		if w := at.watermark; w != nil {
			f, ok := at.schema.Lookup(w.TimeCol)
			if !ok {
				return nil, &core.WatermarkError{Table: at.table, Column: w.TimeCol, Message: core.ErrMsgMissingTimeCol}
			}
			if !f.Type.IsTemporal() {
				return nil, &core.WatermarkError{Table: at.table, Column: w.TimeCol, Message: core.ErrMsgNotTimeTyped}
			}
		}
		return at.schema, nil

	case OpProject:
		if len(args) < 2 {
			return fail("projection needs at least one expression")
		}
		for _, e := range args[1:] {
			if err := checkValue(op, e, false); err != nil {
				return nil, err
			}
		}
		return scopedSchema(args[1:])

	case OpFilter:
		if len(args) < 2 {
			return fail("filter needs at least one predicate")
		}
		for _, p := range args[1:] {
			if err := checkValue(op, p, false); err != nil {
				return nil, err
			}
			if p.fl&flagWindow != 0 {
				return fail("window function %s in a filter predicate", Name(p))
			}
			if !p.dtype.IsBoolean() {
				return fail("predicate %s must be boolean", Name(p))
			}
		}
		return args[0].schema, nil

	case OpAggregate:
		keys := args[1 : 1+at.count]
		end := len(args) - at.having
		if end < 1+at.count {
			return fail("malformed aggregation")
		}
		metrics := args[1+at.count : end]
		if len(keys)+len(metrics) == 0 {
			return fail("aggregation needs keys or metrics")
		}
		for _, k := range keys {
			if k.fl != 0 {
				return fail("group key %s cannot contain aggregates or window functions", Name(k))
			}
		}
		for _, m := range metrics {
			if m.fl&flagAggregate == 0 || m.fl&(flagAnalytic|flagWindow) != 0 {
				return fail("metric %s must be an aggregate", Name(m))
			}
		}
		for _, h := range args[end:] {
			if !h.dtype.IsBoolean() || h.fl&(flagAnalytic|flagWindow) != 0 {
				return fail("having predicate %s must be a boolean aggregate condition", Name(h))
			}
		}
		return scopedSchema(args[1:end])

	case OpDistinct:
		return args[0].schema, nil

	case OpLimit:
		if at.limit < 0 || at.offset < 0 {
			return fail("limit and offset must be non-negative")
		}
		return args[0].schema, nil

	case OpSort:
		if len(args) < 2 || len(args)-1 != len(at.desc) {
			return fail("sort needs at least one key")
		}
		for _, k := range args[1:] {
			if err := checkValue(op, k, false); err != nil {
				return nil, err
			}
			if k.fl&flagWindow != 0 {
				return fail("window function %s in a sort key", Name(k))
			}
			if !orderable(k.dtype) && !k.dtype.IsBoolean() {
				return fail("sort key %s is not orderable", Name(k))
			}
		}
		return args[0].schema, nil

	case OpJoin:
		if len(args) < 2 || !args[1].op.IsRelation() {
			return fail("join needs two relations")
		}
		for _, p := range args[2:] {
			if p.fl != 0 || !p.dtype.IsBoolean() {
				return fail("join predicate %s must be a plain boolean expression", Name(p))
			}
		}
		return joinSchema(args[0], args[1])

	case OpTumble, OpHop:
		p := args[0]
		f, ok := p.schema.Lookup(at.timeCol)
		if !ok {
			return nil, &core.SchemaResolutionError{Ref: at.timeCol, Table: relationLabel(p), Message: core.ErrMsgColumnNotFound}
		}
		if f.Type.Kind != KindTimestamp {
			return fail("window time column %s must be a timestamp", at.timeCol)
		}
		if at.size.Value <= 0 || (op == OpHop && at.slide.Value <= 0) {
			return fail("window size and slide must be positive")
		}
		fields := p.schema.Fields()
		for _, name := range []string{WindowStart, WindowEnd} {
			fields = append(fields, Field{Name: name, Type: Timestamp.NonNull()})
		}
		return NewSchema(fields...)
	}
	return fail("unknown relation")
}

// checkValue rejects aggregates and bare ranking functions outside an
// aggregation or a window.
func checkValue(op Op, e *Node, allowAggregate bool) error {
	if e.op.IsRelation() {
		return &core.TypeMismatchError{Op: op.String(), Node: relationLabel(e), Message: "relation used as a value"}
	}
	if e.fl&flagAnalytic != 0 {
		return &core.TypeMismatchError{Op: op.String(), Node: Name(e), Message: "ranking function outside of a window"}
	}
	if !allowAggregate && e.fl&flagAggregate != 0 {
		return &core.TypeMismatchError{Op: op.String(), Node: Name(e), Message: "aggregate outside of an aggregation or window"}
	}
	return nil
}

func scopedSchema(exprs []*Node) (*Schema, error) {
	scope := NewScope()
	fields := make([]Field, len(exprs))
	for i, e := range exprs {
		name, err := scope.Assign(e)
		if err != nil {
			return nil, err
		}
		fields[i] = Field{Name: name, Type: e.dtype}
	}
	return NewSchema(fields...)
}

// JoinSuffix is appended to right-side columns whose names collide.
const JoinSuffix = "_right"

// joinRenames maps colliding right-side column names to their output names.
func joinRenames(left, right *Node) map[string]string {
	taken := make(map[string]bool, left.schema.Len()+right.schema.Len())
	for _, n := range left.schema.Names() {
		taken[n] = true
	}
	for _, n := range right.schema.Names() {
		if !left.schema.Has(n) {
			taken[n] = true
		}
	}
	renames := make(map[string]string)
	for _, n := range right.schema.Names() {
		if !left.schema.Has(n) {
			continue
		}
		out := n + JoinSuffix
		for taken[out] {
			out += JoinSuffix
		}
		taken[out] = true
		renames[n] = out
	}
	return renames
}

func joinSchema(left, right *Node) (*Schema, error) {
	renames := joinRenames(left, right)
	fields := left.schema.Fields()
	for _, f := range right.schema.Fields() {
		if out, ok := renames[f.Name]; ok {
			f.Name = out
		}
		fields = append(fields, f)
	}
	return NewSchema(fields...)
}

// derefTarget says where a visible relation's columns appear in a consumer's input.
type derefTarget struct {
	rel    *Node
	rename map[string]string
}

// provenance maps every relation whose columns flow unchanged into p's
// output onto p, along with any join renames on the way up.
func provenance(p *Node, into map[int]derefTarget) {
	var walk func(x *Node, rename map[string]string)
	walk = func(x *Node, rename map[string]string) {
		if _, seen := into[x.id]; seen {
			return
		}
		into[x.id] = derefTarget{rel: p, rename: rename}
		switch {
		case x.op.isSchemaPreserving(), x.op == OpTumble, x.op == OpHop:
			walk(x.args[0], rename)
		case x.op == OpJoin:
			walk(x.args[0], rename)
			jr := joinRenames(x.args[0], x.args[1])
			composed := make(map[string]string, len(jr))
			for _, n := range x.args[1].schema.Names() {
				out := n
				if r, ok := jr[n]; ok {
					out = r
				}
				if r, ok := rename[out]; ok {
					out = r
				}
				if out != n {
					composed[n] = out
				}
			}
			walk(x.args[1], composed)
		}
	}
	walk(p, nil)
}

// Lineage returns the relations whose columns are visible through rel,
// starting with rel itself.
func Lineage(rel *Node) []*Node {
	targets := make(map[int]derefTarget)
	var out []*Node
	var walk func(x *Node)
	walk = func(x *Node) {
		if _, seen := targets[x.id]; seen {
			return
		}
		targets[x.id] = derefTarget{}
		out = append(out, x)
		switch {
		case x.op.isSchemaPreserving(), x.op == OpTumble, x.op == OpHop:
			walk(x.args[0])
		case x.op == OpJoin:
			walk(x.args[0])
			walk(x.args[1])
		}
	}
	walk(rel)
	return out
}

// deref points every column reference in a consumer's scalar operands at
// the consumer's immediate input (or join side).
func (a *Arena) deref(op Op, args []*Node) ([]*Node, error) {
	var inputs int
	switch op {
	case OpProject, OpFilter, OpAggregate, OpSort:
		inputs = 1
	case OpJoin:
		inputs = 2
	default:
		return args, nil
	}
	if len(args) < inputs {
		return args, nil
	}
	targets := make(map[int]derefTarget)
	label := relationLabel(args[0])
	for _, in := range args[:inputs] {
		if !in.op.IsRelation() {
			return args, nil
		}
		side := make(map[int]derefTarget)
		provenance(in, side)
		for id, t := range side {
			if _, dup := targets[id]; dup {
				return nil, &core.SchemaResolutionError{Ref: relationLabel(in), Table: label, Message: "relation appears on both sides of the join"}
			}
			targets[id] = t
		}
	}
	if op == OpJoin {
		label = "Join(" + relationLabel(args[0]) + ", " + relationLabel(args[1]) + ")"
	}

	out := make([]*Node, len(args))
	copy(out, args[:inputs])
	memo := make(map[int]*Node)
	for i := inputs; i < len(args); i++ {
		e, err := a.derefExpr(args[i], targets, memo, label)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (a *Arena) derefExpr(e *Node, targets map[int]derefTarget, memo map[int]*Node, label string) (*Node, error) {
	if e.op.IsRelation() {
		return e, nil
	}
	if out, ok := memo[e.id]; ok {
		return out, nil
	}
	var out *Node
	var err error
	switch e.op {
	case OpColumn:
		t, ok := targets[e.args[0].id]
		if !ok {
			return nil, &core.SchemaResolutionError{Ref: e.at.column, Table: label, Node: relationLabel(e.args[0]), Message: "column belongs to a relation outside the enclosing table"}
		}
		col := e.at.column
		if r, ok := t.rename[col]; ok {
			col = r
		}
		if t.rel == e.args[0] && col == e.at.column {
			out = e
			break
		}
		at := e.at
		at.column = col
		out, err = a.make(OpColumn, []*Node{t.rel}, at, e.name)
	default:
		args := make([]*Node, len(e.args))
		for i, arg := range e.args {
			if e.op == OpCountStar && i == 0 {
				t, ok := targets[arg.id]
				if !ok {
					return nil, &core.SchemaResolutionError{Ref: "*", Table: label, Node: relationLabel(arg), Message: "count_star over a relation outside the enclosing table"}
				}
				args[i] = t.rel
				continue
			}
			if args[i], err = a.derefExpr(arg, targets, memo, label); err != nil {
				return nil, err
			}
		}
		out, err = a.Rebuild(e, args)
	}
	if err != nil {
		return nil, err
	}
	memo[e.id] = out
	return out, nil
}
