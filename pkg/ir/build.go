package ir

import (
	"fmt"

	"github.com/leapstack-labs/xsql/pkg/core"
)

// Table creates an unbound table reference.
func (a *Arena) Table(name string, schema *Schema, opts ...TableOption) (*Node, error) {
	at := attrs{table: name, schema: schema}
	for _, opt := range opts {
		opt(&at)
	}
	return a.make(OpTable, nil, at, "")
}

// Column references a column of rel by name.
func (a *Arena) Column(rel *Node, name string) (*Node, error) {
	if rel == nil || !rel.op.IsRelation() {
		return nil, &core.SchemaResolutionError{Ref: name, Table: "<scalar>", Message: "column reference needs a relation"}
	}
	return a.make(OpColumn, []*Node{rel}, attrs{column: name}, "")
}

// Literal creates a constant. Integers take the narrowest integer type
// holding the value; floats are float64.
func (a *Arena) Literal(v any) (*Node, error) {
	at := attrs{}
	switch x := v.(type) {
	case nil:
		at.dtype = Null
	case bool:
		at.value, at.dtype = x, Boolean.NonNull()
	case int:
		at.value, at.dtype = int64(x), smallestInt(int64(x))
	case int8:
		at.value, at.dtype = int64(x), smallestInt(int64(x))
	case int16:
		at.value, at.dtype = int64(x), smallestInt(int64(x))
	case int32:
		at.value, at.dtype = int64(x), smallestInt(int64(x))
	case int64:
		at.value, at.dtype = x, smallestInt(x)
	case float32:
		at.value, at.dtype = float64(x), Float64.NonNull()
	case float64:
		at.value, at.dtype = x, Float64.NonNull()
	case string:
		at.value, at.dtype = x, String.NonNull()
	case Interval:
		at.value, at.dtype = x, IntervalT.NonNull()
	default:
		return nil, &core.TypeMismatchError{Op: OpLiteral.String(), Node: fmt.Sprintf("%v", v), Message: fmt.Sprintf("unsupported literal type %T", v)}
	}
	return a.make(OpLiteral, nil, at, "")
}

// Scalar applies an arithmetic, comparison, logical or string operator.
func (a *Arena) Scalar(op Op, args ...*Node) (*Node, error) {
	if op.Class() != ClassScalar || op == OpColumn || op == OpLiteral || op == OpWindow {
		return nil, &core.TypeMismatchError{Op: op.String(), Message: "not a plain scalar operator"}
	}
	switch op {
	case OpCast, OpSearchedCase, OpSimpleCase, OpExtract, OpTimestampFromUnix:
		return nil, &core.TypeMismatchError{Op: op.String(), Message: "use the dedicated constructor"}
	}
	return a.make(op, args, attrs{}, "")
}

// Cast converts x to t.
func (a *Arena) Cast(x *Node, t DataType) (*Node, error) {
	return a.make(OpCast, []*Node{x}, attrs{dtype: t.AsNullable()}, "")
}

// Extract extracts a date or time field (year, quarter, month, week_of_year,
// day_of_year, day, day_of_week, hour, minute, second, millisecond).
func (a *Arena) Extract(x *Node, field string) (*Node, error) {
	return a.make(OpExtract, []*Node{x}, attrs{field: field}, "")
}

// TimestampFromUnix interprets an integer as seconds or milliseconds since the epoch.
func (a *Arena) TimestampFromUnix(x *Node, unit core.TimeUnit) (*Node, error) {
	return a.make(OpTimestampFromUnix, []*Node{x}, attrs{unit: unit}, "")
}

// ProcTime returns the processing-time pseudo column.
func (a *Arena) ProcTime() (*Node, error) {
	return a.make(OpProcTime, nil, attrs{}, "")
}

// SearchedCase builds CASE WHEN whens[i] THEN thens[i] ... [ELSE def] END.
// def may be nil.
func (a *Arena) SearchedCase(whens, thens []*Node, def *Node) (*Node, error) {
	if len(whens) != len(thens) {
		return nil, &core.TypeMismatchError{Op: OpSearchedCase.String(), Message: fmt.Sprintf("%d conditions but %d results", len(whens), len(thens))}
	}
	args := append(append([]*Node(nil), whens...), thens...)
	if def != nil {
		args = append(args, def)
	}
	return a.make(OpSearchedCase, args, attrs{count: len(whens)}, "")
}

// SimpleCase builds CASE base WHEN vals[i] THEN thens[i] ... [ELSE def] END.
func (a *Arena) SimpleCase(base *Node, vals, thens []*Node, def *Node) (*Node, error) {
	if len(vals) != len(thens) {
		return nil, &core.TypeMismatchError{Op: OpSimpleCase.String(), Message: fmt.Sprintf("%d values but %d results", len(vals), len(thens))}
	}
	args := []*Node{base}
	args = append(args, vals...)
	args = append(args, thens...)
	if def != nil {
		args = append(args, def)
	}
	return a.make(OpSimpleCase, args, attrs{count: len(vals)}, "")
}

// Agg applies an aggregate function to x, optionally filtered by where.
func (a *Arena) Agg(op Op, x, where *Node) (*Node, error) {
	if !op.IsAggregate() || op == OpCountStar {
		return nil, &core.TypeMismatchError{Op: op.String(), Message: "not a value aggregate"}
	}
	args := []*Node{x}
	if where != nil {
		args = append(args, where)
	}
	return a.make(op, args, attrs{}, "")
}

// CountStar counts the rows of rel, optionally filtered by where.
func (a *Arena) CountStar(rel, where *Node) (*Node, error) {
	args := []*Node{rel}
	if where != nil {
		args = append(args, where)
	}
	return a.make(OpCountStar, args, attrs{}, "")
}

// Rank creates a bare ranking function (row_number, min_rank, dense_rank).
// It is only valid inside a window.
func (a *Arena) Rank(op Op) (*Node, error) {
	if !op.IsAnalytic() {
		return nil, &core.TypeMismatchError{Op: op.String(), Message: "not a ranking function"}
	}
	return a.make(op, nil, attrs{}, "")
}

// Window applies fn over spec.
func (a *Arena) Window(fn *Node, spec WindowSpec) (*Node, error) {
	args := []*Node{fn}
	args = append(args, spec.PartitionBy...)
	desc := make([]bool, len(spec.OrderBy))
	for i, k := range spec.OrderBy {
		args = append(args, k.Expr)
		desc[i] = k.Desc
	}
	return a.make(OpWindow, args, attrs{count: len(spec.PartitionBy), desc: desc, frame: spec.Frame}, "")
}

// Project selects expressions from p.
func (a *Arena) Project(p *Node, items ...*Node) (*Node, error) {
	return a.make(OpProject, append([]*Node{p}, items...), attrs{}, "")
}

// Filter keeps rows of p satisfying every predicate.
func (a *Arena) Filter(p *Node, preds ...*Node) (*Node, error) {
	return a.make(OpFilter, append([]*Node{p}, preds...), attrs{}, "")
}

// Aggregate groups p by keys and computes metrics, keeping groups that
// satisfy every having predicate.
func (a *Arena) Aggregate(p *Node, keys, metrics, having []*Node) (*Node, error) {
	args := []*Node{p}
	args = append(args, keys...)
	args = append(args, metrics...)
	args = append(args, having...)
	return a.make(OpAggregate, args, attrs{count: len(keys), having: len(having)}, "")
}

// Distinct removes duplicate rows of p.
func (a *Arena) Distinct(p *Node) (*Node, error) {
	return a.make(OpDistinct, []*Node{p}, attrs{}, "")
}

// Sort orders p by keys.
func (a *Arena) Sort(p *Node, keys ...SortKey) (*Node, error) {
	args := []*Node{p}
	desc := make([]bool, len(keys))
	for i, k := range keys {
		args = append(args, k.Expr)
		desc[i] = k.Desc
	}
	return a.make(OpSort, args, attrs{desc: desc}, "")
}

// Limit keeps n rows of p after skipping offset rows.
func (a *Arena) Limit(p *Node, n, offset int64) (*Node, error) {
	return a.make(OpLimit, []*Node{p}, attrs{limit: n, offset: offset}, "")
}

// Join joins l and r on every predicate. Right-side columns whose names
// collide with the left side are renamed with JoinSuffix.
func (a *Arena) Join(kind JoinKind, l, r *Node, preds ...*Node) (*Node, error) {
	return a.make(OpJoin, append([]*Node{l, r}, preds...), attrs{join: kind}, "")
}

// Tumble assigns rows of p to fixed, non-overlapping windows of size on timeCol.
func (a *Arena) Tumble(p *Node, timeCol string, size Interval) (*Node, error) {
	return a.make(OpTumble, []*Node{p}, attrs{timeCol: timeCol, size: size}, "")
}

// Hop assigns rows of p to windows of size that start every slide.
func (a *Arena) Hop(p *Node, timeCol string, slide, size Interval) (*Node, error) {
	return a.make(OpHop, []*Node{p}, attrs{timeCol: timeCol, slide: slide, size: size}, "")
}
