package sqlgen

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/ir"
	"github.com/leapstack-labs/xsql/pkg/window"
)

// frag is a rendered scalar expression.
type frag struct {
	sql    string
	prec   int
	window bool   // computes a window function
	column string // the column name when sql is a plain qualified reference
}

func atom(sql string) frag { return frag{sql: sql, prec: core.PrecedencePostfix} }

// scope maps the relations visible to an expression to the blocks that
// compute their columns.
type scope map[*ir.Node]*block

func (g *generator) expr(n *ir.Node, sc scope) (frag, error) {
	switch op := n.Op(); {
	case op == ir.OpColumn:
		return g.column(n, sc)
	case op == ir.OpLiteral:
		return g.literal(n)
	case op == ir.OpNot:
		x, err := g.expr(n.Arg(0), sc)
		if err != nil {
			return frag{}, err
		}
		return g.prefix(n, x, " ")
	case op == ir.OpNegate:
		x, err := g.expr(n.Arg(0), sc)
		if err != nil {
			return frag{}, err
		}
		return g.prefix(n, x, "")
	case op == ir.OpIsNull, op == ir.OpNotNull:
		x, err := g.expr(n.Arg(0), sc)
		if err != nil {
			return frag{}, err
		}
		suffix := " IS NULL"
		if op == ir.OpNotNull {
			suffix = " IS NOT NULL"
		}
		return frag{sql: paren(x, core.PrecedenceComparison, true) + suffix, prec: core.PrecedenceComparison, window: x.window}, nil
	case op == ir.OpIsIn:
		return g.isIn(n, sc)
	case op == ir.OpCast:
		x, err := g.expr(n.Arg(0), sc)
		if err != nil {
			return frag{}, err
		}
		typ, err := g.d.TypeName(n.Target().Name())
		if err != nil {
			return frag{}, attribute(err, n)
		}
		return frag{sql: "CAST(" + x.sql + " AS " + typ + ")", prec: core.PrecedencePostfix, window: x.window}, nil
	case op == ir.OpSearchedCase, op == ir.OpSimpleCase:
		return g.caseExpr(n, sc)
	case op == ir.OpExtract:
		return g.call(n, sc, "extract_"+n.Field(), n.Arg(0))
	case op == ir.OpTimestampFromUnix:
		key := "timestamp_from_unix_s"
		if n.Unit() == core.TimeUnitMillisecond {
			key = "timestamp_from_unix_ms"
		}
		return g.call(n, sc, key, n.Arg(0))
	case op == ir.OpProcTime:
		return g.call(n, sc, op.String())
	case op == ir.OpWindow:
		return g.windowFunc(n, sc)
	case op.IsAggregate():
		return g.aggregate(n, sc)
	case op.IsAnalytic():
		return g.call(n, sc, op.String())
	case n.NumArgs() == 2:
		if _, ok := g.d.Operator(op.String()); ok {
			return g.infix(n, sc)
		}
	}
	return g.call(n, sc, n.Op().String(), n.Args()...)
}

// attribute stamps the offending node onto an unsupported-operation error.
func attribute(err error, n *ir.Node) error {
	var uoe *core.UnsupportedOperationError
	if errors.As(err, &uoe) && uoe.Node == "" {
		uoe.Node = ir.Describe(n)
	}
	return err
}

func (g *generator) column(n *ir.Node, sc scope) (frag, error) {
	b, ok := sc[n.Arg(0)]
	if !ok {
		return frag{}, &core.SchemaResolutionError{Ref: n.ColumnName(), Table: ir.Describe(n.Arg(0)), Message: "relation is not in scope"}
	}
	c, ok := b.lookup(n.ColumnName())
	if !ok {
		return frag{}, &core.SchemaResolutionError{Ref: n.ColumnName(), Table: ir.Describe(n.Arg(0)), Message: core.ErrMsgColumnNotFound}
	}
	return c.expr, nil
}

func (g *generator) literal(n *ir.Node) (frag, error) {
	switch v := n.Value().(type) {
	case nil:
		return atom("NULL"), nil
	case bool:
		if v {
			return atom("TRUE"), nil
		}
		return atom("FALSE"), nil
	case int64:
		f := atom(strconv.FormatInt(v, 10))
		if v < 0 {
			f.prec = core.PrecedenceUnary
		}
		return f, nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return frag{}, &core.UnsupportedOperationError{Op: "literal", Dialect: g.d.Name, Node: ir.Describe(n), Message: "non-finite float"}
		}
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		f := atom(s)
		if v < 0 {
			f.prec = core.PrecedenceUnary
		}
		return f, nil
	case string:
		return atom(g.d.QuoteString(v)), nil
	case ir.Interval:
		return atom(g.d.IntervalLiteral(v.Value, v.Unit)), nil
	}
	return frag{}, &core.UnsupportedOperationError{Op: "literal", Dialect: g.d.Name, Node: ir.Describe(n)}
}

// paren wraps x when it binds looser than prec, or equally when strict.
func paren(x frag, prec int, strict bool) string {
	if x.prec < prec || (strict && x.prec == prec) {
		return "(" + x.sql + ")"
	}
	return x.sql
}

func (g *generator) operator(n *ir.Node) (core.OperatorDef, error) {
	op, ok := g.d.Operator(n.Op().String())
	if !ok {
		return core.OperatorDef{}, &core.UnsupportedOperationError{Op: n.Op().String(), Dialect: g.d.Name, Node: ir.Describe(n), Message: "no operator mapping"}
	}
	return op, nil
}

func (g *generator) prefix(n *ir.Node, x frag, space string) (frag, error) {
	op, err := g.operator(n)
	if err != nil {
		return frag{}, err
	}
	operand := paren(x, op.Precedence, false)
	if space == "" && strings.HasPrefix(operand, op.Symbol) {
		operand = "(" + x.sql + ")"
	}
	return frag{sql: op.Symbol + space + operand, prec: op.Precedence, window: x.window}, nil
}

func (g *generator) infix(n *ir.Node, sc scope) (frag, error) {
	op, err := g.operator(n)
	if err != nil {
		return frag{}, err
	}
	l, err := g.expr(n.Arg(0), sc)
	if err != nil {
		return frag{}, err
	}
	r, err := g.expr(n.Arg(1), sc)
	if err != nil {
		return frag{}, err
	}
	// Comparisons do not chain; every other operator is left-associative.
	strictLeft := op.Precedence == core.PrecedenceComparison
	return frag{
		sql:    paren(l, op.Precedence, strictLeft) + " " + op.Symbol + " " + paren(r, op.Precedence, true),
		prec:   op.Precedence,
		window: l.window || r.window,
	}, nil
}

func (g *generator) isIn(n *ir.Node, sc scope) (frag, error) {
	x, err := g.expr(n.Arg(0), sc)
	if err != nil {
		return frag{}, err
	}
	vals, win, err := g.exprs(n.Args()[1:], sc)
	if err != nil {
		return frag{}, err
	}
	return frag{
		sql:    paren(x, core.PrecedenceComparison, true) + " IN (" + strings.Join(vals, ", ") + ")",
		prec:   core.PrecedenceComparison,
		window: x.window || win,
	}, nil
}

func (g *generator) exprs(ns []*ir.Node, sc scope) ([]string, bool, error) {
	out := make([]string, len(ns))
	var win bool
	for i, e := range ns {
		f, err := g.expr(e, sc)
		if err != nil {
			return nil, false, err
		}
		out[i] = f.sql
		win = win || f.window
	}
	return out, win, nil
}

// call renders a dialect function over the given operands.
func (g *generator) call(n *ir.Node, sc scope, key string, args ...*ir.Node) (frag, error) {
	rendered, win, err := g.exprs(args, sc)
	if err != nil {
		return frag{}, err
	}
	s, err := g.d.Call(key, rendered...)
	if err != nil {
		return frag{}, attribute(err, n)
	}
	return frag{sql: s, prec: core.PrecedencePostfix, window: win}, nil
}

func (g *generator) caseExpr(n *ir.Node, sc scope) (frag, error) {
	var b strings.Builder
	var win bool
	add := func(kw string, e *ir.Node) error {
		f, err := g.expr(e, sc)
		if err != nil {
			return err
		}
		win = win || f.window
		b.WriteString(kw)
		b.WriteString(f.sql)
		return nil
	}

	b.WriteString("CASE")
	if n.Op() == ir.OpSimpleCase {
		if err := add(" ", n.Arg(0)); err != nil {
			return frag{}, err
		}
	}
	whens, thens := n.Cases()
	for i := range whens {
		if err := add(" WHEN ", whens[i]); err != nil {
			return frag{}, err
		}
		if err := add(" THEN ", thens[i]); err != nil {
			return frag{}, err
		}
	}
	if def := n.Default(); def != nil {
		if err := add(" ELSE ", def); err != nil {
			return frag{}, err
		}
	}
	b.WriteString(" END")
	return frag{sql: b.String(), prec: core.PrecedencePostfix, window: win}, nil
}

// aggregate renders an aggregate call. A where filter becomes
// FILTER (WHERE ...) when the dialect has it, and a CASE over the argument
// otherwise.
func (g *generator) aggregate(n *ir.Node, sc scope) (frag, error) {
	key := n.Op().String()
	where := n.Where()

	var arg string
	if n.Op() != ir.OpCountStar {
		x, err := g.expr(n.Arg(0), sc)
		if err != nil {
			return frag{}, err
		}
		arg = x.sql
	}
	if where == nil {
		if n.Op() == ir.OpCountStar {
			return g.call(n, sc, key)
		}
		s, err := g.d.Call(key, arg)
		if err != nil {
			return frag{}, attribute(err, n)
		}
		return atom(s), nil
	}

	cond, err := g.expr(where, sc)
	if err != nil {
		return frag{}, err
	}
	if g.d.SupportsFilterClause() {
		var s string
		if n.Op() == ir.OpCountStar {
			s, err = g.d.Call(key)
		} else {
			s, err = g.d.Call(key, arg)
		}
		if err != nil {
			return frag{}, attribute(err, n)
		}
		return atom(s + " FILTER (WHERE " + cond.sql + ")"), nil
	}
	if n.Op() == ir.OpCountStar {
		key, arg = ir.OpCount.String(), "1"
	}
	s, err := g.d.Call(key, "CASE WHEN "+cond.sql+" THEN "+arg+" END")
	if err != nil {
		return frag{}, attribute(err, n)
	}
	return atom(s), nil
}

func (g *generator) windowFunc(n *ir.Node, sc scope) (frag, error) {
	fn, err := g.expr(n.Func(), sc)
	if err != nil {
		return frag{}, err
	}
	clause, err := window.Compile(n.Window(), g.d, func(e *ir.Node) (string, error) {
		f, err := g.expr(e, sc)
		return f.sql, err
	})
	if err != nil {
		var wse *core.WindowSpecError
		if errors.As(err, &wse) && wse.Node == "" {
			wse.Node = ir.Describe(n)
		}
		return frag{}, attribute(err, n)
	}
	return frag{sql: fn.sql + " " + clause.String(), prec: core.PrecedencePostfix, window: true}, nil
}
