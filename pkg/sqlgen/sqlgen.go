// Package sqlgen renders resolved and rewritten expression graphs as SQL
// text for one dialect.
//
// Relations are lowered into SELECT blocks. A relation merges into the
// block of its input while SQL evaluation order (FROM, WHERE, GROUP BY,
// HAVING, windows, QUALIFY, DISTINCT, ORDER BY, LIMIT) keeps its meaning;
// otherwise the input becomes a subquery. Every FROM item gets a
// positional alias t0, t1, ... assigned leaves first, left before right.
//
// The generator expects a graph that already went through the rewrite
// passes: ranking functions are native and interval frames are in the
// dialect unit.
package sqlgen

import (
	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/dialect"
	"github.com/leapstack-labs/xsql/pkg/ir"
)

// Options controls statement layout and DDL modifiers.
type Options struct {
	// Pretty emits indented multi-line SQL. The default is one line.
	Pretty bool

	// Temporary adds TEMPORARY to CREATE statements.
	Temporary bool

	// IfNotExists adds IF NOT EXISTS to CREATE statements.
	IfNotExists bool

	// OrReplace emits CREATE OR REPLACE VIEW.
	OrReplace bool
}

// Select renders root as a SELECT statement.
func Select(root *ir.Node, d *dialect.Dialect, opts Options) (string, error) {
	if root == nil || !root.IsRelation() {
		return "", &core.TypeMismatchError{Op: "select", Node: describe(root), Message: "expected a relation"}
	}
	g := newGenerator(d)
	b, err := g.lower(root)
	if err != nil {
		return "", err
	}
	p := newPrinter(opts.Pretty)
	if err := g.print(p, b); err != nil {
		return "", err
	}
	return p.String(), nil
}

// Expr renders a scalar expression whose columns all belong to rel,
// qualified with rel's alias t0.
func Expr(e, rel *ir.Node, d *dialect.Dialect) (string, error) {
	if rel == nil || rel.Op() != ir.OpTable {
		return "", &core.TypeMismatchError{Op: "expr", Node: describe(rel), Message: "expected an unbound table"}
	}
	g := newGenerator(d)
	b, err := g.lower(rel)
	if err != nil {
		return "", err
	}
	f, err := g.expr(e, scope{rel: b})
	if err != nil {
		return "", err
	}
	return f.sql, nil
}
