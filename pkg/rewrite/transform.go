// Package rewrite implements the dialect-parameterized graph rewrites that
// run between resolution and emission.
//
// Every pass is a pure function from (graph, dialect) to a new graph built
// in the same arena. Passes branch only on dialect feature flags, so one
// implementation serves every dialect. Replacement nodes keep the output
// names of the nodes they replace, which keeps naming dialect-independent.
package rewrite

import (
	"fmt"

	"github.com/leapstack-labs/xsql/pkg/ir"
)

// Rule rewrites a single node whose operands have already been rewritten.
// It returns n itself when it does not apply.
type Rule func(n *ir.Node) (*ir.Node, error)

// Transform applies rule bottom-up to every node reachable from root,
// visiting each unique node once.
func Transform(a *ir.Arena, root *ir.Node, rule Rule) (*ir.Node, error) {
	t := &transformer{arena: a, rule: rule, memo: make(map[*ir.Node]*ir.Node)}
	return t.visit(root)
}

type transformer struct {
	arena *ir.Arena
	rule  Rule
	memo  map[*ir.Node]*ir.Node
}

func (t *transformer) visit(n *ir.Node) (*ir.Node, error) {
	if out, ok := t.memo[n]; ok {
		return out, nil
	}
	args := n.Args()
	for i, arg := range args {
		out, err := t.visit(arg)
		if err != nil {
			return nil, err
		}
		args[i] = out
	}
	rebuilt, err := t.arena.Rebuild(n, args)
	if err != nil {
		return nil, fmt.Errorf("rebuild %s: %w", ir.Describe(n), err)
	}
	if n.IsRelation() {
		if rebuilt, err = preserveNames(t.arena, n, rebuilt); err != nil {
			return nil, err
		}
	}
	out, err := t.rule(rebuilt)
	if err != nil {
		return nil, err
	}
	if n.IsRelation() && !sameNames(out.Schema(), rebuilt.Schema()) {
		return nil, fmt.Errorf("rewrite of %s changed its output columns from %v to %v",
			ir.Describe(n), rebuilt.Schema().Names(), out.Schema().Names())
	}
	t.memo[n] = out
	return out, nil
}

func sameNames(a, b *ir.Schema) bool {
	an, bn := a.Names(), b.Names()
	if len(an) != len(bn) {
		return false
	}
	for i := range an {
		if an[i] != bn[i] {
			return false
		}
	}
	return true
}

// preserveNames names the output expressions of a rebuilt projection or
// aggregation after the columns of the relation it replaces.
func preserveNames(a *ir.Arena, old, n *ir.Node) (*ir.Node, error) {
	if n == old || sameNames(old.Schema(), n.Schema()) {
		return n, nil
	}
	switch n.Op() {
	case ir.OpProject:
		items, err := renamed(a, n.Items(), old.Schema(), 0)
		if err != nil {
			return nil, err
		}
		return a.Project(n.Parent(), items...)
	case ir.OpAggregate:
		keys, err := renamed(a, n.GroupKeys(), old.Schema(), 0)
		if err != nil {
			return nil, err
		}
		metrics, err := renamed(a, n.Metrics(), old.Schema(), len(keys))
		if err != nil {
			return nil, err
		}
		return a.Aggregate(n.Parent(), keys, metrics, n.Having())
	}
	return n, nil
}

func renamed(a *ir.Arena, exprs []*ir.Node, want *ir.Schema, offset int) ([]*ir.Node, error) {
	out := make([]*ir.Node, len(exprs))
	for i, e := range exprs {
		name := want.Field(offset + i).Name
		if ir.Name(e) == name {
			out[i] = e
			continue
		}
		aliased, err := a.Alias(e, name)
		if err != nil {
			return nil, err
		}
		out[i] = aliased
	}
	return out, nil
}
