package graphfile

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/xsql/pkg/ir"
	"gopkg.in/yaml.v3"
)

var joinKinds = map[string]ir.JoinKind{
	"":      ir.JoinInner,
	"inner": ir.JoinInner,
	"left":  ir.JoinLeft,
	"right": ir.JoinRight,
	"outer": ir.JoinOuter,
	"full":  ir.JoinOuter,
}

func buildQuery(q Query, tables map[string]*ir.Node, a *ir.Arena) (*ir.Node, error) {
	cur, ok := tables[q.From]
	if !ok {
		return nil, fmt.Errorf("from: unknown table %q", q.From)
	}
	for i, s := range q.Steps {
		next, err := buildStep(s, cur, tables, a)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		cur = next
	}
	return cur, nil
}

// stepKinds lists the fields set on s.
func stepKinds(s Step) []string {
	var kinds []string
	add := func(set bool, name string) {
		if set {
			kinds = append(kinds, name)
		}
	}
	add(s.Join != nil, "join")
	add(len(s.Filter) > 0, "filter")
	add(len(s.Select) > 0, "select")
	add(s.Aggregate != nil, "aggregate")
	add(s.Distinct, "distinct")
	add(len(s.OrderBy) > 0, "order_by")
	add(s.Limit != nil, "limit")
	add(s.Tumble != nil, "tumble")
	add(s.Hop != nil, "hop")
	return kinds
}

func buildStep(s Step, cur *ir.Node, tables map[string]*ir.Node, a *ir.Arena) (*ir.Node, error) {
	kinds := stepKinds(s)
	if len(kinds) != 1 {
		return nil, fmt.Errorf("a step needs exactly one operation, got %d (%s)", len(kinds), strings.Join(kinds, ", "))
	}
	b := &builder{a: a, rel: cur}

	switch kinds[0] {
	case "join":
		right, ok := tables[s.Join.Table]
		if !ok {
			return nil, fmt.Errorf("join: unknown table %q", s.Join.Table)
		}
		kind, ok := joinKinds[strings.ToLower(s.Join.Kind)]
		if !ok {
			return nil, fmt.Errorf("join: unknown kind %q", s.Join.Kind)
		}
		b.right = right
		preds, err := b.exprs(s.Join.On)
		if err != nil {
			return nil, fmt.Errorf("join: %w", err)
		}
		return a.Join(kind, cur, right, preds...)
	case "filter":
		preds, err := b.exprs(s.Filter)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		return a.Filter(cur, preds...)
	case "select":
		items, err := b.exprs(s.Select)
		if err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		return a.Project(cur, items...)
	case "aggregate":
		return b.aggregate(s.Aggregate)
	case "distinct":
		return a.Distinct(cur)
	case "order_by":
		keys := make([]ir.SortKey, len(s.OrderBy))
		for i, k := range s.OrderBy {
			e, err := b.expr(&k.Expr)
			if err != nil {
				return nil, fmt.Errorf("order_by: %w", err)
			}
			keys[i] = ir.SortKey{Expr: e, Desc: k.Desc}
		}
		return a.Sort(cur, keys...)
	case "limit":
		return a.Limit(cur, s.Limit.N, s.Limit.Offset)
	case "tumble":
		size, err := ir.ParseInterval(s.Tumble.Size)
		if err != nil {
			return nil, fmt.Errorf("tumble: %w", err)
		}
		return a.Tumble(cur, s.Tumble.TimeCol, size)
	case "hop":
		size, err := ir.ParseInterval(s.Hop.Size)
		if err != nil {
			return nil, fmt.Errorf("hop: %w", err)
		}
		slide, err := ir.ParseInterval(s.Hop.Slide)
		if err != nil {
			return nil, fmt.Errorf("hop: %w", err)
		}
		return a.Hop(cur, s.Hop.TimeCol, slide, size)
	}
	return nil, fmt.Errorf("unknown step %q", kinds[0])
}

func (b *builder) aggregate(agg *Aggregate) (*ir.Node, error) {
	keys, err := b.exprs(agg.By)
	if err != nil {
		return nil, fmt.Errorf("aggregate by: %w", err)
	}
	metrics, err := b.exprs(agg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("aggregate metrics: %w", err)
	}
	having, err := b.exprs(agg.Having)
	if err != nil {
		return nil, fmt.Errorf("aggregate having: %w", err)
	}
	return b.a.Aggregate(b.rel, keys, metrics, having)
}

func (b *builder) exprs(nodes []yaml.Node) ([]*ir.Node, error) {
	out := make([]*ir.Node, 0, len(nodes))
	for i := range nodes {
		e, err := b.expr(&nodes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
