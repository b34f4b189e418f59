// Package resolve validates an expression graph before it is rewritten
// and emitted.
//
// Graph constructors already type-check each node as it is built. Resolve
// re-derives every node in one memoized post-order walk so that a graph
// assembled from several arenas, or rebuilt by a rewrite pass, is checked
// as a whole: scalar type rules, relation schemas and output names, column
// scoping, watermarks and window invariants.
package resolve

import (
	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/ir"
)

// Resolution is the result of resolving a graph.
type Resolution struct {
	Root   *ir.Node
	Schema *ir.Schema

	// Tables lists the table nodes in post-order: the order in which they
	// receive positional aliases.
	Tables []*ir.Node

	types   map[*ir.Node]ir.DataType
	schemas map[*ir.Node]*ir.Schema
}

// Resolve validates the graph rooted at root, which must be a relation.
func Resolve(root *ir.Node) (*Resolution, error) {
	if root == nil {
		return nil, &core.SchemaResolutionError{Ref: "<nil>", Table: "<query>", Message: "no query"}
	}
	if !root.IsRelation() {
		return nil, &core.TypeMismatchError{Op: "query", Node: ir.Describe(root), Message: "the root of a query must be a relation"}
	}

	r := &Resolution{
		Root:    root,
		types:   make(map[*ir.Node]ir.DataType),
		schemas: make(map[*ir.Node]*ir.Schema),
	}
	err := ir.Walk(root, func(n *ir.Node) error {
		dtype, schema, err := ir.Check(n)
		if err != nil {
			return err
		}
		if n.IsRelation() {
			if err := checkScope(n); err != nil {
				return err
			}
			if n.Op() == ir.OpTable {
				r.Tables = append(r.Tables, n)
			}
			r.schemas[n] = schema
			return nil
		}
		r.types[n] = dtype
		return nil
	})
	if err != nil {
		return nil, err
	}
	r.Schema = r.schemas[root]
	return r, nil
}

// TypeOf returns the resolved type of a scalar in the graph.
func (r *Resolution) TypeOf(n *ir.Node) (ir.DataType, bool) {
	t, ok := r.types[n]
	return t, ok
}

// SchemaOf returns the resolved schema of a relation in the graph.
func (r *Resolution) SchemaOf(n *ir.Node) (*ir.Schema, bool) {
	s, ok := r.schemas[n]
	return s, ok
}

// IsStreaming reports whether any table in the graph is a streaming source.
func (r *Resolution) IsStreaming() bool {
	for _, t := range r.Tables {
		if t.Source() != nil || t.Watermark() != nil {
			return true
		}
	}
	return false
}

// Watermarked returns the tables that declare a watermark.
func (r *Resolution) Watermarked() []*ir.Node {
	var out []*ir.Node
	for _, t := range r.Tables {
		if t.Watermark() != nil {
			out = append(out, t)
		}
	}
	return out
}

// inputs returns the relations whose columns a consumer may reference.
func inputs(rel *ir.Node) []*ir.Node {
	switch rel.Op() {
	case ir.OpProject, ir.OpFilter, ir.OpAggregate, ir.OpSort:
		return []*ir.Node{rel.Arg(0)}
	case ir.OpJoin:
		return []*ir.Node{rel.Left(), rel.Right()}
	default:
		return nil
	}
}

// checkScope verifies that every column reference in a consumer's scalar
// operands resolves against the consumer's own inputs.
func checkScope(rel *ir.Node) error {
	in := inputs(rel)
	if len(in) == 0 {
		return nil
	}
	visible := func(x *ir.Node) bool {
		for _, r := range in {
			if x == r {
				return true
			}
		}
		return false
	}
	seen := make(map[*ir.Node]bool)
	var check func(e *ir.Node) error
	check = func(e *ir.Node) error {
		if e.IsRelation() || seen[e] {
			return nil
		}
		seen[e] = true
		switch e.Op() {
		case ir.OpColumn:
			if !visible(e.Arg(0)) {
				return &core.SchemaResolutionError{Ref: e.ColumnName(), Table: ir.Describe(rel), Node: ir.Describe(e.Arg(0)), Message: core.ErrMsgColumnNotFound}
			}
			return nil
		case ir.OpCountStar:
			if !visible(e.Arg(0)) {
				return &core.SchemaResolutionError{Ref: "*", Table: ir.Describe(rel), Node: ir.Describe(e.Arg(0)), Message: "count_star over a relation outside the enclosing table"}
			}
		}
		for _, arg := range e.Args() {
			if err := check(arg); err != nil {
				return err
			}
		}
		return nil
	}
	for _, arg := range rel.Args()[len(in):] {
		if err := check(arg); err != nil {
			return err
		}
	}
	return nil
}

// EventTime returns the watermark time column visible in rel's output:
// the time column of a watermarked table in rel's lineage that rel still
// exposes under the same name.
func EventTime(rel *ir.Node) (string, bool) {
	for _, x := range ir.Lineage(rel) {
		w := x.Watermark()
		if x.Op() != ir.OpTable || w == nil {
			continue
		}
		if f, ok := rel.Schema().Lookup(w.TimeCol); ok && f.Type.IsTemporal() {
			return w.TimeCol, true
		}
	}
	return "", false
}
