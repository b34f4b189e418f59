// Package lineage derives column-level lineage from an expression graph:
// for every output column, the table columns it is computed from.
package lineage

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/leapstack-labs/xsql/pkg/ir"
	"github.com/leapstack-labs/xsql/pkg/resolve"
)

// TransformType describes how source columns are transformed.
type TransformType string

const (
	// TransformDirect means the column is a direct copy (no transformation).
	TransformDirect TransformType = ""
	// TransformExpression means the column is derived from an expression.
	TransformExpression TransformType = "EXPR"
)

// SourceColumn represents a source column in the lineage.
type SourceColumn struct {
	Table  string
	Column string
}

// ColumnLineage describes the lineage of a single output column.
type ColumnLineage struct {
	Name      string         // Output column name
	Sources   []SourceColumn // Source columns this output derives from, sorted
	Transform TransformType  // Type of transformation applied
	Function  string         // Function name (for aggregates/window functions)
}

// QueryLineage describes the complete lineage of a query.
type QueryLineage struct {
	Sources []string         // All source tables (deduplicated, sorted)
	Columns []*ColumnLineage // Lineage for each output column, in schema order
}

// Extract computes the lineage of every output column of root. The graph
// must resolve.
func Extract(root *ir.Node) (*QueryLineage, error) {
	res, err := resolve.Resolve(root)
	if err != nil {
		return nil, err
	}

	e := &extractor{memo: make(map[columnKey]*ColumnLineage)}
	out := &QueryLineage{}
	for _, t := range res.Tables {
		if !slices.Contains(out.Sources, t.TableName()) {
			out.Sources = append(out.Sources, t.TableName())
		}
	}
	slices.Sort(out.Sources)

	for _, name := range root.Schema().Names() {
		col, err := e.column(root, name)
		if err != nil {
			return nil, err
		}
		out.Columns = append(out.Columns, &ColumnLineage{
			Name:      name,
			Sources:   col.Sources,
			Transform: col.Transform,
			Function:  col.Function,
		})
	}
	return out, nil
}

type columnKey struct {
	rel  *ir.Node
	name string
}

// extractor memoizes per relation column; graphs share subtrees.
type extractor struct {
	memo map[columnKey]*ColumnLineage
}

// column returns the lineage of column name of relation rel.
func (e *extractor) column(rel *ir.Node, name string) (*ColumnLineage, error) {
	key := columnKey{rel, name}
	if l, ok := e.memo[key]; ok {
		return l, nil
	}
	l, err := e.derive(rel, name)
	if err != nil {
		return nil, err
	}
	e.memo[key] = l
	return l, nil
}

func (e *extractor) derive(rel *ir.Node, name string) (*ColumnLineage, error) {
	switch rel.Op() {
	case ir.OpTable:
		return &ColumnLineage{
			Name:    name,
			Sources: []SourceColumn{{Table: rel.TableName(), Column: name}},
		}, nil

	case ir.OpProject:
		for _, item := range rel.Items() {
			if ir.Name(item) == name {
				return e.expr(item)
			}
		}

	case ir.OpAggregate:
		for _, item := range append(rel.GroupKeys(), rel.Metrics()...) {
			if ir.Name(item) == name {
				return e.expr(item)
			}
		}

	case ir.OpJoin:
		// Join output is the left schema followed by the (renamed) right one.
		names := rel.Schema().Names()
		left, right := rel.Left().Schema(), rel.Right().Schema()
		for i, n := range names {
			if n != name {
				continue
			}
			if i < left.Len() {
				return e.column(rel.Left(), left.Field(i).Name)
			}
			return e.column(rel.Right(), right.Field(i-left.Len()).Name)
		}

	case ir.OpTumble, ir.OpHop:
		parent := rel.Parent()
		if parent.Schema().Has(name) {
			return e.column(parent, name)
		}
		if name == ir.WindowStart || name == ir.WindowEnd {
			l, err := e.column(parent, rel.TimeCol())
			if err != nil {
				return nil, err
			}
			return &ColumnLineage{Sources: l.Sources, Transform: TransformExpression, Function: rel.Op().String()}, nil
		}

	case ir.OpFilter, ir.OpSort, ir.OpLimit, ir.OpDistinct:
		return e.column(rel.Parent(), name)
	}
	return nil, fmt.Errorf("lineage: no column %q in %s", name, ir.Describe(rel))
}

// expr returns the lineage of a scalar expression.
func (e *extractor) expr(n *ir.Node) (*ColumnLineage, error) {
	switch {
	case n.Op() == ir.OpColumn:
		return e.column(n.Arg(0), n.ColumnName())
	case n.Op() == ir.OpWindow:
		sources, err := e.sources(n)
		if err != nil {
			return nil, err
		}
		return &ColumnLineage{Sources: sources, Transform: TransformExpression, Function: n.Func().Op().String()}, nil
	case n.Op().IsAggregate():
		sources, err := e.sources(n)
		if err != nil {
			return nil, err
		}
		return &ColumnLineage{Sources: sources, Transform: TransformExpression, Function: n.Op().String()}, nil
	}
	sources, err := e.sources(n)
	if err != nil {
		return nil, err
	}
	return &ColumnLineage{Sources: sources, Transform: TransformExpression}, nil
}

// sources collects the source columns of every column reference in n.
func (e *extractor) sources(n *ir.Node) ([]SourceColumn, error) {
	var out []SourceColumn
	var visit func(n *ir.Node) error
	visit = func(n *ir.Node) error {
		if n.Op() == ir.OpColumn {
			l, err := e.column(n.Arg(0), n.ColumnName())
			if err != nil {
				return err
			}
			out = append(out, l.Sources...)
			return nil
		}
		for _, arg := range n.Args() {
			// count_star carries its relation as an operand
			if arg.IsRelation() {
				continue
			}
			if err := visit(arg); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(n); err != nil {
		return nil, err
	}
	return mergeSources(out), nil
}

// mergeSources sorts and deduplicates source columns.
func mergeSources(in []SourceColumn) []SourceColumn {
	slices.SortFunc(in, func(a, b SourceColumn) int {
		return cmp.Or(cmp.Compare(a.Table, b.Table), cmp.Compare(a.Column, b.Column))
	})
	return slices.Compact(in)
}
