// Package window compiles window specifications into dialect OVER clauses.
//
// Partition keys, order keys and the frame are resolved here; the operand
// expressions themselves are rendered by the caller. Tie-break and null
// ordering are left to the dialect: no extra ORDER BY keys and no NULLS
// FIRST/LAST are emitted.
package window

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/dialect"
	"github.com/leapstack-labs/xsql/pkg/ir"
)

// Renderer renders a scalar operand to SQL.
type Renderer func(*ir.Node) (string, error)

// Clause is a compiled OVER clause.
type Clause struct {
	PartitionBy []string
	OrderBy     []string // rendered with direction
	Frame       string   // empty when the window has no frame
}

// String renders the clause as OVER (...).
func (c Clause) String() string {
	var parts []string
	if len(c.PartitionBy) > 0 {
		parts = append(parts, "PARTITION BY "+strings.Join(c.PartitionBy, ", "))
	}
	if len(c.OrderBy) > 0 {
		parts = append(parts, "ORDER BY "+strings.Join(c.OrderBy, ", "))
	}
	if c.Frame != "" {
		parts = append(parts, c.Frame)
	}
	return "OVER (" + strings.Join(parts, " ") + ")"
}

// Compile resolves spec into an OVER clause for d. Interval bounds are
// translated to the dialect frame unit first.
func Compile(spec ir.WindowSpec, d *dialect.Dialect, render Renderer) (Clause, error) {
	var c Clause
	for _, p := range spec.PartitionBy {
		s, err := render(p)
		if err != nil {
			return Clause{}, err
		}
		c.PartitionBy = append(c.PartitionBy, s)
	}
	for _, k := range spec.OrderBy {
		s, err := render(k.Expr)
		if err != nil {
			return Clause{}, err
		}
		c.OrderBy = append(c.OrderBy, s+direction(k.Desc))
	}
	if spec.Frame == nil {
		return c, nil
	}
	if len(spec.OrderBy) == 0 {
		return Clause{}, &core.WindowSpecError{Dialect: d.Name, Message: core.ErrMsgFrameNoOrderBy}
	}
	f, err := TranslateFrame(spec.Frame, d)
	if err != nil {
		return Clause{}, err
	}
	c.Frame = RenderFrame(f, d)
	return c, nil
}

func direction(desc bool) string {
	if desc {
		return " DESC"
	}
	return " ASC"
}

// TranslateFrame converts interval bounds of f into the frame unit of d.
// Row-count bounds pass through. It fails with an UnsupportedOperationError
// when d only supports row-count bounds or when a bound is not a whole
// number of the dialect unit.
func TranslateFrame(f *ir.Frame, d *dialect.Dialect) (*ir.Frame, error) {
	if f == nil || !f.HasIntervalBound() {
		return f, nil
	}
	unit := d.FrameTimeUnit()
	if unit == core.TimeUnitNone {
		return nil, &core.UnsupportedOperationError{Op: "interval frame bound", Dialect: d.Name, Node: f.String(), Message: core.ErrMsgRowsOnlyFrames}
	}
	lower, err := translateBound(f.Lower, unit, d, f)
	if err != nil {
		return nil, err
	}
	upper, err := translateBound(f.Upper, unit, d, f)
	if err != nil {
		return nil, err
	}
	if lower == f.Lower && upper == f.Upper {
		return f, nil
	}
	return &ir.Frame{Kind: f.Kind, Lower: lower, Upper: upper}, nil
}

func translateBound(b ir.Bound, unit core.TimeUnit, d *dialect.Dialect, f *ir.Frame) (ir.Bound, error) {
	if !b.IsInterval() || b.Unit == unit {
		return b, nil
	}
	v, ok := b.Interval().Convert(unit)
	if !ok {
		return ir.Bound{}, &core.UnsupportedOperationError{
			Op:      "interval frame bound",
			Dialect: d.Name,
			Node:    f.String(),
			Message: fmt.Sprintf(core.ErrMsgInexactInterval, unit.String()+"s"),
		}
	}
	return ir.Bound{Kind: b.Kind, Offset: v, Unit: unit}, nil
}

// RenderFrame renders a frame as ROWS|RANGE BETWEEN lower AND upper.
func RenderFrame(f *ir.Frame, d *dialect.Dialect) string {
	return f.Kind.String() + " BETWEEN " + renderBound(f.Lower, d) + " AND " + renderBound(f.Upper, d)
}

func renderBound(b ir.Bound, d *dialect.Dialect) string {
	switch b.Kind {
	case ir.BoundUnboundedPreceding:
		return "UNBOUNDED PRECEDING"
	case ir.BoundUnboundedFollowing:
		return "UNBOUNDED FOLLOWING"
	case ir.BoundCurrentRow:
		return "CURRENT ROW"
	}
	offset := strconv.FormatInt(b.Offset, 10)
	if b.IsInterval() {
		offset = d.IntervalLiteral(b.Offset, b.Unit)
	}
	if b.Kind == ir.BoundPreceding {
		return offset + " PRECEDING"
	}
	return offset + " FOLLOWING"
}
