package ir

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/xsql/pkg/core"
)

// SortKey is an ordering expression with direction.
type SortKey struct {
	Expr *Node
	Desc bool
}

// Asc returns an ascending sort key.
func Asc(e *Node) SortKey { return SortKey{Expr: e} }

// Desc returns a descending sort key.
func Desc(e *Node) SortKey { return SortKey{Expr: e, Desc: true} }

// WindowSpec is the partition, order and frame of a window function.
type WindowSpec struct {
	PartitionBy []*Node
	OrderBy     []SortKey
	Frame       *Frame
}

// FrameKind distinguishes row-count frames from value-range frames.
type FrameKind int

const (
	// FrameRows bounds the frame by a number of rows.
	FrameRows FrameKind = iota
	// FrameRange bounds the frame by a distance in the order-by value.
	FrameRange
)

// String returns the SQL keyword of the frame kind.
func (k FrameKind) String() string {
	if k == FrameRange {
		return "RANGE"
	}
	return "ROWS"
}

// BoundKind is the kind of one frame bound.
type BoundKind int

// Frame bound kinds, in frame order.
const (
	BoundUnboundedPreceding BoundKind = iota
	BoundPreceding
	BoundCurrentRow
	BoundFollowing
	BoundUnboundedFollowing
)

// Bound is one end of a frame. Offset counts rows when Unit is
// core.TimeUnitNone, otherwise it is an interval in Unit.
type Bound struct {
	Kind   BoundKind
	Offset int64
	Unit   core.TimeUnit
}

// UnboundedPreceding returns an UNBOUNDED PRECEDING bound.
func UnboundedPreceding() Bound { return Bound{Kind: BoundUnboundedPreceding} }

// UnboundedFollowing returns an UNBOUNDED FOLLOWING bound.
func UnboundedFollowing() Bound { return Bound{Kind: BoundUnboundedFollowing} }

// CurrentRow returns a CURRENT ROW bound.
func CurrentRow() Bound { return Bound{Kind: BoundCurrentRow} }

// Preceding returns an n-rows PRECEDING bound.
func Preceding(n int64) Bound { return Bound{Kind: BoundPreceding, Offset: n} }

// Following returns an n-rows FOLLOWING bound.
func Following(n int64) Bound { return Bound{Kind: BoundFollowing, Offset: n} }

// PrecedingInterval returns an interval PRECEDING bound.
func PrecedingInterval(iv Interval) Bound {
	return Bound{Kind: BoundPreceding, Offset: iv.Value, Unit: iv.Unit}
}

// FollowingInterval returns an interval FOLLOWING bound.
func FollowingInterval(iv Interval) Bound {
	return Bound{Kind: BoundFollowing, Offset: iv.Value, Unit: iv.Unit}
}

// IsInterval reports whether the bound offset is an interval.
func (b Bound) IsInterval() bool {
	return (b.Kind == BoundPreceding || b.Kind == BoundFollowing) && b.Unit != core.TimeUnitNone
}

// Interval returns the bound offset as an Interval.
func (b Bound) Interval() Interval { return Interval{Value: b.Offset, Unit: b.Unit} }

// position orders bounds on a common axis: rows or milliseconds.
func (b Bound) position() float64 {
	switch b.Kind {
	case BoundUnboundedPreceding:
		return math.Inf(-1)
	case BoundUnboundedFollowing:
		return math.Inf(1)
	case BoundCurrentRow:
		return 0
	}
	v := float64(b.Offset)
	if b.IsInterval() {
		v = float64(b.Interval().Millis())
	}
	if b.Kind == BoundPreceding {
		return -v
	}
	return v
}

func (b Bound) String() string {
	switch b.Kind {
	case BoundUnboundedPreceding:
		return "unbounded preceding"
	case BoundUnboundedFollowing:
		return "unbounded following"
	case BoundCurrentRow:
		return "current row"
	case BoundPreceding:
		if b.IsInterval() {
			return b.Interval().String() + " preceding"
		}
		return fmt.Sprintf("%d preceding", b.Offset)
	default:
		if b.IsInterval() {
			return b.Interval().String() + " following"
		}
		return fmt.Sprintf("%d following", b.Offset)
	}
}

// Frame is a window frame.
type Frame struct {
	Kind  FrameKind
	Lower Bound
	Upper Bound
}

// Rows returns a ROWS frame.
func Rows(lower, upper Bound) *Frame {
	return &Frame{Kind: FrameRows, Lower: lower, Upper: upper}
}

// Range returns a RANGE frame.
func Range(lower, upper Bound) *Frame {
	return &Frame{Kind: FrameRange, Lower: lower, Upper: upper}
}

// HasIntervalBound reports whether either bound is an interval.
func (f *Frame) HasIntervalBound() bool {
	return f.Lower.IsInterval() || f.Upper.IsInterval()
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s between %s and %s", f.Kind, f.Lower, f.Upper)
}

// validate checks the dialect-independent frame invariants.
func (f *Frame) validate(orderBy []SortKey) string {
	if len(orderBy) == 0 {
		return core.ErrMsgFrameNoOrderBy
	}
	if f.Kind == FrameRows && f.HasIntervalBound() {
		return "a ROWS frame cannot have interval bounds"
	}
	if f.Kind == FrameRange && f.HasIntervalBound() {
		if len(orderBy) != 1 || !orderBy[0].Expr.Type().IsTemporal() {
			return core.ErrMsgRangeOrderKey
		}
	}
	for _, b := range []Bound{f.Lower, f.Upper} {
		if (b.Kind == BoundPreceding || b.Kind == BoundFollowing) && b.Offset < 0 {
			return core.ErrMsgNegativeOffset
		}
	}
	if f.Lower.Kind == BoundUnboundedFollowing || f.Upper.Kind == BoundUnboundedPreceding {
		return core.ErrMsgBoundOrder
	}
	if f.Lower.position() > f.Upper.position() {
		return core.ErrMsgBoundOrder
	}
	return ""
}
