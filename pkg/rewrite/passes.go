package rewrite

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/dialect"
	"github.com/leapstack-labs/xsql/pkg/ir"
	"github.com/leapstack-labs/xsql/pkg/resolve"
	"github.com/leapstack-labs/xsql/pkg/window"
)

// DedupColumn is the name of the row number column introduced by DistinctToRank.
const DedupColumn = "dedup_rn"

// PassFunc is a dialect-parameterized graph rewrite.
type PassFunc func(a *ir.Arena, root *ir.Node, d *dialect.Dialect) (*ir.Node, error)

// Pass is a named rewrite pass.
type Pass struct {
	Name string
	Run  PassFunc
}

// Passes returns the rewrite passes in the order Apply runs them.
func Passes() []Pass {
	return []Pass{
		{Name: "distinct_to_rank", Run: DistinctToRank},
		{Name: "rank_offset", Run: RankOffset},
		{Name: "lower_case", Run: LowerCase},
		{Name: "translate_frames", Run: TranslateFrames},
	}
}

// Apply runs every pass in order.
func Apply(a *ir.Arena, root *ir.Node, d *dialect.Dialect) (*ir.Node, error) {
	for _, p := range Passes() {
		out, err := p.Run(a, root, d)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		root = out
	}
	return root, nil
}

// DistinctToRank rewrites DISTINCT for dialects without a native distinct.
// Each distinct relation becomes a row number partitioned by every column
// and ordered by arrival, filtered to the first row of each partition.
// Arrival is the watermark time column when the input exposes one,
// otherwise processing time.
func DistinctToRank(a *ir.Arena, root *ir.Node, d *dialect.Dialect) (*ir.Node, error) {
	if d.SupportsNativeDistinct() {
		return root, nil
	}
	return Transform(a, root, func(n *ir.Node) (*ir.Node, error) {
		if n.Op() != ir.OpDistinct {
			return n, nil
		}
		return dedup(a, n.Parent(), d)
	})
}

func dedup(a *ir.Arena, p *ir.Node, d *dialect.Dialect) (*ir.Node, error) {
	names := p.Schema().Names()
	cols, err := columns(a, p, names)
	if err != nil {
		return nil, err
	}

	var arrival *ir.Node
	if tc, ok := resolve.EventTime(p); ok {
		arrival, err = a.Column(p, tc)
	} else {
		arrival, err = a.ProcTime()
	}
	if err != nil {
		return nil, err
	}

	fn, err := a.Rank(ir.OpNativeRowNumber)
	if err != nil {
		return nil, err
	}
	w, err := a.Window(fn, ir.WindowSpec{PartitionBy: cols, OrderBy: []ir.SortKey{ir.Asc(arrival)}})
	if err != nil {
		return nil, err
	}
	rnName := DedupColumn
	for p.Schema().Has(rnName) {
		rnName = "_" + rnName
	}
	rn, err := a.Alias(w, rnName)
	if err != nil {
		return nil, err
	}
	ranked, err := a.Project(p, append(cols, rn)...)
	if err != nil {
		return nil, err
	}

	base := int64(0)
	if d.RankIsOneIndexed() {
		base = 1
	}
	rnCol, err := a.Column(ranked, rnName)
	if err != nil {
		return nil, err
	}
	lit, err := a.Literal(base)
	if err != nil {
		return nil, err
	}
	first, err := a.Scalar(ir.OpEquals, rnCol, lit)
	if err != nil {
		return nil, err
	}
	filtered, err := a.Filter(ranked, first)
	if err != nil {
		return nil, err
	}
	out, err := columns(a, filtered, names)
	if err != nil {
		return nil, err
	}
	return a.Project(filtered, out...)
}

func columns(a *ir.Arena, rel *ir.Node, names []string) ([]*ir.Node, error) {
	cols := make([]*ir.Node, len(names))
	for i, name := range names {
		c, err := a.Column(rel, name)
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	return cols, nil
}

// RankOffset lowers the 0-indexed IR ranking functions to the dialect's
// native calls. For 1-indexed dialects the native call is wrapped as
// native - 1 so every dialect returns the same numbers.
func RankOffset(a *ir.Arena, root *ir.Node, d *dialect.Dialect) (*ir.Node, error) {
	return Transform(a, root, func(n *ir.Node) (*ir.Node, error) {
		if n.Op() != ir.OpWindow {
			return n, nil
		}
		native, ok := n.Func().Op().Native()
		if !ok {
			return n, nil
		}
		fn, err := a.Rank(native)
		if err != nil {
			return nil, err
		}
		out, err := a.Window(fn, n.Window())
		if err != nil {
			return nil, err
		}
		if d.RankIsOneIndexed() {
			one, err := a.Literal(1)
			if err != nil {
				return nil, err
			}
			if out, err = a.Scalar(ir.OpSubtract, out, one); err != nil {
				return nil, err
			}
		}
		if name := n.UserName(); name != "" {
			return a.Alias(out, name)
		}
		return out, nil
	})
}

// LowerCase gives every case expression without a default an explicit
// typed NULL default, so emission never depends on a dialect's implicit
// ELSE NULL.
func LowerCase(a *ir.Arena, root *ir.Node, _ *dialect.Dialect) (*ir.Node, error) {
	return Transform(a, root, func(n *ir.Node) (*ir.Node, error) {
		if (n.Op() != ir.OpSearchedCase && n.Op() != ir.OpSimpleCase) || n.Default() != nil {
			return n, nil
		}
		null, err := a.Literal(nil)
		if err != nil {
			return nil, err
		}
		def, err := a.Cast(null, n.Type())
		if err != nil {
			return nil, err
		}
		whens, thens := n.Cases()
		var out *ir.Node
		if n.Op() == ir.OpSearchedCase {
			out, err = a.SearchedCase(whens, thens, def)
		} else {
			out, err = a.SimpleCase(n.Arg(0), whens, thens, def)
		}
		if err != nil {
			return nil, err
		}
		if name := n.UserName(); name != "" {
			return a.Alias(out, name)
		}
		return out, nil
	})
}

// TranslateFrames converts interval frame bounds into the dialect's frame
// unit. An interval bound on a dialect with row-count frames only, or one
// that is not a whole number of the dialect unit, is an
// UnsupportedOperationError.
func TranslateFrames(a *ir.Arena, root *ir.Node, d *dialect.Dialect) (*ir.Node, error) {
	return Transform(a, root, func(n *ir.Node) (*ir.Node, error) {
		if n.Op() != ir.OpWindow {
			return n, nil
		}
		spec := n.Window()
		f, err := window.TranslateFrame(spec.Frame, d)
		if err != nil {
			var uoe *core.UnsupportedOperationError
			if errors.As(err, &uoe) {
				uoe.Node = ir.Describe(n)
			}
			return nil, err
		}
		if f == spec.Frame {
			return n, nil
		}
		return a.WithFrame(n, f)
	})
}
