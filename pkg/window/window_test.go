package window_test

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/xsql/internal/testutil"
	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/dialects/ansi"
	"github.com/leapstack-labs/xsql/pkg/dialects/databricks"
	"github.com/leapstack-labs/xsql/pkg/dialects/flink"
	"github.com/leapstack-labs/xsql/pkg/dialects/risingwave"
	"github.com/leapstack-labs/xsql/pkg/ir"
	"github.com/leapstack-labs/xsql/pkg/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byName(n *ir.Node) (string, error) { return ir.Name(n), nil }

func TestCompile(t *testing.T) {
	a := ir.NewArena()
	tbl := testutil.AllTypes(t, a)
	g := testutil.Col(t, a, tbl, "g")
	f := testutil.Col(t, a, tbl, "f")
	i := testutil.Col(t, a, tbl, "i")
	minute := ir.Interval{Value: 1, Unit: core.TimeUnitMinute}

	tests := []struct {
		name string
		spec ir.WindowSpec
		want string
	}{
		{
			name: "empty",
			spec: ir.WindowSpec{},
			want: "OVER ()",
		},
		{
			name: "order only",
			spec: ir.WindowSpec{OrderBy: []ir.SortKey{ir.Asc(f)}},
			want: "OVER (ORDER BY f ASC)",
		},
		{
			name: "partition and descending order",
			spec: ir.WindowSpec{PartitionBy: []*ir.Node{g}, OrderBy: []ir.SortKey{ir.Desc(f)}},
			want: "OVER (PARTITION BY g ORDER BY f DESC)",
		},
		{
			name: "rows frame",
			spec: ir.WindowSpec{
				OrderBy: []ir.SortKey{ir.Asc(f)},
				Frame:   ir.Rows(ir.Preceding(2), ir.CurrentRow()),
			},
			want: "OVER (ORDER BY f ASC ROWS BETWEEN 2 PRECEDING AND CURRENT ROW)",
		},
		{
			name: "unbounded rows frame",
			spec: ir.WindowSpec{
				OrderBy: []ir.SortKey{ir.Asc(f)},
				Frame:   ir.Rows(ir.UnboundedPreceding(), ir.UnboundedFollowing()),
			},
			want: "OVER (ORDER BY f ASC ROWS BETWEEN UNBOUNDED PRECEDING AND UNBOUNDED FOLLOWING)",
		},
		{
			name: "range frame in dialect unit",
			spec: ir.WindowSpec{
				PartitionBy: []*ir.Node{g},
				OrderBy:     []ir.SortKey{ir.Asc(i)},
				Frame:       ir.Range(ir.PrecedingInterval(minute), ir.CurrentRow()),
			},
			want: "OVER (PARTITION BY g ORDER BY i ASC RANGE BETWEEN INTERVAL '60' SECOND PRECEDING AND CURRENT ROW)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := window.Compile(tt.spec, ansi.ANSI, byName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.String())
		})
	}
}

func TestCompile_RenderError(t *testing.T) {
	a := ir.NewArena()
	tbl := testutil.AllTypes(t, a)
	spec := ir.WindowSpec{PartitionBy: []*ir.Node{testutil.Col(t, a, tbl, "g")}}

	boom := errors.New("boom")
	_, err := window.Compile(spec, ansi.ANSI, func(*ir.Node) (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
}

func TestCompile_FrameWithoutOrder(t *testing.T) {
	spec := ir.WindowSpec{Frame: ir.Rows(ir.Preceding(1), ir.CurrentRow())}

	_, err := window.Compile(spec, flink.Flink, byName)
	var wse *core.WindowSpecError
	require.ErrorAs(t, err, &wse)
	assert.Equal(t, "flink", wse.Dialect)
}

func TestTranslateFrame(t *testing.T) {
	sec := func(v int64) ir.Interval { return ir.Interval{Value: v, Unit: core.TimeUnitSecond} }
	ms := func(v int64) ir.Interval { return ir.Interval{Value: v, Unit: core.TimeUnitMillisecond} }

	t.Run("rows frames pass through", func(t *testing.T) {
		f := ir.Rows(ir.Preceding(3), ir.Following(1))
		got, err := window.TranslateFrame(f, risingwave.RisingWave)
		require.NoError(t, err)
		assert.Same(t, f, got)
	})

	t.Run("nil frame", func(t *testing.T) {
		got, err := window.TranslateFrame(nil, ansi.ANSI)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("converts to dialect unit", func(t *testing.T) {
		f := ir.Range(ir.PrecedingInterval(ms(15000)), ir.FollowingInterval(sec(5)))
		got, err := window.TranslateFrame(f, databricks.Databricks)
		require.NoError(t, err)
		assert.Equal(t, ir.Bound{Kind: ir.BoundPreceding, Offset: 15, Unit: core.TimeUnitSecond}, got.Lower)
		assert.Equal(t, int64(15000), f.Lower.Offset, "input frame is not modified")
		assert.Equal(t, sec(5), got.Upper.Interval())
	})

	t.Run("already in unit is unchanged", func(t *testing.T) {
		f := ir.Range(ir.PrecedingInterval(sec(10)), ir.CurrentRow())
		got, err := window.TranslateFrame(f, flink.Flink)
		require.NoError(t, err)
		assert.Same(t, f, got)
	})

	t.Run("rows-only dialect", func(t *testing.T) {
		f := ir.Range(ir.PrecedingInterval(sec(10)), ir.CurrentRow())
		_, err := window.TranslateFrame(f, risingwave.RisingWave)
		var uoe *core.UnsupportedOperationError
		require.ErrorAs(t, err, &uoe)
		assert.Equal(t, "risingwave", uoe.Dialect)
		assert.Equal(t, core.ErrMsgRowsOnlyFrames, uoe.Message)
	})

	t.Run("inexact conversion", func(t *testing.T) {
		f := ir.Range(ir.PrecedingInterval(ms(1500)), ir.CurrentRow())
		_, err := window.TranslateFrame(f, flink.Flink)
		var uoe *core.UnsupportedOperationError
		require.ErrorAs(t, err, &uoe)
		assert.Contains(t, uoe.Message, "seconds")
		assert.ErrorIs(t, err, core.ErrCompile)
	})
}
