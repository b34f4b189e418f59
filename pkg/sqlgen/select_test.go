package sqlgen_test

import (
	"errors"
	"testing"

	"github.com/leapstack-labs/xsql/internal/testutil"
	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/dialect"
	"github.com/leapstack-labs/xsql/pkg/dialects/ansi"
	"github.com/leapstack-labs/xsql/pkg/dialects/databricks"
	"github.com/leapstack-labs/xsql/pkg/dialects/duckdb"
	"github.com/leapstack-labs/xsql/pkg/dialects/flink"
	"github.com/leapstack-labs/xsql/pkg/dialects/risingwave"
	"github.com/leapstack-labs/xsql/pkg/ir"
	"github.com/leapstack-labs/xsql/pkg/rewrite"
	"github.com/leapstack-labs/xsql/pkg/sqlgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// compile rewrites root for d and renders it on one line.
func compile(t *testing.T, a *ir.Arena, root *ir.Node, d *dialect.Dialect) string {
	t.Helper()
	out, err := rewrite.Apply(a, root, d)
	require.NoError(t, err)
	sql, err := sqlgen.Select(out, d, sqlgen.Options{})
	require.NoError(t, err)
	return sql
}

func users(t *testing.T, a *ir.Arena) *ir.Node {
	t.Helper()
	schema := ir.MustSchema(
		ir.Field{Name: "userId", Type: ir.Int64},
		ir.Field{Name: "name", Type: ir.String},
	)
	return ir.Must(a.Table("users", schema))
}

func TestSelect_Table(t *testing.T) {
	a := ir.NewArena()
	tbl := testutil.AllTypes(t, a)

	got := compile(t, a, tbl, ansi.ANSI)
	assert.Equal(t, "SELECT t0.a, t0.b, t0.c, t0.d, t0.e, t0.f, t0.g, t0.h, t0.i, t0.j, t0.k FROM alltypes AS t0", got)
}

func TestSelect_RankMinusOne(t *testing.T) {
	a := ir.NewArena()
	tbl := testutil.AllTypes(t, a)
	f := testutil.Col(t, a, tbl, "f")
	spec := ir.WindowSpec{OrderBy: []ir.SortKey{ir.Asc(f)}}

	minr := testutil.Named(t, a, ir.Must(a.Window(ir.Must(a.Rank(ir.OpMinRank)), spec)), "minr")
	denser := testutil.Named(t, a, ir.Must(a.Window(ir.Must(a.Rank(ir.OpDenseRank)), spec)), "denser")
	root := ir.Must(a.Project(tbl, testutil.Col(t, a, tbl, "g"), minr, denser))

	got := compile(t, a, root, databricks.Databricks)
	assert.Equal(t,
		"SELECT t0.g, RANK() OVER (ORDER BY t0.f ASC) - 1 AS minr, DENSE_RANK() OVER (ORDER BY t0.f ASC) - 1 AS denser FROM alltypes AS t0",
		got)
}

func TestSelect_DistinctRewrite(t *testing.T) {
	a := ir.NewArena()
	tbl := testutil.AllTypes(t, a)
	proj := ir.Must(a.Project(tbl, testutil.Col(t, a, tbl, "g"), testutil.Col(t, a, tbl, "h")))
	root := ir.Must(a.Distinct(proj))

	tests := []struct {
		name string
		d    *dialect.Dialect
		want string
	}{
		{
			name: "native",
			d:    duckdb.DuckDB,
			want: "SELECT DISTINCT t0.g, t0.h FROM alltypes AS t0",
		},
		{
			name: "row number",
			d:    flink.Flink,
			want: "SELECT t1.g, t1.h FROM (SELECT t0.g, t0.h, ROW_NUMBER() OVER (PARTITION BY t0.g, t0.h ORDER BY PROCTIME() ASC) AS dedup_rn FROM alltypes AS t0) AS t1 WHERE t1.dedup_rn = 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compile(t, a, root, tt.d))
		})
	}
}

func TestSelect_DistinctEventTime(t *testing.T) {
	a := ir.NewArena()
	ev := testutil.Events(t, a)
	root := ir.Must(a.Distinct(ev))

	got := compile(t, a, root, flink.Flink)
	assert.Equal(t,
		"SELECT t1.userId, t1.category, t1.amount, t1.createTime FROM (SELECT t0.userId, t0.category, t0.amount, t0.createTime, "+
			"ROW_NUMBER() OVER (PARTITION BY t0.userId, t0.category, t0.amount, t0.createTime ORDER BY t0.createTime ASC) AS dedup_rn "+
			"FROM events AS t0) AS t1 WHERE t1.dedup_rn = 1",
		got)
}

func TestSelect_Merge(t *testing.T) {
	a := ir.NewArena()
	tbl := testutil.AllTypes(t, a)
	col := func(rel *ir.Node, name string) *ir.Node { return testutil.Col(t, a, rel, name) }
	lit := func(v any) *ir.Node { return testutil.Lit(t, a, v) }

	filtered := ir.Must(a.Filter(tbl, testutil.Op(t, a, ir.OpGreater, col(tbl, "f"), lit(0))))
	proj := ir.Must(a.Project(filtered, col(filtered, "g"), col(filtered, "d")))

	total := testutil.Named(t, a, ir.Must(a.Agg(ir.OpSum, col(tbl, "d"), nil)), "total")
	agg := ir.Must(a.Aggregate(tbl, []*ir.Node{col(tbl, "g")}, []*ir.Node{total}, nil))
	having := ir.Must(a.Filter(agg, testutil.Op(t, a, ir.OpGreater, col(agg, "total"), lit(10))))

	sorted := ir.Must(a.Sort(proj, ir.Desc(col(proj, "d"))))
	limited := ir.Must(a.Limit(sorted, 10, 5))
	afterLimit := ir.Must(a.Filter(limited, testutil.Op(t, a, ir.OpGreater, col(limited, "d"), lit(1))))

	tests := []struct {
		name string
		root *ir.Node
		want string
	}{
		{
			name: "project over filter",
			root: proj,
			want: "SELECT t0.g, t0.d FROM alltypes AS t0 WHERE t0.f > 0",
		},
		{
			name: "filter over aggregate",
			root: having,
			want: "SELECT t0.g, SUM(t0.d) AS total FROM alltypes AS t0 GROUP BY t0.g HAVING SUM(t0.d) > 10",
		},
		{
			name: "sort and limit",
			root: limited,
			want: "SELECT t0.g, t0.d FROM alltypes AS t0 WHERE t0.f > 0 ORDER BY t0.d DESC LIMIT 10 OFFSET 5",
		},
		{
			name: "filter over limit",
			root: afterLimit,
			want: "SELECT t1.g, t1.d FROM (SELECT t0.g, t0.d FROM alltypes AS t0 WHERE t0.f > 0 ORDER BY t0.d DESC LIMIT 10 OFFSET 5) AS t1 WHERE t1.d > 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compile(t, a, tt.root, ansi.ANSI))
		})
	}
}

func TestSelect_FilterOnWindow(t *testing.T) {
	a := ir.NewArena()
	tbl := testutil.AllTypes(t, a)
	g := testutil.Col(t, a, tbl, "g")
	spec := ir.WindowSpec{PartitionBy: []*ir.Node{g}, OrderBy: []ir.SortKey{ir.Desc(testutil.Col(t, a, tbl, "d"))}}
	rn := testutil.Named(t, a, ir.Must(a.Window(ir.Must(a.Rank(ir.OpRowNumber)), spec)), "rn")
	ranked := ir.Must(a.Project(tbl, g, rn))
	top := ir.Must(a.Filter(ranked, testutil.Op(t, a, ir.OpEquals, testutil.Col(t, a, ranked, "rn"), testutil.Lit(t, a, 0))))

	tests := []struct {
		name string
		d    *dialect.Dialect
		want string
	}{
		{
			name: "qualify",
			d:    duckdb.DuckDB,
			want: "SELECT t0.g, ROW_NUMBER() OVER (PARTITION BY t0.g ORDER BY t0.d DESC) - 1 AS rn FROM alltypes AS t0 QUALIFY ROW_NUMBER() OVER (PARTITION BY t0.g ORDER BY t0.d DESC) - 1 = 0",
		},
		{
			name: "subquery",
			d:    ansi.ANSI,
			want: "SELECT t1.g, t1.rn FROM (SELECT t0.g, ROW_NUMBER() OVER (PARTITION BY t0.g ORDER BY t0.d DESC) - 1 AS rn FROM alltypes AS t0) AS t1 WHERE t1.rn = 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compile(t, a, top, tt.d))
		})
	}
}

func TestSelect_AggregateWhere(t *testing.T) {
	a := ir.NewArena()
	tbl := testutil.AllTypes(t, a)
	h := testutil.Col(t, a, tbl, "h")
	sum := testutil.Named(t, a, ir.Must(a.Agg(ir.OpSum, testutil.Col(t, a, tbl, "d"), h)), "s")
	cnt := testutil.Named(t, a, ir.Must(a.CountStar(tbl, h)), "n")
	root := ir.Must(a.Aggregate(tbl, nil, []*ir.Node{sum, cnt}, nil))

	tests := []struct {
		name string
		d    *dialect.Dialect
		want string
	}{
		{
			name: "filter clause",
			d:    ansi.ANSI,
			want: "SELECT SUM(t0.d) FILTER (WHERE t0.h) AS s, COUNT(*) FILTER (WHERE t0.h) AS n FROM alltypes AS t0",
		},
		{
			name: "case fallback",
			d:    databricks.Databricks,
			want: "SELECT SUM(CASE WHEN t0.h THEN t0.d END) AS s, COUNT(CASE WHEN t0.h THEN 1 END) AS n FROM alltypes AS t0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compile(t, a, root, tt.d))
		})
	}
}

func TestSelect_Join(t *testing.T) {
	a := ir.NewArena()
	ev := testutil.Events(t, a)
	us := users(t, a)
	on := testutil.Op(t, a, ir.OpEquals, testutil.Col(t, a, ev, "userId"), testutil.Col(t, a, us, "userId"))

	inner := ir.Must(a.Join(ir.JoinInner, ev, us, on))
	named := ir.Must(a.Project(inner, testutil.Col(t, a, inner, "category"), testutil.Col(t, a, inner, "name")))
	renamed := ir.Must(a.Project(inner, testutil.Col(t, a, inner, "userId_right")))
	cross := ir.Must(a.Join(ir.JoinInner, ev, us))
	left := ir.Must(a.Join(ir.JoinLeft, ev, us))
	crossNames := ir.Must(a.Project(cross, testutil.Col(t, a, cross, "name")))
	leftNames := ir.Must(a.Project(left, testutil.Col(t, a, left, "name")))

	tests := []struct {
		name string
		root *ir.Node
		want string
	}{
		{
			name: "inner",
			root: named,
			want: "SELECT t0.category, t1.name FROM events AS t0 INNER JOIN users AS t1 ON t0.userId = t1.userId",
		},
		{
			name: "renamed right column",
			root: renamed,
			want: "SELECT t1.userId AS userId_right FROM events AS t0 INNER JOIN users AS t1 ON t0.userId = t1.userId",
		},
		{
			name: "cross",
			root: crossNames,
			want: "SELECT t1.name FROM events AS t0 CROSS JOIN users AS t1",
		},
		{
			name: "left without predicate",
			root: leftNames,
			want: "SELECT t1.name FROM events AS t0 LEFT JOIN users AS t1 ON TRUE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compile(t, a, tt.root, flink.Flink))
		})
	}
}

func TestSelect_JoinWrapsFilteredSide(t *testing.T) {
	a := ir.NewArena()
	ev := testutil.Events(t, a)
	us := users(t, a)
	big := ir.Must(a.Filter(ev, testutil.Op(t, a, ir.OpGreater, testutil.Col(t, a, ev, "amount"), testutil.Lit(t, a, 100))))
	on := testutil.Op(t, a, ir.OpEquals, testutil.Col(t, a, big, "userId"), testutil.Col(t, a, us, "userId"))
	join := ir.Must(a.Join(ir.JoinInner, big, us, on))
	root := ir.Must(a.Project(join, testutil.Col(t, a, join, "name")))

	got := compile(t, a, root, flink.Flink)
	assert.Equal(t,
		"SELECT t2.name FROM (SELECT t0.userId, t0.category, t0.amount, t0.createTime FROM events AS t0 WHERE t0.amount > 100) AS t1 "+
			"INNER JOIN users AS t2 ON t1.userId = t2.userId",
		got)
}

func TestSelect_WindowTVF(t *testing.T) {
	a := ir.NewArena()
	ev := testutil.Events(t, a)
	size := ir.Interval{Value: 5, Unit: core.TimeUnitMinute}
	win := ir.Must(a.Tumble(ev, "createTime", size))
	total := testutil.Named(t, a, ir.Must(a.Agg(ir.OpSum, testutil.Col(t, a, win, "amount"), nil)), "total")
	root := ir.Must(a.Aggregate(win,
		[]*ir.Node{testutil.Col(t, a, win, "window_start"), testutil.Col(t, a, win, "window_end")},
		[]*ir.Node{total}, nil))

	tests := []struct {
		name string
		d    *dialect.Dialect
		want string
	}{
		{
			name: "flink",
			d:    flink.Flink,
			want: "SELECT t0.window_start, t0.window_end, SUM(t0.amount) AS total FROM TABLE(TUMBLE(TABLE events, DESCRIPTOR(createTime), INTERVAL '5' MINUTE)) AS t0 GROUP BY t0.window_start, t0.window_end",
		},
		{
			name: "risingwave",
			d:    risingwave.RisingWave,
			want: `SELECT t0.window_start, t0.window_end, SUM(t0.amount) AS total FROM TUMBLE(events, "createTime", INTERVAL '5 MINUTES') AS t0 GROUP BY t0.window_start, t0.window_end`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compile(t, a, root, tt.d))
		})
	}

	_, err := sqlgen.Select(root, ansi.ANSI, sqlgen.Options{})
	var uoe *core.UnsupportedOperationError
	require.ErrorAs(t, err, &uoe)
	assert.Equal(t, "tumble", uoe.Op)
	assert.Equal(t, "ansi", uoe.Dialect)
}

func TestSelect_Hop(t *testing.T) {
	a := ir.NewArena()
	ev := testutil.Events(t, a)
	win := ir.Must(a.Hop(ev, "createTime",
		ir.Interval{Value: 1, Unit: core.TimeUnitMinute},
		ir.Interval{Value: 10, Unit: core.TimeUnitMinute}))
	root := ir.Must(a.Project(win, testutil.Col(t, a, win, "window_start"), testutil.Col(t, a, win, "amount")))

	got := compile(t, a, root, flink.Flink)
	assert.Equal(t,
		"SELECT t0.window_start, t0.amount FROM TABLE(HOP(TABLE events, DESCRIPTOR(createTime), INTERVAL '1' MINUTE, INTERVAL '10' MINUTE)) AS t0",
		got)
}

func TestSelect_Pretty(t *testing.T) {
	a := ir.NewArena()
	tbl := testutil.AllTypes(t, a)
	filtered := ir.Must(a.Filter(tbl,
		testutil.Op(t, a, ir.OpGreater, testutil.Col(t, a, tbl, "f"), testutil.Lit(t, a, 0)),
		testutil.Op(t, a, ir.OpOr, testutil.Col(t, a, tbl, "h"), testutil.Op(t, a, ir.OpIsNull, testutil.Col(t, a, tbl, "g"))),
	))
	root := ir.Must(a.Project(filtered, testutil.Col(t, a, filtered, "g"), testutil.Col(t, a, filtered, "d")))

	out, err := rewrite.Apply(a, root, ansi.ANSI)
	require.NoError(t, err)

	compact, err := sqlgen.Select(out, ansi.ANSI, sqlgen.Options{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT t0.g, t0.d FROM alltypes AS t0 WHERE t0.f > 0 AND (t0.h OR t0.g IS NULL)", compact)

	pretty, err := sqlgen.Select(out, ansi.ANSI, sqlgen.Options{Pretty: true})
	require.NoError(t, err)
	want := `SELECT
  t0.g,
  t0.d
FROM alltypes AS t0
WHERE
  t0.f > 0
  AND (t0.h OR t0.g IS NULL)`
	assert.Equal(t, want, pretty)
}

func TestSelect_Errors(t *testing.T) {
	a := ir.NewArena()
	tbl := testutil.AllTypes(t, a)

	t.Run("scalar root", func(t *testing.T) {
		_, err := sqlgen.Select(testutil.Col(t, a, tbl, "a"), ansi.ANSI, sqlgen.Options{})
		var tme *core.TypeMismatchError
		require.ErrorAs(t, err, &tme)
		assert.True(t, errors.Is(err, core.ErrCompile))
	})

	t.Run("distinct without native support", func(t *testing.T) {
		root := ir.Must(a.Distinct(tbl))
		_, err := sqlgen.Select(root, flink.Flink, sqlgen.Options{})
		var uoe *core.UnsupportedOperationError
		require.ErrorAs(t, err, &uoe)
		assert.Equal(t, "flink", uoe.Dialect)
	})
}
