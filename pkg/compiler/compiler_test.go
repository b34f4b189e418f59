package compiler_test

import (
	"context"
	"strings"
	"testing"

	"github.com/leapstack-labs/xsql/internal/testutil"
	"github.com/leapstack-labs/xsql/pkg/compiler"
	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/dialect"
	"github.com/leapstack-labs/xsql/pkg/dialects"
	"github.com/leapstack-labs/xsql/pkg/dialects/ansi"
	"github.com/leapstack-labs/xsql/pkg/dialects/databricks"
	"github.com/leapstack-labs/xsql/pkg/dialects/duckdb"
	"github.com/leapstack-labs/xsql/pkg/dialects/flink"
	"github.com/leapstack-labs/xsql/pkg/dialects/postgres"
	"github.com/leapstack-labs/xsql/pkg/dialects/risingwave"
	"github.com/leapstack-labs/xsql/pkg/ir"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rankGraph ranks alltypes by f with the 0-indexed min and dense ranks.
func rankGraph(t *testing.T, a *ir.Arena) *ir.Node {
	t.Helper()
	tbl := testutil.AllTypes(t, a)
	spec := ir.WindowSpec{OrderBy: []ir.SortKey{ir.Asc(testutil.Col(t, a, tbl, "f"))}}
	minr := testutil.Named(t, a, ir.Must(a.Window(ir.Must(a.Rank(ir.OpMinRank)), spec)), "minr")
	denser := testutil.Named(t, a, ir.Must(a.Window(ir.Must(a.Rank(ir.OpDenseRank)), spec)), "denser")
	return ir.Must(a.Project(tbl, testutil.Col(t, a, tbl, "g"), minr, denser))
}

func distinctGraph(t *testing.T, a *ir.Arena) *ir.Node {
	t.Helper()
	tbl := testutil.AllTypes(t, a)
	proj := ir.Must(a.Project(tbl, testutil.Col(t, a, tbl, "g"), testutil.Col(t, a, tbl, "h")))
	return ir.Must(a.Distinct(proj))
}

// rankedDistinctGraph deduplicates rows that carry a 0-indexed row number.
func rankedDistinctGraph(t *testing.T, a *ir.Arena) *ir.Node {
	t.Helper()
	tbl := testutil.AllTypes(t, a)
	spec := ir.WindowSpec{OrderBy: []ir.SortKey{ir.Asc(testutil.Col(t, a, tbl, "f"))}}
	rn := testutil.Named(t, a, ir.Must(a.Window(ir.Must(a.Rank(ir.OpRowNumber)), spec)), "rn")
	return ir.Must(a.Distinct(ir.Must(a.Project(tbl, testutil.Col(t, a, tbl, "g"), rn))))
}

// rollingGraph sums amount per user over the preceding two minutes.
func rollingGraph(t *testing.T, a *ir.Arena) *ir.Node {
	t.Helper()
	ev := testutil.Events(t, a)
	user := testutil.Col(t, a, ev, "userId")
	spec := ir.WindowSpec{
		PartitionBy: []*ir.Node{user},
		OrderBy:     []ir.SortKey{ir.Asc(testutil.Col(t, a, ev, "createTime"))},
		Frame: ir.Range(
			ir.PrecedingInterval(ir.Interval{Value: 2, Unit: core.TimeUnitMinute}),
			ir.CurrentRow(),
		),
	}
	sum := ir.Must(a.Agg(ir.OpSum, testutil.Col(t, a, ev, "amount"), nil))
	rolling := testutil.Named(t, a, ir.Must(a.Window(sum, spec)), "rolling")
	return ir.Must(a.Project(ev, user, rolling))
}

func tumbleGraph(t *testing.T, a *ir.Arena) *ir.Node {
	t.Helper()
	ev := testutil.Events(t, a)
	win := ir.Must(a.Tumble(ev, "createTime", ir.Interval{Value: 5, Unit: core.TimeUnitMinute}))
	total := testutil.Named(t, a, ir.Must(a.Agg(ir.OpSum, testutil.Col(t, a, win, "amount"), nil)), "total")
	return ir.Must(a.Aggregate(win,
		[]*ir.Node{testutil.Col(t, a, win, "window_start"), testutil.Col(t, a, win, "window_end")},
		[]*ir.Node{total}, nil))
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestCompile_Golden(t *testing.T) {
	tests := []struct {
		name  string
		graph func(*testing.T, *ir.Arena) *ir.Node
		d     *dialect.Dialect
	}{
		{"rank_databricks", rankGraph, databricks.Databricks},
		{"distinct_flink", distinctGraph, flink.Flink},
		{"distinct_duckdb", distinctGraph, duckdb.DuckDB},
		{"rolling_postgres", rollingGraph, postgres.Postgres},
		{"tumble_flink", tumbleGraph, flink.Flink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ir.NewArena()
			sql, err := compiler.Compile(a, tt.graph(t, a), tt.d,
				compiler.WithPretty(true),
				compiler.WithLogger(testutil.NewTestLogger(t)))
			require.NoError(t, err)
			newGoldie(t).Assert(t, tt.name, []byte(sql))
		})
	}
}

func TestCompileDDL_Golden(t *testing.T) {
	tests := []struct {
		name string
		d    *dialect.Dialect
	}{
		{"events_ddl_flink", flink.Flink},
		{"events_ddl_risingwave", risingwave.RisingWave},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := ir.NewArena()
			stmts, err := compiler.CompileDDL(tumbleGraph(t, a), tt.d, compiler.WithPretty(true))
			require.NoError(t, err)
			require.Len(t, stmts, 1)
			newGoldie(t).Assert(t, tt.name, []byte(stmts[0]))
		})
	}
}

func TestCompile_Deterministic(t *testing.T) {
	for _, d := range dialects.Builtin().All() {
		t.Run(d.Name, func(t *testing.T) {
			a := ir.NewArena()
			first, err := compiler.Compile(a, rankGraph(t, a), d)
			require.NoError(t, err)

			again, err := compiler.Compile(a, rankGraph(t, a), d)
			require.NoError(t, err)

			fresh := ir.NewArena()
			other, err := compiler.Compile(fresh, rankGraph(t, fresh), d)
			require.NoError(t, err)

			assert.Equal(t, first, again)
			assert.Equal(t, first, other)
		})
	}
}

func TestPrepare_NamesAreDialectIndependent(t *testing.T) {
	a := ir.NewArena()
	roots := []*ir.Node{rankGraph(t, a), distinctGraph(t, a)}

	for _, root := range roots {
		want := root.Schema().Names()
		for _, d := range dialects.Builtin().All() {
			out, err := compiler.Prepare(a, root, d)
			require.NoError(t, err, d.Name)
			assert.Equal(t, want, out.Schema().Names(), d.Name)
		}
	}
}

func TestCompile_RankOffset(t *testing.T) {
	for _, d := range dialects.Builtin().All() {
		t.Run(d.Name, func(t *testing.T) {
			a := ir.NewArena()
			sql, err := compiler.Compile(a, rankGraph(t, a), d)
			require.NoError(t, err)
			if d.RankIsOneIndexed() {
				assert.Contains(t, sql, ") - 1 AS minr")
			} else {
				assert.NotContains(t, sql, " - 1")
			}
		})
	}
}

func TestCompile_DistinctEquivalence(t *testing.T) {
	for _, d := range dialects.Builtin().All() {
		t.Run(d.Name, func(t *testing.T) {
			a := ir.NewArena()
			root := distinctGraph(t, a)
			out, err := compiler.Prepare(a, root, d)
			require.NoError(t, err)
			assert.Equal(t, root.Schema().Names(), out.Schema().Names())

			sql, err := compiler.Compile(a, root, d)
			require.NoError(t, err)
			if d.SupportsNativeDistinct() {
				assert.True(t, strings.HasPrefix(sql, "SELECT DISTINCT "), sql)
			} else {
				assert.Contains(t, sql, "ROW_NUMBER() OVER (PARTITION BY t0.g, t0.h")
				assert.NotContains(t, sql, "DISTINCT")
			}
		})
	}
}

func TestCompile_DistinctOverRowNumber(t *testing.T) {
	a := ir.NewArena()
	sql, err := compiler.Compile(a, rankedDistinctGraph(t, a), flink.Flink)
	require.NoError(t, err)

	assert.Contains(t, sql, "ROW_NUMBER() OVER (ORDER BY t0.f ASC) - 1 AS rn")
	assert.Contains(t, sql, "ORDER BY PROCTIME() ASC) AS dedup_rn")
	assert.NotContains(t, sql, ") - 1 AS dedup_rn")
	assert.Contains(t, sql, ".dedup_rn = 1")
}

func TestCompile_SharedArena(t *testing.T) {
	fresh := func(t *testing.T, graph func(*testing.T, *ir.Arena) *ir.Node, d *dialect.Dialect) string {
		t.Helper()
		a := ir.NewArena()
		sql, err := compiler.Compile(a, graph(t, a), d)
		require.NoError(t, err)
		return sql
	}

	t.Run("native row number interned first", func(t *testing.T) {
		a := ir.NewArena()
		_, err := compiler.Compile(a, distinctGraph(t, a), flink.Flink)
		require.NoError(t, err)

		sql, err := compiler.Compile(a, rankedDistinctGraph(t, a), postgres.Postgres)
		require.NoError(t, err)
		assert.Contains(t, sql, "ROW_NUMBER() OVER (ORDER BY t0.f ASC) - 1 AS rn")
		assert.Equal(t, fresh(t, rankedDistinctGraph, postgres.Postgres), sql)
	})

	t.Run("compile all", func(t *testing.T) {
		ds := []*dialect.Dialect{flink.Flink, postgres.Postgres, duckdb.DuckDB}
		a := ir.NewArena()
		root := rankedDistinctGraph(t, a)
		for range 3 {
			results, err := compiler.CompileAll(context.Background(), a, root, ds)
			require.NoError(t, err)
			for i, d := range ds {
				assert.Equal(t, fresh(t, rankedDistinctGraph, d), results[i].SQL, d.Name)
			}
		}
	})
}

func TestCompileDDL_WatermarkRoundTrip(t *testing.T) {
	a := ir.NewArena()
	ev := testutil.Events(t, a)

	for _, d := range []*dialect.Dialect{flink.Flink, risingwave.RisingWave} {
		t.Run(d.Name, func(t *testing.T) {
			stmts, err := compiler.CompileDDL(ev, d)
			require.NoError(t, err)
			require.Len(t, stmts, 1)

			col := d.QuoteIdentifierIfNeeded("createTime")
			delay := d.IntervalLiteral(15, core.TimeUnitSecond)
			assert.Contains(t, stmts[0], "WATERMARK FOR "+col+" AS "+col+" - "+delay)
		})
	}

	_, err := compiler.CompileDDL(ev, databricks.Databricks)
	var uoe *core.UnsupportedOperationError
	require.ErrorAs(t, err, &uoe)
	assert.Equal(t, "watermark", uoe.Op)
}

func TestCompileDDL_TableIdentity(t *testing.T) {
	a := ir.NewArena()
	users := ir.Must(a.Table("users", ir.MustSchema(ir.Field{Name: "id", Type: ir.Int64})))
	counts := ir.Must(a.Aggregate(users,
		[]*ir.Node{testutil.Col(t, a, users, "id")},
		[]*ir.Node{testutil.Named(t, a, ir.Must(a.CountStar(users, nil)), "n")}, nil))
	joined := ir.Must(a.Join(ir.JoinInner, users, counts,
		testutil.Op(t, a, ir.OpEquals, testutil.Col(t, a, users, "id"), testutil.Col(t, a, counts, "id"))))

	stmts, err := compiler.CompileDDL(joined, postgres.Postgres)
	require.NoError(t, err)
	assert.Equal(t, []string{"CREATE TABLE users (id BIGINT)"}, stmts)

	other := ir.Must(a.Table("users", ir.MustSchema(
		ir.Field{Name: "id", Type: ir.Int64},
		ir.Field{Name: "name", Type: ir.String},
	)))
	conflict := ir.Must(a.Join(ir.JoinInner, users, other,
		testutil.Op(t, a, ir.OpEquals, testutil.Col(t, a, users, "id"), testutil.Col(t, a, other, "id"))))

	_, err = compiler.CompileDDL(conflict, postgres.Postgres)
	var sre *core.SchemaResolutionError
	require.ErrorAs(t, err, &sre)
	assert.Equal(t, "users", sre.Table)
	assert.ErrorIs(t, err, core.ErrCompile)
}

func TestCompileView(t *testing.T) {
	a := ir.NewArena()
	root := rankedDistinctGraph(t, a)

	sql, err := compiler.CompileView(a, "ranked", root, flink.Flink, compiler.WithTemporary(true))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "CREATE TEMPORARY VIEW ranked AS SELECT "), sql)
	assert.Contains(t, sql, "AS dedup_rn")

	sql, err = compiler.CompileView(a, "ranked", root, postgres.Postgres, compiler.WithOrReplace(true))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "CREATE OR REPLACE VIEW ranked AS SELECT DISTINCT t0.g, "), sql)

	sql, err = compiler.CompileTableAs(a, "ranked", root, duckdb.DuckDB, compiler.WithIfNotExists(true))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "CREATE TABLE IF NOT EXISTS ranked AS SELECT DISTINCT t0.g, "), sql)

	_, err = compiler.CompileView(a, "ranked", root, flink.Flink, compiler.WithOrReplace(true))
	var uoe *core.UnsupportedOperationError
	require.ErrorAs(t, err, &uoe)
}

func TestCompileInsert(t *testing.T) {
	a := ir.NewArena()
	sink := ir.Must(a.Table("distinct_pairs", ir.MustSchema(
		ir.Field{Name: "g", Type: ir.String},
		ir.Field{Name: "h", Type: ir.Boolean},
	)))

	sql, err := compiler.CompileInsert(a, sink, distinctGraph(t, a), flink.Flink)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "INSERT INTO distinct_pairs SELECT t1.g, t1.h FROM (SELECT"), sql)
}

func TestCompile_Errors(t *testing.T) {
	a := ir.NewArena()

	t.Run("rows only frame", func(t *testing.T) {
		_, err := compiler.Compile(a, rollingGraph(t, a), risingwave.RisingWave)
		var uoe *core.UnsupportedOperationError
		require.ErrorAs(t, err, &uoe)
		assert.Equal(t, "risingwave", uoe.Dialect)
		assert.Equal(t, "rolling", uoe.Node)
		assert.Contains(t, err.Error(), "translate_frames")
	})

	t.Run("window table function", func(t *testing.T) {
		_, err := compiler.Compile(a, tumbleGraph(t, a), ansi.ANSI)
		var uoe *core.UnsupportedOperationError
		require.ErrorAs(t, err, &uoe)
		assert.ErrorIs(t, err, core.ErrCompile)
	})

	t.Run("scalar root", func(t *testing.T) {
		tbl := testutil.AllTypes(t, a)
		_, err := compiler.Compile(a, testutil.Col(t, a, tbl, "a"), ansi.ANSI)
		var tme *core.TypeMismatchError
		require.ErrorAs(t, err, &tme)
	})
}

func TestCompileAll(t *testing.T) {
	a := ir.NewArena()
	root := distinctGraph(t, a)
	ds := []*dialect.Dialect{flink.Flink, duckdb.DuckDB, postgres.Postgres}

	results, err := compiler.CompileAll(context.Background(), a, root, ds)
	require.NoError(t, err)
	require.Len(t, results, len(ds))
	for i, d := range ds {
		assert.Equal(t, d.Name, results[i].Dialect)
		want, err := compiler.Compile(a, root, d)
		require.NoError(t, err)
		assert.Equal(t, want, results[i].SQL)
	}

	t.Run("sink", func(t *testing.T) {
		sink := ir.Must(a.Table("distinct_pairs", ir.MustSchema(
			ir.Field{Name: "g", Type: ir.String},
			ir.Field{Name: "h", Type: ir.Boolean},
		)))
		results, err := compiler.CompileAll(context.Background(), a, root, ds, compiler.WithSink(sink))
		require.NoError(t, err)
		for _, r := range results {
			assert.True(t, strings.HasPrefix(r.SQL, "INSERT INTO distinct_pairs SELECT"), r.SQL)
		}
	})

	t.Run("view", func(t *testing.T) {
		results, err := compiler.CompileAll(context.Background(), a, root, ds,
			compiler.WithView("pairs_view"), compiler.WithTableAs("ignored"))
		require.NoError(t, err)
		for _, r := range results {
			assert.True(t, strings.HasPrefix(r.SQL, "CREATE VIEW pairs_view AS SELECT"), r.SQL)
		}
	})

	t.Run("table as", func(t *testing.T) {
		results, err := compiler.CompileAll(context.Background(), a, root, ds, compiler.WithTableAs("pairs_copy"))
		require.NoError(t, err)
		for _, r := range results {
			assert.True(t, strings.HasPrefix(r.SQL, "CREATE TABLE pairs_copy AS SELECT"), r.SQL)
		}
	})

	t.Run("failure", func(t *testing.T) {
		_, err := compiler.CompileAll(context.Background(), a, tumbleGraph(t, a), []*dialect.Dialect{flink.Flink, ansi.ANSI})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ansi: ")
		assert.ErrorIs(t, err, core.ErrCompile)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := compiler.CompileAll(ctx, a, root, ds)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
