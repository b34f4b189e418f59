package resolve_test

import (
	"testing"

	"github.com/leapstack-labs/xsql/internal/testutil"
	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/ir"
	"github.com/leapstack-labs/xsql/pkg/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	a := ir.NewArena()
	tbl := testutil.AllTypes(t, a)
	f := testutil.Col(t, a, tbl, "f")
	d := testutil.Col(t, a, tbl, "d")
	pred := testutil.Op(t, a, ir.OpGreater, f, testutil.Lit(t, a, 0))
	filtered := ir.Must(a.Filter(tbl, pred))

	double := testutil.Named(t, a, testutil.Op(t, a, ir.OpMultiply, testutil.Col(t, a, filtered, "d"), testutil.Lit(t, a, 2)), "dd")
	proj := ir.Must(a.Project(filtered, testutil.Col(t, a, filtered, "g"), double))

	res, err := resolve.Resolve(proj)
	require.NoError(t, err)

	assert.Equal(t, []string{"g", "dd"}, res.Schema.Names())
	assert.Equal(t, []*ir.Node{tbl}, res.Tables)
	assert.False(t, res.IsStreaming())

	typ, ok := res.TypeOf(pred)
	require.True(t, ok)
	assert.Equal(t, ir.Boolean, typ)

	s, ok := res.SchemaOf(filtered)
	require.True(t, ok)
	assert.Equal(t, tbl.Schema(), s)

	_, ok = res.TypeOf(d)
	assert.False(t, ok, "d is not referenced by the query")
}

func TestResolve_TablesInPostOrder(t *testing.T) {
	a := ir.NewArena()
	left := testutil.Events(t, a)
	right := ir.Must(a.Table("users", ir.MustSchema(
		ir.Field{Name: "userId", Type: ir.Int64},
		ir.Field{Name: "name", Type: ir.String},
	)))
	on := testutil.Op(t, a, ir.OpEquals, testutil.Col(t, a, left, "userId"), testutil.Col(t, a, right, "userId"))
	j := ir.Must(a.Join(ir.JoinLeft, left, right, on))

	res, err := resolve.Resolve(j)
	require.NoError(t, err)

	assert.Equal(t, []*ir.Node{left, right}, res.Tables)
	assert.Equal(t, []string{"userId", "category", "amount", "createTime", "userId_right", "name"}, res.Schema.Names())
	assert.True(t, res.IsStreaming())
	assert.Equal(t, []*ir.Node{left}, res.Watermarked())
}

func TestResolve_Errors(t *testing.T) {
	a := ir.NewArena()
	tbl := testutil.AllTypes(t, a)

	t.Run("nil root", func(t *testing.T) {
		_, err := resolve.Resolve(nil)
		var sre *core.SchemaResolutionError
		assert.ErrorAs(t, err, &sre)
	})

	t.Run("scalar root", func(t *testing.T) {
		_, err := resolve.Resolve(testutil.Col(t, a, tbl, "a"))
		var tme *core.TypeMismatchError
		require.ErrorAs(t, err, &tme)
		assert.ErrorIs(t, err, core.ErrCompile)
	})
}

func TestEventTime(t *testing.T) {
	a := ir.NewArena()
	events := testutil.Events(t, a)

	t.Run("table", func(t *testing.T) {
		col, ok := resolve.EventTime(events)
		require.True(t, ok)
		assert.Equal(t, "createTime", col)
	})

	t.Run("through a filter", func(t *testing.T) {
		pred := testutil.Op(t, a, ir.OpGreater, testutil.Col(t, a, events, "amount"), testutil.Lit(t, a, 10))
		col, ok := resolve.EventTime(ir.Must(a.Filter(events, pred)))
		require.True(t, ok)
		assert.Equal(t, "createTime", col)
	})

	t.Run("projected away", func(t *testing.T) {
		p := ir.Must(a.Project(events, testutil.Col(t, a, events, "category")))
		_, ok := resolve.EventTime(p)
		assert.False(t, ok)
	})

	t.Run("no watermark", func(t *testing.T) {
		_, ok := resolve.EventTime(testutil.AllTypes(t, a))
		assert.False(t, ok)
	})
}
