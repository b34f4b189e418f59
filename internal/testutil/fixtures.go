package testutil

import (
	"testing"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/ir"
	"github.com/stretchr/testify/require"
)

// AllTypesSchema is the schema of the alltypes fixture table: one column
// per scalar kind, named a through k.
func AllTypesSchema() *ir.Schema {
	return ir.MustSchema(
		ir.Field{Name: "a", Type: ir.Int8},
		ir.Field{Name: "b", Type: ir.Int16},
		ir.Field{Name: "c", Type: ir.Int32},
		ir.Field{Name: "d", Type: ir.Int64},
		ir.Field{Name: "e", Type: ir.Float32},
		ir.Field{Name: "f", Type: ir.Float64},
		ir.Field{Name: "g", Type: ir.String},
		ir.Field{Name: "h", Type: ir.Boolean},
		ir.Field{Name: "i", Type: ir.Timestamp},
		ir.Field{Name: "j", Type: ir.Date},
		ir.Field{Name: "k", Type: ir.Time},
	)
}

// AllTypes creates the alltypes table in a.
func AllTypes(t testing.TB, a *ir.Arena) *ir.Node {
	t.Helper()
	n, err := a.Table("alltypes", AllTypesSchema())
	require.NoError(t, err)
	return n
}

// Events creates a streaming table with a watermark on createTime.
func Events(t testing.TB, a *ir.Arena) *ir.Node {
	t.Helper()
	schema := ir.MustSchema(
		ir.Field{Name: "userId", Type: ir.Int64},
		ir.Field{Name: "category", Type: ir.String},
		ir.Field{Name: "amount", Type: ir.Float64},
		ir.Field{Name: "createTime", Type: ir.Timestamp.NonNull()},
	)
	n, err := a.Table("events", schema,
		ir.WithSource(ir.Source{
			Connector:  "kafka",
			Topic:      "events",
			Format:     "json",
			Properties: map[string]string{"properties.bootstrap.servers": "localhost:9092"},
		}),
		ir.WithWatermark("createTime", ir.Interval{Value: 15, Unit: core.TimeUnitSecond}),
	)
	require.NoError(t, err)
	return n
}

// Col references a column, failing the test on error.
func Col(t testing.TB, a *ir.Arena, rel *ir.Node, name string) *ir.Node {
	t.Helper()
	n, err := a.Column(rel, name)
	require.NoError(t, err)
	return n
}

// Lit creates a literal, failing the test on error.
func Lit(t testing.TB, a *ir.Arena, v any) *ir.Node {
	t.Helper()
	n, err := a.Literal(v)
	require.NoError(t, err)
	return n
}

// Op applies a plain scalar operator, failing the test on error.
func Op(t testing.TB, a *ir.Arena, op ir.Op, args ...*ir.Node) *ir.Node {
	t.Helper()
	n, err := a.Scalar(op, args...)
	require.NoError(t, err)
	return n
}

// Named names a scalar, failing the test on error.
func Named(t testing.TB, a *ir.Arena, n *ir.Node, name string) *ir.Node {
	t.Helper()
	out, err := a.Alias(n, name)
	require.NoError(t, err)
	return out
}
