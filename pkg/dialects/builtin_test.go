package dialects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	reg := Builtin()

	assert.Equal(t,
		[]string{"ansi", "databricks", "duckdb", "flink", "postgres", "risingwave", "snowflake"},
		reg.List())

	for _, name := range reg.List() {
		t.Run(name, func(t *testing.T) {
			d, err := reg.Lookup(name)
			require.NoError(t, err)

			// Every dialect must spell the core aggregate and ranking functions.
			for _, key := range []string{"sum", "mean", "min", "max", "count", "count_star", "row_number", "rank", "dense_rank"} {
				_, ok := d.Function(key)
				assert.True(t, ok, "%s missing %s", name, key)
			}
			for _, typ := range []string{"boolean", "int64", "float64", "string", "timestamp"} {
				_, err := d.TypeName(typ)
				assert.NoError(t, err, "%s missing type %s", name, typ)
			}
		})
	}

	_, err := reg.Lookup("oracle")
	assert.Error(t, err)
}
