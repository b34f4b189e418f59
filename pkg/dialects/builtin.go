// Package dialects bundles the built-in dialect definitions.
//
// Each subpackage is importable on its own; this package only assembles
// them into a registry for callers that select a dialect by name.
package dialects

import (
	"github.com/leapstack-labs/xsql/pkg/dialect"
	"github.com/leapstack-labs/xsql/pkg/dialects/ansi"
	"github.com/leapstack-labs/xsql/pkg/dialects/databricks"
	"github.com/leapstack-labs/xsql/pkg/dialects/duckdb"
	"github.com/leapstack-labs/xsql/pkg/dialects/flink"
	"github.com/leapstack-labs/xsql/pkg/dialects/postgres"
	"github.com/leapstack-labs/xsql/pkg/dialects/risingwave"
	"github.com/leapstack-labs/xsql/pkg/dialects/snowflake"
)

// Builtin returns a registry holding every built-in dialect.
// Each call returns a new registry; extend it with Registry.With.
func Builtin() *dialect.Registry {
	return dialect.NewRegistry(
		ansi.ANSI,
		databricks.Databricks,
		duckdb.DuckDB,
		flink.Flink,
		postgres.Postgres,
		risingwave.RisingWave,
		snowflake.Snowflake,
	)
}
