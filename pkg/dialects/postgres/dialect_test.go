package postgres

import (
	"testing"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	d := Postgres
	require.NotNil(t, d)

	assert.Equal(t, "postgres", d.Name)
	assert.True(t, d.SupportsNativeDistinct())
	assert.False(t, d.SupportsQualify())
	assert.True(t, d.DDL().SupportsIfExists)
	assert.True(t, d.DDL().SupportsReplaceView)
	assert.False(t, d.CanDeclareWatermark())
}

func TestSpellings(t *testing.T) {
	d := Postgres

	tests := []struct {
		key  string
		want string
	}{
		{"length", "LENGTH(t0.g)"},
		{"timestamp_from_unix_s", "TO_TIMESTAMP(t0.g)"},
		{"timestamp_from_unix_ms", "TO_TIMESTAMP(t0.g / 1000.0)"},
		{"extract_day_of_year", "EXTRACT(DOY FROM t0.g)"},
		{"count_distinct", "COUNT(DISTINCT t0.g)"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := d.Call(tt.key, "t0.g")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	typ, err := d.TypeName("string")
	require.NoError(t, err)
	assert.Equal(t, "TEXT", typ)

	assert.Equal(t, "INTERVAL '15 SECONDS'", d.IntervalLiteral(15, core.TimeUnitSecond))
	assert.Equal(t, "INTERVAL '1 MINUTE'", d.IntervalLiteral(1, core.TimeUnitMinute))
	assert.Equal(t, `"returning"`, d.QuoteIdentifierIfNeeded("returning"))
}
