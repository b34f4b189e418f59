package snowflake

import (
	"testing"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	d := Snowflake
	require.NotNil(t, d)

	assert.Equal(t, "snowflake", d.Name)
	assert.True(t, d.SupportsQualify())
	assert.False(t, d.SupportsFilterClause())
	assert.Equal(t, core.TimeUnitNone, d.FrameTimeUnit())
	assert.Equal(t, 0, d.ArrayBaseIndex())
}

func TestNormalizeName(t *testing.T) {
	d := Snowflake

	assert.Equal(t, "MY_TABLE", d.NormalizeName("my_table"))
	assert.Equal(t, "MY_TABLE", d.NormalizeName("My_Table"))
	assert.Equal(t, "MY_TABLE", d.NormalizeName("MY_TABLE"))
}

func TestQuoting(t *testing.T) {
	d := Snowflake

	tests := []struct {
		name string
		want string
	}{
		{"AMOUNT", "AMOUNT"},
		{"amount", `"amount"`},
		{"t0", `"t0"`},
		{"sample", `"sample"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.QuoteIdentifierIfNeeded(tt.name))
		})
	}
}

func TestSpellings(t *testing.T) {
	d := Snowflake

	got, err := d.Call("timestamp_from_unix_ms", "x")
	require.NoError(t, err)
	assert.Equal(t, "TO_TIMESTAMP(x, 3)", got)

	typ, err := d.TypeName("timestamp")
	require.NoError(t, err)
	assert.Equal(t, "TIMESTAMP_NTZ", typ)

	assert.Equal(t, "INTERVAL '2 HOURS'", d.IntervalLiteral(2, core.TimeUnitHour))
}
