package flink

import (
	"testing"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	d := Flink
	require.NotNil(t, d)

	assert.Equal(t, "flink", d.Name)
	assert.True(t, d.IsStreaming())
	assert.False(t, d.SupportsNativeDistinct())
	assert.True(t, d.SupportsWindowTVF())
	assert.True(t, d.CanDeclareWatermark())
}

func TestQuoting(t *testing.T) {
	d := Flink

	tests := []struct {
		name string
		want string
	}{
		{"createTime", "createTime"},
		{"userId", "userId"},
		{"value", "`value`"},
		{"timestamp", "`timestamp`"},
		{"window_start", "window_start"},
		{"1st", "`1st`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.QuoteIdentifierIfNeeded(tt.name))
		})
	}
}

func TestWatermark(t *testing.T) {
	d := Flink

	delay := d.IntervalLiteral(15, core.TimeUnitSecond)
	assert.Equal(t, "INTERVAL '15' SECOND", delay)

	got, err := d.RenderWatermark("createTime", delay)
	require.NoError(t, err)
	assert.Equal(t, "WATERMARK FOR createTime AS createTime - INTERVAL '15' SECOND", got)
}

func TestWindowTVF(t *testing.T) {
	d := Flink

	got, err := d.Call("tumble", "events", "createTime", "INTERVAL '1' MINUTE")
	require.NoError(t, err)
	assert.Equal(t, "TABLE(TUMBLE(TABLE events, DESCRIPTOR(createTime), INTERVAL '1' MINUTE))", got)

	got, err = d.Call("proctime")
	require.NoError(t, err)
	assert.Equal(t, "PROCTIME()", got)
}
