package risingwave

import (
	"testing"

	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	d := RisingWave
	require.NotNil(t, d)

	assert.Equal(t, "risingwave", d.Name)
	assert.True(t, d.IsStreaming())
	assert.True(t, d.SupportsNativeDistinct())
	assert.Equal(t, core.TimeUnitNone, d.FrameTimeUnit())
	assert.Equal(t, "SOURCE", d.DDL().CreateKeyword)
	assert.False(t, d.DDL().SupportsReplaceView)
}

func TestDDLTemplates(t *testing.T) {
	d := RisingWave

	delay := d.IntervalLiteral(15, core.TimeUnitSecond)
	wm, err := d.RenderWatermark(`"createTime"`, delay)
	require.NoError(t, err)
	assert.Equal(t, `WATERMARK FOR "createTime" AS "createTime" - INTERVAL '15 SECONDS'`, wm)

	format, err := d.RenderFormat("json")
	require.NoError(t, err)
	assert.Equal(t, "FORMAT PLAIN ENCODE JSON", format)

	format, err = d.RenderFormat("")
	require.NoError(t, err)
	assert.Empty(t, format)
}
