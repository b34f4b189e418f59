package config

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/xsql/pkg/core"
	"github.com/leapstack-labs/xsql/pkg/dialect"
)

// DialectOverride replaces parts of a built-in dialect. Nil fields keep
// the built-in value.
type DialectOverride struct {
	NativeDistinct *bool          `mapstructure:"native_distinct"`
	Qualify        *bool          `mapstructure:"qualify"`
	FilterClause   *bool          `mapstructure:"filter_clause"`
	WindowTVF      *bool          `mapstructure:"window_tvf"`
	RankOneIndexed *bool          `mapstructure:"rank_one_indexed"`
	FrameTimeUnit  *core.TimeUnit `mapstructure:"frame_time_unit"`

	// Functions and TypeNames are merged over the built-in spellings.
	Functions map[string]string `mapstructure:"functions"`
	TypeNames map[string]string `mapstructure:"type_names"`
}

var timeUnitType = reflect.TypeOf(core.TimeUnit(0))

// timeUnitHook decodes unit names ("second", "ms", "none") into core.TimeUnit.
func timeUnitHook(from, to reflect.Type, data any) (any, error) {
	if to != timeUnitType || from.Kind() != reflect.String {
		return data, nil
	}
	u, ok := core.ParseTimeUnit(data.(string))
	if !ok {
		return nil, fmt.Errorf("unknown time unit %q", data)
	}
	return u, nil
}

// DecodeOverride decodes one dialect_overrides entry. Unknown keys are an
// error.
func DecodeOverride(raw map[string]any) (DialectOverride, error) {
	var o DialectOverride
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(timeUnitHook),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &o,
	})
	if err != nil {
		return DialectOverride{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return DialectOverride{}, err
	}
	return o, nil
}

// Apply returns a copy of cfg with the override applied.
func (o DialectOverride) Apply(cfg *core.DialectConfig) *core.DialectConfig {
	out := cfg.Clone()
	setBool(&out.SupportsNativeDistinct, o.NativeDistinct)
	setBool(&out.SupportsQualify, o.Qualify)
	setBool(&out.SupportsFilterClause, o.FilterClause)
	setBool(&out.SupportsWindowTVF, o.WindowTVF)
	setBool(&out.RankIsOneIndexed, o.RankOneIndexed)
	if o.FrameTimeUnit != nil {
		out.FrameTimeUnit = *o.FrameTimeUnit
	}
	if len(o.Functions) > 0 && out.Functions == nil {
		out.Functions = make(map[string]string, len(o.Functions))
	}
	for k, v := range o.Functions {
		out.Functions[k] = v
	}
	if len(o.TypeNames) > 0 && out.TypeNames == nil {
		out.TypeNames = make(map[string]string, len(o.TypeNames))
	}
	for k, v := range o.TypeNames {
		out.TypeNames[k] = v
	}
	return out
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// ApplyOverrides returns reg with every dialect named in c.DialectOverrides
// rebuilt from its overridden configuration. reg is unchanged.
func (c *Config) ApplyOverrides(reg *dialect.Registry) (*dialect.Registry, error) {
	if len(c.DialectOverrides) == 0 {
		return reg, nil
	}
	names := make([]string, 0, len(c.DialectOverrides))
	for name := range c.DialectOverrides {
		names = append(names, name)
	}
	sort.Strings(names)

	rebuilt := make([]*dialect.Dialect, 0, len(names))
	for _, name := range names {
		base, err := reg.Lookup(name)
		if err != nil {
			return nil, fmt.Errorf("dialect_overrides: %w", err)
		}
		o, err := DecodeOverride(c.DialectOverrides[name])
		if err != nil {
			return nil, fmt.Errorf("dialect_overrides.%s: %w", name, err)
		}
		d, err := dialect.FromConfig(o.Apply(base.Config()))
		if err != nil {
			return nil, fmt.Errorf("dialect_overrides.%s: %w", name, err)
		}
		rebuilt = append(rebuilt, d)
	}
	return reg.With(rebuilt...), nil
}
