package core

import "maps"

// DialectConfig holds the static configuration for a SQL dialect.
// It is pure data with no rendering logic.
//
// The runtime behavior (quoting, function lookup, interval literals) lives in
// pkg/dialect.Dialect, which embeds this config.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "duckdb", "flink")
	Name string

	// Mode distinguishes one-shot batch engines from continuous streaming engines.
	Mode Mode

	// Identifiers defines quoting and normalization rules
	Identifiers IdentifierConfig

	// Feature flags consumed by the rewrite passes and the emitter.
	SupportsNativeDistinct bool
	SupportsQualify        bool
	SupportsFilterClause   bool // aggregate FILTER (WHERE ...)
	SupportsWindowTVF      bool // TUMBLE/HOP table-valued functions
	RankIsOneIndexed       bool
	ArrayBaseIndex         int

	// FrameTimeUnit is the unit interval frame bounds are rendered in.
	// TimeUnitNone means the dialect only accepts row-count frame bounds.
	FrameTimeUnit TimeUnit

	// IntervalStyle selects the interval literal syntax.
	IntervalStyle IntervalStyle

	// Functions maps canonical operation names to the dialect spelling.
	// A spelling containing "(" is a fmt pattern over the rendered operands
	// ("DATE_PART('year', %s)"); otherwise it is a call name.
	Functions map[string]string

	// Operators maps canonical operator names (add, equals, ...) to their
	// infix or prefix spelling.
	Operators map[string]OperatorDef

	// TypeNames maps canonical type names (int64, string, ...) to dialect types.
	TypeNames map[string]string

	// DDL describes streaming source/sink declarations.
	DDL DDLConfig

	// Reserved words that must be quoted when used as identifiers.
	Reserved []string
}

// Clone returns a deep copy of the config so overrides never leak into
// a registered dialect.
func (c *DialectConfig) Clone() *DialectConfig {
	out := *c
	out.Functions = maps.Clone(c.Functions)
	out.Operators = maps.Clone(c.Operators)
	out.TypeNames = maps.Clone(c.TypeNames)
	out.Reserved = append([]string(nil), c.Reserved...)
	return &out
}

// Mode is the execution model of a dialect.
type Mode int

const (
	// ModeBatch compiles to one-shot queries.
	ModeBatch Mode = iota
	// ModeStreaming compiles to continuous queries with event-time semantics.
	ModeStreaming
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeBatch:
		return "batch"
	case ModeStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// NormalizationStrategy defines how unquoted identifiers are normalized.
type NormalizationStrategy int

const (
	// NormLowercase normalizes unquoted identifiers to lowercase (default SQL behavior).
	NormLowercase NormalizationStrategy = iota
	// NormUppercase normalizes unquoted identifiers to uppercase (Snowflake, Oracle).
	NormUppercase
	// NormCaseSensitive preserves identifier case exactly (Flink, ClickHouse).
	NormCaseSensitive
	// NormCaseInsensitive normalizes to lowercase for comparison (Hive, DuckDB).
	NormCaseInsensitive
)

// IdentifierConfig defines how identifiers are quoted and normalized.
type IdentifierConfig struct {
	Quote         string                // Quote character: ", `, [
	QuoteEnd      string                // End quote character (usually same as Quote, ] for [)
	Escape        string                // Escape sequence: "", ``, ]]
	Normalization NormalizationStrategy // How to normalize unquoted identifiers
}

// IntervalStyle selects how an interval literal is spelled.
type IntervalStyle int

const (
	// IntervalQuotedValue renders INTERVAL '15' SECOND.
	IntervalQuotedValue IntervalStyle = iota
	// IntervalQuotedString renders INTERVAL '15 SECONDS'.
	IntervalQuotedString
	// IntervalBare renders INTERVAL 15 SECOND.
	IntervalBare
)

// PropertiesStyle selects how connector properties are attached to DDL.
type PropertiesStyle int

const (
	// PropertiesNone emits no properties clause.
	PropertiesNone PropertiesStyle = iota
	// PropertiesWith renders WITH ('key' = 'value', ...).
	PropertiesWith
	// PropertiesWithBare renders WITH (key = 'value', ...).
	PropertiesWithBare
	// PropertiesTblProperties renders TBLPROPERTIES ('key' = 'value', ...).
	PropertiesTblProperties
)

// DDLConfig describes how a dialect declares streaming sources and sinks.
// Watermark and Format are text/template sources.
type DDLConfig struct {
	// CreateKeyword follows CREATE: "TABLE" or "SOURCE".
	CreateKeyword string

	// Properties is the connector properties clause style.
	Properties PropertiesStyle

	// Property keys for the structured source fields. An empty FormatKey
	// moves the format out of the properties clause into Format.
	ConnectorKey string
	TopicKey     string
	FormatKey    string

	// Watermark renders inside the column list. Fields: .Column, .Delay.
	// Empty means the dialect cannot declare watermarks.
	Watermark string

	// Format renders after the properties clause. Fields: .Format.
	Format string

	// SupportsIfExists enables DROP ... IF EXISTS and CREATE ... IF NOT EXISTS.
	SupportsIfExists bool

	// SupportsReplaceView enables CREATE OR REPLACE VIEW.
	SupportsReplaceView bool
}
