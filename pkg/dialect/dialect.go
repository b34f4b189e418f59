// Package dialect provides the runtime view of a SQL dialect: identifier
// quoting, function and type spelling, interval literals and DDL templates.
//
// Dialect definitions are pure data (core.DialectConfig). Concrete dialects
// are built from pkg/dialects/*/ packages and looked up through an immutable
// Registry passed explicitly to the compiler.
package dialect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/leapstack-labs/xsql/pkg/core"
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers core.IdentifierConfig

	config *core.DialectConfig

	// Spelling tables (keys are canonical snake_case names)
	functions map[string]string
	operators map[string]core.OperatorDef
	typeNames map[string]string

	reservedWords map[string]struct{} // normalized

	watermark *template.Template
	format    *template.Template
}

// Config returns a copy of the pure data configuration for this dialect.
func (d *Dialect) Config() *core.DialectConfig {
	cfg := d.config.Clone()
	cfg.Functions = make(map[string]string, len(d.functions))
	for k, v := range d.functions {
		cfg.Functions[k] = v
	}
	cfg.Operators = make(map[string]core.OperatorDef, len(d.operators))
	for k, v := range d.operators {
		cfg.Operators[k] = v
	}
	cfg.TypeNames = make(map[string]string, len(d.typeNames))
	for k, v := range d.typeNames {
		cfg.TypeNames[k] = v
	}
	cfg.Reserved = make([]string, 0, len(d.reservedWords))
	for w := range d.reservedWords {
		cfg.Reserved = append(cfg.Reserved, w)
	}
	sort.Strings(cfg.Reserved)
	return cfg
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// Mode returns whether the dialect is batch or streaming.
func (d *Dialect) Mode() core.Mode { return d.config.Mode }

// IsStreaming reports whether the dialect compiles continuous queries.
func (d *Dialect) IsStreaming() bool { return d.config.Mode == core.ModeStreaming }

// SupportsNativeDistinct reports whether SELECT DISTINCT is available.
func (d *Dialect) SupportsNativeDistinct() bool { return d.config.SupportsNativeDistinct }

// SupportsQualify reports whether the QUALIFY clause is available.
func (d *Dialect) SupportsQualify() bool { return d.config.SupportsQualify }

// SupportsFilterClause reports whether aggregates accept FILTER (WHERE ...).
func (d *Dialect) SupportsFilterClause() bool { return d.config.SupportsFilterClause }

// SupportsWindowTVF reports whether TUMBLE and HOP table-valued functions are available.
func (d *Dialect) SupportsWindowTVF() bool { return d.config.SupportsWindowTVF }

// RankIsOneIndexed reports whether RANK() and friends start at 1.
func (d *Dialect) RankIsOneIndexed() bool { return d.config.RankIsOneIndexed }

// ArrayBaseIndex returns the index of the first array element.
func (d *Dialect) ArrayBaseIndex() int { return d.config.ArrayBaseIndex }

// FrameTimeUnit returns the unit interval frame bounds are rendered in,
// or core.TimeUnitNone when only row-count bounds are supported.
func (d *Dialect) FrameTimeUnit() core.TimeUnit { return d.config.FrameTimeUnit }

// DDL returns the DDL configuration.
func (d *Dialect) DDL() core.DDLConfig { return d.config.DDL }

// NormalizeName normalizes an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case core.NormUppercase:
		return strings.ToUpper(name)
	case core.NormLowercase, core.NormCaseInsensitive:
		return strings.ToLower(name)
	default: // NormCaseSensitive
		return name
	}
}

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reservedWords[strings.ToLower(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any existing quote end characters in the name (e.g., ] -> ]])
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteIdentifierIfNeeded quotes an identifier when it is a reserved word,
// contains characters outside [A-Za-z0-9_], starts with a digit, or would be
// case-folded by the dialect.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.needsQuoting(name) {
		return d.QuoteIdentifier(name)
	}
	return name
}

func (d *Dialect) needsQuoting(name string) bool {
	if name == "" || d.IsReservedWord(name) {
		return true
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return true
			}
		default:
			return true
		}
	}
	return d.NormalizeName(name) != name
}

// QuoteString renders a single-quoted SQL string literal.
func (d *Dialect) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Function returns the spelling of a canonical function.
func (d *Dialect) Function(key string) (string, bool) {
	s, ok := d.functions[key]
	return s, ok
}

// Call renders a call of the canonical function key over rendered operands.
// A spelling containing "(" is a fmt pattern; otherwise it is a function name.
func (d *Dialect) Call(key string, args ...string) (string, error) {
	spelling, ok := d.functions[key]
	if !ok {
		return "", &core.UnsupportedOperationError{Op: key, Dialect: d.Name, Message: core.ErrMsgNoFunctionSpell}
	}
	if strings.Contains(spelling, "(") {
		vals := make([]any, len(args))
		for i, a := range args {
			vals[i] = a
		}
		return fmt.Sprintf(spelling, vals...), nil
	}
	return spelling + "(" + strings.Join(args, ", ") + ")", nil
}

// Operator returns the infix or prefix spelling of a canonical operator.
func (d *Dialect) Operator(key string) (core.OperatorDef, bool) {
	op, ok := d.operators[key]
	return op, ok
}

// TypeName returns the dialect spelling of a canonical type name.
func (d *Dialect) TypeName(canonical string) (string, error) {
	s, ok := d.typeNames[canonical]
	if !ok {
		return "", &core.UnsupportedOperationError{Op: "type " + canonical, Dialect: d.Name, Message: core.ErrMsgNoTypeSpell}
	}
	return s, nil
}

// IntervalLiteral renders an interval literal in the dialect's style.
func (d *Dialect) IntervalLiteral(value int64, unit core.TimeUnit) string {
	v := strconv.FormatInt(value, 10)
	kw := unit.Keyword()
	switch d.config.IntervalStyle {
	case core.IntervalQuotedString:
		if value != 1 {
			kw += "S"
		}
		return "INTERVAL '" + v + " " + kw + "'"
	case core.IntervalBare:
		return "INTERVAL " + v + " " + kw
	default:
		return "INTERVAL '" + v + "' " + kw
	}
}

// CanDeclareWatermark reports whether the dialect has a watermark template.
func (d *Dialect) CanDeclareWatermark() bool { return d.watermark != nil }

// RenderWatermark renders the watermark clause of a CREATE statement.
// column and delay are already rendered SQL.
func (d *Dialect) RenderWatermark(column, delay string) (string, error) {
	if d.watermark == nil {
		return "", &core.UnsupportedOperationError{Op: "watermark", Dialect: d.Name, Message: core.ErrMsgNoWatermarkInDDL}
	}
	var b strings.Builder
	if err := d.watermark.Execute(&b, struct{ Column, Delay string }{column, delay}); err != nil {
		return "", fmt.Errorf("render watermark for %s: %w", d.Name, err)
	}
	return b.String(), nil
}

// RenderFormat renders the format clause that follows the properties
// clause. It returns "" when the dialect keeps the format in the properties.
func (d *Dialect) RenderFormat(format string) (string, error) {
	if d.format == nil || format == "" {
		return "", nil
	}
	var b strings.Builder
	if err := d.format.Execute(&b, struct{ Format string }{format}); err != nil {
		return "", fmt.Errorf("render format for %s: %w", d.Name, err)
	}
	return b.String(), nil
}

// ---------- Builder ----------

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
	config  *core.DialectConfig
}

// New creates a dialect builder from a DialectConfig. The config is copied,
// so later changes to cfg do not affect the built dialect.
func New(cfg *core.DialectConfig) *Builder {
	c := cfg.Clone()
	b := &Builder{
		config: c,
		dialect: &Dialect{
			Name:          c.Name,
			Identifiers:   c.Identifiers,
			config:        c,
			functions:     make(map[string]string),
			operators:     make(map[string]core.OperatorDef),
			typeNames:     make(map[string]string),
			reservedWords: make(map[string]struct{}),
		},
	}
	if b.dialect.Identifiers.Quote == "" {
		b.Identifiers(`"`, `"`, `""`, b.dialect.Identifiers.Normalization)
	}
	return b
}

// Identifiers configures identifier quoting and normalization.
func (b *Builder) Identifiers(quote, quoteEnd, escape string, norm core.NormalizationStrategy) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:         quote,
		QuoteEnd:      quoteEnd,
		Escape:        escape,
		Normalization: norm,
	}
	b.config.Identifiers = b.dialect.Identifiers
	return b
}

// Functions adds or replaces function spellings.
func (b *Builder) Functions(spellings map[string]string) *Builder {
	for k, v := range spellings {
		b.dialect.functions[k] = v
	}
	return b
}

// WithoutFunctions removes function spellings, making the functions unsupported.
func (b *Builder) WithoutFunctions(keys ...string) *Builder {
	for _, k := range keys {
		delete(b.dialect.functions, k)
	}
	return b
}

// Operators adds or replaces operator spellings.
func (b *Builder) Operators(ops map[string]core.OperatorDef) *Builder {
	for k, v := range ops {
		b.dialect.operators[k] = v
	}
	return b
}

// TypeNames adds or replaces type spellings.
func (b *Builder) TypeNames(names map[string]string) *Builder {
	for k, v := range names {
		b.dialect.typeNames[k] = v
	}
	return b
}

// WithoutTypeNames removes type spellings, making the types unsupported.
func (b *Builder) WithoutTypeNames(keys ...string) *Builder {
	for _, k := range keys {
		delete(b.dialect.typeNames, k)
	}
	return b
}

// WithReservedWords registers words that need quoting when used as identifiers.
func (b *Builder) WithReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.dialect.reservedWords[strings.ToLower(w)] = struct{}{}
	}
	return b
}

// Build returns the constructed dialect. It panics if a DDL template does
// not parse, which only happens for malformed built-in definitions; use
// FromConfig for user-supplied configurations.
func (b *Builder) Build() *Dialect {
	d, err := b.build()
	if err != nil {
		panic(err)
	}
	return d
}

func (b *Builder) build() (*Dialect, error) {
	cfg := b.config
	d := b.dialect

	// Config maps are applied last so they override builder defaults
	b.Functions(cfg.Functions)
	b.Operators(cfg.Operators)
	b.TypeNames(cfg.TypeNames)
	b.WithReservedWords(cfg.Reserved...)

	funcs := template.FuncMap{"upper": strings.ToUpper, "lower": strings.ToLower}
	if src := cfg.DDL.Watermark; src != "" {
		t, err := template.New(d.Name + "-watermark").Funcs(funcs).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("dialect %s: parse watermark template: %w", d.Name, err)
		}
		d.watermark = t
	}
	if src := cfg.DDL.Format; src != "" {
		t, err := template.New(d.Name + "-format").Funcs(funcs).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("dialect %s: parse format template: %w", d.Name, err)
		}
		d.format = t
	}
	return d, nil
}

// FromConfig builds a dialect from a user-supplied configuration, returning
// template errors instead of panicking.
func FromConfig(cfg *core.DialectConfig) (*Dialect, error) {
	if cfg.Name == "" {
		return nil, ErrDialectRequired
	}
	return New(cfg).build()
}
