// Package config loads xsql configuration.
//
// Values are layered, lowest to highest: built-in defaults, xsql.yaml,
// XSQL_ environment variables and command-line flags.
package config

// Config holds the resolved CLI configuration.
type Config struct {
	// Dialects are the target dialect names compiled for by default.
	Dialects    []string `koanf:"dialects"`
	Pretty      bool     `koanf:"pretty"`
	Temporary   bool     `koanf:"temporary"`
	IfNotExists bool     `koanf:"if_not_exists"`
	Verbose     bool     `koanf:"verbose"`

	// Output is the file compiled SQL is written to. "-" is stdout.
	Output string `koanf:"output"`

	// DialectOverrides replaces feature flags and spellings of built-in
	// dialects, keyed by dialect name. See DialectOverride.
	DialectOverrides map[string]map[string]any `koanf:"dialect_overrides"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `koanf:"-"`

	// PrettySet reports whether pretty was set explicitly rather than
	// left to the terminal default.
	PrettySet bool `koanf:"-"`
}
