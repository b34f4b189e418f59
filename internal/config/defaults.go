package config

// Default configuration values.
const (
	DefaultDialect = "ansi"
	DefaultOutput  = "-"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "xsql.yaml"
	ConfigFileNameAlt = "xsql.yml"
)

// EnvPrefix prefixes environment variables read as configuration.
const EnvPrefix = "XSQL_"

func defaults() map[string]any {
	return map[string]any{
		"dialects":      []string{DefaultDialect},
		"temporary":     false,
		"if_not_exists": false,
		"verbose":       false,
		"output":        DefaultOutput,
	}
}
