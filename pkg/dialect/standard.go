package dialect

// StandardFunctions returns the ANSI spelling of the canonical functions.
// Dialects start from this table and override or remove entries. Each call
// returns a fresh map.
func StandardFunctions() map[string]string {
	return map[string]string{
		// Aggregates
		"sum":            "SUM",
		"mean":           "AVG",
		"min":            "MIN",
		"max":            "MAX",
		"count":          "COUNT",
		"count_distinct": "COUNT(DISTINCT %s)",
		"count_star":     "COUNT(*)",

		// Scalars
		"abs":    "ABS",
		"upper":  "UPPER",
		"lower":  "LOWER",
		"length": "CHAR_LENGTH",

		// Ranking
		"row_number": "ROW_NUMBER",
		"rank":       "RANK",
		"dense_rank": "DENSE_RANK",

		// Date and time parts
		"extract_year":         "EXTRACT(YEAR FROM %s)",
		"extract_quarter":      "EXTRACT(QUARTER FROM %s)",
		"extract_month":        "EXTRACT(MONTH FROM %s)",
		"extract_week_of_year": "EXTRACT(WEEK FROM %s)",
		"extract_day_of_year":  "EXTRACT(DOY FROM %s)",
		"extract_day":          "EXTRACT(DAY FROM %s)",
		"extract_day_of_week":  "EXTRACT(DOW FROM %s)",
		"extract_hour":         "EXTRACT(HOUR FROM %s)",
		"extract_minute":       "EXTRACT(MINUTE FROM %s)",
		"extract_second":       "EXTRACT(SECOND FROM %s)",
	}
}

// StandardTypeNames returns the ANSI spelling of the canonical types.
func StandardTypeNames() map[string]string {
	return map[string]string{
		"boolean":   "BOOLEAN",
		"int8":      "SMALLINT",
		"int16":     "SMALLINT",
		"int32":     "INTEGER",
		"int64":     "BIGINT",
		"float32":   "REAL",
		"float64":   "DOUBLE PRECISION",
		"decimal":   "DECIMAL",
		"string":    "VARCHAR",
		"date":      "DATE",
		"time":      "TIME",
		"timestamp": "TIMESTAMP",
		"interval":  "INTERVAL",
	}
}

// StandardReserved lists SQL:2016 reserved words that every dialect quotes.
var StandardReserved = []string{
	"all", "and", "any", "array", "as", "asc", "between", "both", "by",
	"case", "cast", "check", "collate", "column", "constraint", "create",
	"cross", "current", "current_date", "current_time", "current_timestamp",
	"default", "delete", "desc", "distinct", "drop", "else", "end", "except",
	"exists", "false", "fetch", "filter", "for", "foreign", "from", "full",
	"group", "having", "in", "inner", "insert", "intersect", "interval",
	"into", "is", "join", "leading", "left", "like", "limit", "natural",
	"not", "null", "of", "offset", "on", "or", "order", "outer", "over",
	"partition", "primary", "range", "references", "right", "row", "rows",
	"select", "some", "table", "then", "to", "trailing", "true", "union",
	"unique", "update", "user", "using", "values", "when", "where",
	"window", "with",
}
