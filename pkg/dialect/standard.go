package dialect

import "strings"

// SplitPath splits a dotted navigation path into its segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// JSONPath renders a dotted navigation path as a $-rooted JSONPath
// expression ("name.given" -> "$.name.given"). Engines that consume
// JSONPath strings (DuckDB, SQLite) share this spelling.
func JSONPath(path string) string {
	if path == "" {
		return "$"
	}
	return "$." + path
}

// EscapeString doubles single quotes for embedding in a SQL string literal.
func EscapeString(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

// QuoteDouble quotes an identifier with double quotes, escaping embedded
// quotes. The default for every engine shipped here.
func QuoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
