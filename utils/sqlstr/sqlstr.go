package sqlstr

import (
	"regexp"
	"strings"
)

var (
	commentRE = regexp.MustCompile(`/\*(.*?)\*/|--[^\n]*`)
	spaceRE   = regexp.MustCompile(`\s+`)
	literalRE = regexp.MustCompile(`\s'(.*?)'|\s(true|TRUE)|\s(false|FALSE)|\s[0-9]+\.[0-9]+|\s[0-9]+`)
)

// Clean strips comments and collapses whitespace so a statement fits on one
// log line.
func Clean(query string) string {
	query = commentRE.ReplaceAllString(query, "")
	query = spaceRE.ReplaceAllString(query, " ")
	return strings.TrimSpace(query)
}

// Obscure replaces inline literals with "?" so logged statements carry no values.
func Obscure(query string) string {
	return literalRE.ReplaceAllString(query, " ?")
}
