package sqlmapper

import (
	"fmt"
	"strconv"
	"strings"
)

// Placeholder styles produced by Rewrite and reported by BindTypeFor.
const (
	UNKNOWN BindType = iota
	QUESTION
	DOLLAR
	AT
)

// BindType is the positional placeholder style of a driver.
type BindType int

var defaultBinds = map[BindType][]string{
	DOLLAR:   {"postgres", "pgx", "pgx/v4", "pgx/v5", "pq-timeouts", "cloudsqlpostgres", "ql", "nrpostgres", "cockroach"},
	QUESTION: {"mysql", "sqlite3", "sqlite", "nrmysql", "nrsqlite3", "mariadb"},
	AT:       {"sqlserver", "mssql", "azuresql"},
}

// BindTypeFor returns the bindtype for a given database given a drivername.
func BindTypeFor(driverName string) BindType {
	for bind, names := range defaultBinds {
		for _, name := range names {
			if name == driverName {
				return bind
			}
		}
	}
	return UNKNOWN
}

func (b BindType) marker(n int) string {
	switch b {
	case DOLLAR:
		return "$" + strconv.Itoa(n)
	case AT:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

type nameToken struct {
	name  string
	start int
	end   int
}

// scanNames finds :name tokens in a single pass. A colon starts a token only
// when the previous byte is not a colon and the next byte is a letter; the
// name continues over letters, digits, '_' and '.'.
func scanNames(query string) []nameToken {
	var tokens []nameToken
	prevColon := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c != ':' {
			prevColon = false
			continue
		}
		if prevColon || i+1 >= len(query) || !isNameStart(query[i+1]) {
			prevColon = true
			continue
		}
		j := i + 2
		for j < len(query) && isNamePart(query[j]) {
			j++
		}
		tokens = append(tokens, nameToken{name: query[i+1 : j], start: i, end: j})
		i = j - 1
		prevColon = false
	}
	return tokens
}

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNamePart(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9' || c == '_' || c == '.'
}

// Names returns the placeholder names of query in occurrence order, repeats included.
func Names(query string) []string {
	tokens := scanNames(query)
	names := make([]string, len(tokens))
	for i, tok := range tokens {
		names[i] = tok.name
	}
	return names
}

// Rewrite replaces every :name in query with the positional marker of bind
// and returns the values to send, one per marker in left-to-right order.
// A collection value expands to a parenthesised marker list, so
// "id in :ids" binds each member.
func Rewrite(bind BindType, query string, params Params) (string, []any, error) {
	tokens := scanNames(query)
	args := make([]any, 0, len(tokens))
	if len(tokens) == 0 {
		return query, args, nil
	}
	var b strings.Builder
	b.Grow(len(query) + len(tokens)*2)
	last := 0
	for _, tok := range tokens {
		raw, ok := params[tok.name]
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", ErrMissingParam, tok.name)
		}
		v, err := ValueOf(raw)
		if err != nil {
			return "", nil, fmt.Errorf("parameter %q: %w", tok.name, err)
		}
		b.WriteString(query[last:tok.start])
		last = tok.end
		if v.Kind() != KindList {
			args = append(args, v.ArgFor(bind))
			b.WriteString(bind.marker(len(args)))
			continue
		}
		items := v.Items()
		if len(items) == 0 {
			return "", nil, fmt.Errorf("%w: %q", ErrEmptyCollection, tok.name)
		}
		b.WriteByte('(')
		for i, item := range items {
			if i > 0 {
				b.WriteString(", ")
			}
			args = append(args, item.ArgFor(bind))
			b.WriteString(bind.marker(len(args)))
		}
		b.WriteByte(')')
	}
	b.WriteString(query[last:])
	return b.String(), args, nil
}
