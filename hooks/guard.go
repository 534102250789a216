package hooks

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/oarkflow/log"

	"github.com/oarkflow/sqlmapper/utils/sqlstr"
)

// ErrUnsafeParam is returned by Guard when a bound text value looks like an
// injection attempt.
var ErrUnsafeParam = errors.New("hooks: unsafe query parameter")

type pattern struct {
	name string
	re   *regexp.Regexp
}

var injectionPatterns = []pattern{
	{"boolean_tautology", regexp.MustCompile(`\b(?:or|and)\b\s+\d+\s*=\s*\d+`)},
	{"union_select", regexp.MustCompile(`union\b\s+(?:all\s+)?select`)},
	{"sql_comment", regexp.MustCompile(`--|#`)},
	{"piggyback_query", regexp.MustCompile(`;.*\b(?:select|update|insert|delete|drop|create|alter|truncate)\b`)},
	{"sql_command", regexp.MustCompile(`\b(?:drop|alter|create|truncate)\b\s+\b(?:table|database|index|view)\b`)},
	{"inline_comment", regexp.MustCompile(`/\*.*?\*/`)},
	{"exec_command", regexp.MustCompile(`\b(?:exec|execute)\b\s*\(`)},
	{"sleep_function", regexp.MustCompile(`\b(?:sleep|pg_sleep)\s*\(`)},
	{"benchmark_function", regexp.MustCompile(`\bbenchmark\s*\(`)},
	{"information_schema", regexp.MustCompile(`information_schema`)},
	{"load_file", regexp.MustCompile(`\bload_file\s*\(`)},
	{"into_outfile", regexp.MustCompile(`\binto\s+outfile\b`)},
	{"hex_encoding", regexp.MustCompile(`\b0x[0-9a-f]{4,}\b`)},
	{"blind_injection", regexp.MustCompile(`\b(?:if\s*\(|case\s+when\b)`)},
}

// Detect returns the names of the injection patterns input matches.
func Detect(input string) []string {
	s := strings.ToLower(strings.TrimSpace(input))
	var found []string
	for _, p := range injectionPatterns {
		if p.re.MatchString(s) {
			found = append(found, p.name)
		}
	}
	return found
}

// Guard rejects statements whose bound text values match an injection
// pattern. Only arguments are inspected: templates come from the program.
type Guard struct {
	log   *log.Logger
	allow map[string]bool
}

// NewGuard builds a Guard. Patterns named in allow are not reported.
func NewGuard(allow ...string) *Guard {
	g := &Guard{log: &log.DefaultLogger, allow: make(map[string]bool, len(allow))}
	for _, name := range allow {
		g.allow[name] = true
	}
	return g
}

func (g *Guard) WithLogger(logger *log.Logger) *Guard {
	g.log = logger
	return g
}

func (g *Guard) Before(ctx context.Context, query string, args ...any) (context.Context, error) {
	for i, arg := range args {
		text, ok := arg.(string)
		if !ok {
			continue
		}
		var hits []string
		for _, name := range Detect(text) {
			if !g.allow[name] {
				hits = append(hits, name)
			}
		}
		if len(hits) == 0 {
			continue
		}
		g.log.Warn().Str("query", sqlstr.Clean(query)).Int("arg", i+1).Strs("patterns", hits).Msg("suspicious parameter")
		return ctx, fmt.Errorf("%w: argument %d matches %s", ErrUnsafeParam, i+1, strings.Join(hits, ", "))
	}
	return ctx, nil
}
