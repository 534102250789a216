package sqlmapper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Query is a named statement template loaded from a .sql file.
type Query struct {
	Doc   string `json:"doc"`
	Name  string `json:"name"`
	Query string `json:"query"`
}

// Queries holds named templates. A file declares them as
//
//	-- sql-name: pets-by-color
//	-- doc: pets of the given colors
//	select * from pets where color in :colors
//	-- sql-end
//
// The zero value is empty and ready to use.
type Queries struct {
	mu      sync.RWMutex
	queries map[string]*Query
}

var (
	sqlTemplateRE = regexp.MustCompile(`(?s)--\s*sql-name:\s*(.+?)\s*\n(.*?)\s*--\s*sql-end`)
	docTemplateRE = regexp.MustCompile(`--\s*doc:\s*(.+?)\s*(?:\n|$)`)
)

// ParseQueries reads every sql-name block of content.
func ParseQueries(content string) *Queries {
	q := &Queries{}
	q.add(scanContent(content))
	return q
}

func LoadFromFile(file string) (*Queries, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return ParseQueries(string(content)), nil
}

// LoadFromDir reads every *.sql file of dir. A later file wins when two
// declare the same name.
func LoadFromDir(dir string) (*Queries, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	q := &Queries{}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		q.add(scanContent(string(content)))
	}
	return q, nil
}

func (q *Queries) add(queries map[string]*Query) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.queries == nil {
		q.queries = make(map[string]*Query, len(queries))
	}
	for name, query := range queries {
		q.queries[name] = query
	}
}

// Set registers or replaces a template.
func (q *Queries) Set(name, query string) {
	q.add(map[string]*Query{name: {Name: name, Query: query}})
}

func (q *Queries) Get(name string) (*Query, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	query, ok := q.queries[name]
	return query, ok
}

// Names lists the registered names in sorted order.
func (q *Queries) Names() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	names := make([]string, 0, len(q.queries))
	for name := range q.queries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func scanContent(content string) map[string]*Query {
	queries := make(map[string]*Query)
	for _, match := range sqlTemplateRE.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(match[1])
		body := match[2]
		q := &Query{Name: name}
		if doc := docTemplateRE.FindStringSubmatch(body); len(doc) == 2 {
			q.Doc = doc[1]
			body = docTemplateRE.ReplaceAllString(body, "")
		}
		q.Query = strings.TrimSpace(body)
		if name != "" && q.Query != "" {
			queries[name] = q
		}
	}
	return queries
}

// WithQueries makes the templates of q runnable by name through Session.Run.
func WithQueries(q *Queries) Option {
	return func(p *Pool) { p.queries = q }
}

// Run executes the registered template called name.
func (s *Session) Run(ctx context.Context, mode Mode, name string, params Params) (Result, error) {
	if s.pool.queries == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}
	query, ok := s.pool.queries.Get(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}
	return s.Execute(ctx, mode, query.Query, params)
}
