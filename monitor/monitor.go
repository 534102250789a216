package monitor

import (
	"context"
	"sort"
	"time"

	"github.com/oarkflow/sqlmapper"
)

// Stat is one named PostgreSQL statistics query.
type Stat struct {
	Name  string
	Query string
}

// Stats are the diagnostics collected by PostgresStats. long_running_queries
// takes the :threshold parameter.
var Stats = []Stat{
	{"long_running_queries", `
SELECT pid,
       usename,
       query_start,
       now() - query_start AS query_time,
       query,
       state,
       wait_event_type,
       wait_event
FROM pg_stat_activity
WHERE now() - query_start > :threshold::interval AND state != 'idle'`},
	{"tuple_info", `
SELECT relname AS "relation",
       EXTRACT(EPOCH FROM current_timestamp - last_autovacuum) AS since_last_av,
       autovacuum_count AS av_count,
       n_tup_ins, n_tup_upd, n_tup_del, n_live_tup, n_dead_tup
FROM pg_stat_all_tables
WHERE schemaname = 'public'
ORDER BY relname`},
	{"cached_tables", `
SELECT relname AS "relation",
       heap_blks_read AS heap_read,
       heap_blks_hit AS heap_hit,
       (heap_blks_hit * 100) / NULLIF(heap_blks_hit + heap_blks_read, 0) AS ratio
FROM pg_statio_user_tables`},
	{"cached_total", `
SELECT sum(heap_blks_read) AS heap_read,
       sum(heap_blks_hit) AS heap_hit,
       sum(heap_blks_hit) * 100 / NULLIF(sum(heap_blks_hit) + sum(heap_blks_read), 0) AS ratio
FROM pg_statio_user_tables`},
	{"relation_sizes", `
SELECT relname AS "relation",
       pg_size_pretty(pg_total_relation_size(c.oid)) AS total_size,
       pg_size_pretty(pg_relation_size(c.oid)) AS size
FROM pg_class c
LEFT JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = 'public' AND c.relkind <> 'i'
ORDER BY pg_total_relation_size(c.oid) DESC`},
	{"db_size", `SELECT pg_size_pretty(pg_database_size(current_database())) AS size`},
}

// PostgresStats runs every query of Stats on s. Queries running longer than
// threshold are reported as long running.
func PostgresStats(ctx context.Context, s *sqlmapper.Session, threshold time.Duration) (map[string][]sqlmapper.Row, error) {
	params := sqlmapper.Params{"threshold": threshold}
	collection := make(map[string][]sqlmapper.Row, len(Stats))
	for _, stat := range Stats {
		rows, err := s.SelectAll(ctx, stat.Query, params)
		if err != nil {
			return nil, err
		}
		collection[stat.Name] = rows
	}
	return collection, nil
}

// Names returns the stat names in sorted order.
func Names() []string {
	names := make([]string, len(Stats))
	for i, stat := range Stats {
		names[i] = stat.Name
	}
	sort.Strings(names)
	return names
}
