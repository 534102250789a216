package hooks

import (
	"context"
	"time"

	"github.com/oarkflow/log"

	"github.com/oarkflow/sqlmapper/utils/sqlstr"
)

type startedKey struct{}

// Hook logs statements with their duration. With slowOnly set only
// statements slower than the threshold are logged.
type Hook struct {
	log      *log.Logger
	slowOnly bool
	duration time.Duration
}

func NewLogger(slowOnly bool, dur time.Duration) *Hook {
	return &Hook{
		log:      &log.DefaultLogger,
		slowOnly: slowOnly,
		duration: dur,
	}
}

// WithLogger sends entries to logger instead of log.DefaultLogger.
func (h *Hook) WithLogger(logger *log.Logger) *Hook {
	h.log = logger
	return h
}

func (h *Hook) Before(ctx context.Context, query string, args ...any) (context.Context, error) {
	return context.WithValue(ctx, startedKey{}, time.Now()), nil
}

func (h *Hook) After(ctx context.Context, query string, args ...any) (context.Context, error) {
	since := elapsed(ctx)
	switch {
	case h.slowOnly && since > h.duration:
		h.log.Warn().Str("query", sqlstr.Clean(query)).Any("args", args).Dur("took", since).Msg("slow query")
	case !h.slowOnly:
		h.log.Info().Str("query", sqlstr.Clean(query)).Any("args", args).Dur("took", since).Msg("query")
	}
	return ctx, nil
}

func (h *Hook) OnError(ctx context.Context, err error, query string, args ...any) error {
	h.log.Error().Err(err).Str("query", sqlstr.Clean(query)).Any("args", args).Dur("took", elapsed(ctx)).Msg("query failed")
	return err
}

func elapsed(ctx context.Context) time.Duration {
	started, ok := ctx.Value(startedKey{}).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(started)
}
