package sqlmapper

import (
	"context"
)

// Hook is the hook callback signature
type Hook func(ctx context.Context, query string, args ...any) (context.Context, error)

// ErrorHook is the error handling callback signature
type ErrorHook func(ctx context.Context, err error, query string, args ...any) error

// BeforeHook is implemented by values that want to run before each statement.
type BeforeHook interface {
	Before(ctx context.Context, query string, args ...any) (context.Context, error)
}

// AfterHook is implemented by values that want to run after each successful statement.
type AfterHook interface {
	After(ctx context.Context, query string, args ...any) (context.Context, error)
}

// ErrorerHook is implemented by values that want to see failed statements.
type ErrorerHook interface {
	OnError(ctx context.Context, err error, query string, args ...any) error
}

type hookSet struct {
	before  []Hook
	after   []Hook
	onError []ErrorHook
}

func (h *hookSet) use(hooks ...any) {
	for _, hook := range hooks {
		if v, ok := hook.(BeforeHook); ok {
			h.before = append(h.before, v.Before)
		}
		if v, ok := hook.(AfterHook); ok {
			h.after = append(h.after, v.After)
		}
		if v, ok := hook.(ErrorerHook); ok {
			h.onError = append(h.onError, v.OnError)
		}
	}
}

func (h *hookSet) handleBefore(ctx context.Context, query string, args ...any) (context.Context, error) {
	var err error
	for _, hook := range h.before {
		ctx, err = hook(ctx, query, args...)
		if err != nil {
			return ctx, err
		}
	}
	return ctx, nil
}

func (h *hookSet) handleAfter(ctx context.Context, query string, args ...any) (context.Context, error) {
	var err error
	for _, hook := range h.after {
		ctx, err = hook(ctx, query, args...)
		if err != nil {
			return ctx, err
		}
	}
	return ctx, nil
}

// handleError shows err to every error hook. What they return is ignored:
// the statement's own error always reaches the caller.
func (h *hookSet) handleError(ctx context.Context, err error, query string, args ...any) {
	for _, hook := range h.onError {
		_ = hook(ctx, err, query, args...)
	}
}

// withHooks runs fn between the before and after hooks. A failed statement
// is reported to the error hooks and its error returned unchanged.
func withHooks[T any](ctx context.Context, h *hookSet, query string, args []any, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	ctx, err := h.handleBefore(ctx, query, args...)
	if err != nil {
		return zero, err
	}
	data, err := fn(ctx)
	if err != nil {
		h.handleError(ctx, err, query, args...)
		return data, err
	}
	if _, err := h.handleAfter(ctx, query, args...); err != nil {
		return data, err
	}
	return data, nil
}
