package xcontext

import (
	"context"
	"time"
)

type (
	holderKey    struct{}
	startTimeKey struct{}
)

// holder carries the handler outcome to After middlewares and closers, which
// run in the same request scope but receive a descendant context.
type holder struct {
	response any
	err      error
}

func WithResponseHolder(ctx context.Context) context.Context {
	return context.WithValue(ctx, holderKey{}, &holder{})
}

func SetError(ctx context.Context, err error) {
	if h, ok := ctx.Value(holderKey{}).(*holder); ok {
		h.err = err
	}
}

func Error(ctx context.Context) error {
	if h, ok := ctx.Value(holderKey{}).(*holder); ok {
		return h.err
	}

	return nil
}

func SetResponse(ctx context.Context, resp any) {
	if h, ok := ctx.Value(holderKey{}).(*holder); ok {
		h.response = resp
	}
}

func GetResponse(ctx context.Context) any {
	if h, ok := ctx.Value(holderKey{}).(*holder); ok {
		return h.response
	}

	return nil
}

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

func StartTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(startTimeKey{}).(time.Time); ok {
		return t
	}

	return time.Time{}
}
