package dispatch

import (
	"context"

	"keyword_notify/internal/model"
)

// Applier evaluates a single message. fromCache suppresses notifications.
type Applier interface {
	Apply(ctx context.Context, msg model.Message, fromCache bool) bool
}

// Interceptor forwards message events to an Applier without altering them.
type Interceptor struct {
	applier Applier
}

// NewInterceptor creates an Interceptor for applier.
func NewInterceptor(applier Applier) *Interceptor {
	return &Interceptor{applier: applier}
}

// Intercept applies live messages with notifications and bulk-loaded
// history without, then returns ev unchanged.
func (i *Interceptor) Intercept(ctx context.Context, ev Event) Event {
	switch ev.Type {
	case MessageCreate:
		if ev.Message != nil {
			i.applier.Apply(ctx, *ev.Message, false)
		}
	case LoadMessagesSuccess:
		for _, m := range ev.Messages {
			i.applier.Apply(ctx, m, true)
		}
	}
	return ev
}

// Middleware returns the interceptor as a pipeline stage.
func (i *Interceptor) Middleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev Event) Event {
			return next(ctx, i.Intercept(ctx, ev))
		}
	}
}
