// Package dispatch provides the event pipeline that host message events flow
// through and the interceptor that feeds them to the tracker.
package dispatch

import (
	"context"
	"sync"

	"keyword_notify/internal/model"
)

// EventType identifies a host event.
type EventType string

// Event types the interceptor reacts to. Any other type passes through untouched.
const (
	MessageCreate       EventType = "MESSAGE_CREATE"
	LoadMessagesSuccess EventType = "LOAD_MESSAGES_SUCCESS"
)

// Event is a host event. Message is set for MessageCreate, Messages for
// LoadMessagesSuccess.
type Event struct {
	Type     EventType
	Message  *model.Message
	Messages []model.Message
}

// Handler processes an event and returns the event to hand on.
type Handler func(ctx context.Context, ev Event) Event

// Middleware decorates a Handler.
type Middleware func(next Handler) Handler

// Pipeline runs events through its middlewares in registration order.
type Pipeline struct {
	mu   sync.RWMutex
	mws  []Middleware
	sink Handler
}

// NewPipeline creates a Pipeline ending in sink. A nil sink returns events
// unchanged.
func NewPipeline(sink Handler) *Pipeline {
	if sink == nil {
		sink = func(_ context.Context, ev Event) Event { return ev }
	}
	return &Pipeline{sink: sink}
}

// Use appends a middleware.
func (p *Pipeline) Use(mw Middleware) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mws = append(p.mws, mw)
}

// Dispatch sends ev through every middleware and the sink.
func (p *Pipeline) Dispatch(ctx context.Context, ev Event) Event {
	p.mu.RLock()
	h := p.sink
	for i := len(p.mws) - 1; i >= 0; i-- {
		h = p.mws[i](h)
	}
	p.mu.RUnlock()
	return h(ctx, ev)
}
