// Package scheduler periodically backfills channel history through the
// dispatch pipeline as bulk loads.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"keyword_notify/internal/dispatch"
	"keyword_notify/internal/model"
)

// HistorySource returns recent messages of a channel.
type HistorySource interface {
	Fetch(ctx context.Context, channelID string) ([]model.Message, error)
}

// Scheduler loads history of the watched channels at a fixed interval.
type Scheduler struct {
	source   HistorySource
	pipeline *dispatch.Pipeline
	channels []string
	log      *slog.Logger
	tick     time.Duration
}

// New creates a Scheduler for channels. A zero interval backfills once at
// start only.
func New(source HistorySource, pipeline *dispatch.Pipeline, channels []string, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		source:   source,
		pipeline: pipeline,
		channels: channels,
		log:      log,
		tick:     interval,
	}
}

// Run backfills every channel, then repeats each interval until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.backfillAll(ctx)
	if s.tick <= 0 {
		return
	}

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.backfillAll(ctx)
		}
	}
}

// Backfill loads one channel's history as a bulk load and returns the
// number of messages dispatched.
func (s *Scheduler) Backfill(ctx context.Context, channelID string) (int, error) {
	msgs, err := s.source.Fetch(ctx, channelID)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	s.pipeline.Dispatch(ctx, dispatch.Event{Type: dispatch.LoadMessagesSuccess, Messages: msgs})
	s.log.Debug("backfilled channel", "channel_id", channelID, "count", len(msgs))
	return len(msgs), nil
}

func (s *Scheduler) backfillAll(ctx context.Context) {
	for _, id := range s.channels {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.Backfill(ctx, id); err != nil {
			s.log.Error("backfill channel", "channel_id", id, "error", err)
		}
	}
}
