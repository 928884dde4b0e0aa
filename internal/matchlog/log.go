// Package matchlog keeps the bounded history of messages that matched a rule.
package matchlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"keyword_notify/internal/model"
	"keyword_notify/internal/storage"
)

// StorageKey is the key the log is persisted under.
const StorageKey = "keyword_notify.log"

// MaxEntries is the number of entries retained.
const MaxEntries = 50

// DismissedKey is the key the IDs of deleted entries are persisted under.
const DismissedKey = "keyword_notify.dismissed"

// MaxDismissed is the number of deleted IDs remembered, oldest dropped first.
const MaxDismissed = 200

// Subscriber is called with a snapshot of the log after every change.
type Subscriber func(entries []model.Message)

// Log holds at most MaxEntries messages, newest first, unique by ID.
// Changes are persisted as a JSON array of JSON-encoded entries.
type Log struct {
	mu      sync.Mutex
	kv      storage.Storage
	log     *slog.Logger
	entries []model.Message
	subs    []Subscriber

	dismissed []string
}

// New creates an empty Log backed by kv.
func New(kv storage.Storage, log *slog.Logger) *Log {
	return &Log{kv: kv, log: log}
}

// Subscribe registers fn to be called after every change.
func (l *Log) Subscribe(fn Subscriber) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, fn)
}

// Load restores persisted entries and dismissed IDs. Each entry is
// re-inserted, so ordering, uniqueness and the size cap are re-applied.
// Subscribers are not notified and nothing is written back.
func (l *Log) Load(ctx context.Context) error {
	if err := l.loadDismissed(ctx); err != nil {
		return err
	}

	data, err := l.kv.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load log: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode log: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, s := range raw {
		var m model.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			l.log.Warn("skip malformed log entry", "index", i, "error", err)
			continue
		}
		l.insert(m)
	}
	return nil
}

// Add inserts msg unless an entry with the same ID is present.
// It reports whether the log changed.
func (l *Log) Add(ctx context.Context, msg model.Message) bool {
	if msg.ID == "" {
		return false
	}
	l.mu.Lock()
	if !l.insert(msg) {
		l.mu.Unlock()
		return false
	}
	snapshot := slices.Clone(l.entries)
	subs := slices.Clone(l.subs)
	l.mu.Unlock()

	l.changed(ctx, snapshot, subs)
	return true
}

// Delete removes the entry with the given ID and reports whether it existed.
// The ID is remembered as dismissed.
func (l *Log) Delete(ctx context.Context, id string) bool {
	l.mu.Lock()
	idx := slices.IndexFunc(l.entries, func(m model.Message) bool { return m.ID == id })
	if idx < 0 {
		l.mu.Unlock()
		return false
	}
	l.entries = slices.Delete(l.entries, idx, idx+1)
	if !slices.Contains(l.dismissed, id) {
		l.dismissed = append(l.dismissed, id)
		if over := len(l.dismissed) - MaxDismissed; over > 0 {
			l.dismissed = slices.Delete(l.dismissed, 0, over)
		}
	}
	snapshot := slices.Clone(l.entries)
	dismissed := slices.Clone(l.dismissed)
	subs := slices.Clone(l.subs)
	l.mu.Unlock()

	if err := l.persistDismissed(ctx, dismissed); err != nil {
		l.log.Error("persist dismissed ids", "error", err)
	}
	l.changed(ctx, snapshot, subs)
	return true
}

// Dismissed reports whether an entry with the given ID was deleted.
func (l *Log) Dismissed(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.dismissed, id)
}

// Entries returns a snapshot of the log, newest first.
func (l *Log) Entries() []model.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.entries)
}

// Get returns the entry with the given ID.
func (l *Log) Get(id string) (model.Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.entries {
		if m.ID == id {
			return m, true
		}
	}
	return model.Message{}, false
}

// insert must be called with mu held.
func (l *Log) insert(msg model.Message) bool {
	if slices.ContainsFunc(l.entries, func(m model.Message) bool { return m.ID == msg.ID }) {
		return false
	}
	// first position whose entry is older than msg; ties keep insertion order
	pos := len(l.entries)
	for i, m := range l.entries {
		if m.Timestamp.Before(msg.Timestamp) {
			pos = i
			break
		}
	}
	if pos >= MaxEntries {
		return false
	}
	l.entries = slices.Insert(l.entries, pos, msg)
	if len(l.entries) > MaxEntries {
		l.entries = l.entries[:MaxEntries]
	}
	return true
}

func (l *Log) changed(ctx context.Context, snapshot []model.Message, subs []Subscriber) {
	if err := l.persist(ctx, snapshot); err != nil {
		l.log.Error("persist match log", "error", err)
	}
	for _, fn := range subs {
		fn(snapshot)
	}
}

// persist stores entries under StorageKey. An empty log removes the key.
func (l *Log) persist(ctx context.Context, entries []model.Message) error {
	if len(entries) == 0 {
		return l.kv.Delete(ctx, StorageKey)
	}
	raw := make([]string, 0, len(entries))
	for _, m := range entries {
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode entry %s: %w", m.ID, err)
		}
		raw = append(raw, string(b))
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode log: %w", err)
	}
	return l.kv.Set(ctx, StorageKey, data)
}

func (l *Log) loadDismissed(ctx context.Context) error {
	data, err := l.kv.Get(ctx, DismissedKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load dismissed ids: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("decode dismissed ids: %w", err)
	}
	if over := len(ids) - MaxDismissed; over > 0 {
		ids = ids[over:]
	}

	l.mu.Lock()
	l.dismissed = ids
	l.mu.Unlock()
	return nil
}

func (l *Log) persistDismissed(ctx context.Context, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode dismissed ids: %w", err)
	}
	return l.kv.Set(ctx, DismissedKey, data)
}
