// Package notify holds the transient user notifications ("toasts").
package notify

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pauljones0/commodity-tracker/internal/metrics"
)

// DefaultDuration is how long an entry stays when no duration is given.
const DefaultDuration = 4 * time.Second

// Kind selects how an entry is presented.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Entry is one visible notification.
type Entry struct {
	ID      uint64    `json:"id"`
	Message string    `json:"message"`
	Kind    Kind      `json:"kind"`
	Expires time.Time `json:"expires_at"`
}

// Queue holds entries until their own timer removes them. Entries never
// affect each other's lifetime.
type Queue struct {
	seq      atomic.Uint64
	duration time.Duration

	mu      sync.Mutex
	entries map[uint64]Entry
	timers  map[uint64]*time.Timer
	closed  bool
}

// NewQueue returns a queue whose default lifetime is d, or
// DefaultDuration when d is not positive.
func NewQueue(d time.Duration) *Queue {
	if d <= 0 {
		d = DefaultDuration
	}
	return &Queue{
		duration: d,
		entries:  make(map[uint64]Entry),
		timers:   make(map[uint64]*time.Timer),
	}
}

// Push adds an entry and returns its id. A non-positive d uses the
// queue's default.
func (q *Queue) Push(message string, kind Kind, d time.Duration) uint64 {
	if d <= 0 {
		d = q.duration
	}
	id := q.seq.Add(1)

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return id
	}
	q.entries[id] = Entry{ID: id, Message: message, Kind: kind, Expires: time.Now().Add(d)}
	q.timers[id] = time.AfterFunc(d, func() { q.remove(id) })
	metrics.NotificationPushed(string(kind))
	return id
}

func (q *Queue) Success(message string) { q.Push(message, KindSuccess, 0) }
func (q *Queue) Error(message string)   { q.Push(message, KindError, 0) }
func (q *Queue) Info(message string)    { q.Push(message, KindInfo, 0) }

// Dismiss removes an entry before its timer fires.
func (q *Queue) Dismiss(id uint64) {
	q.remove(id)
}

// Entries returns the visible entries, oldest first.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	out := make([]Entry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e)
	}
	q.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close stops every pending timer and drops all entries.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	clear(q.entries)
	q.closed = true
}

func (q *Queue) remove(id uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	delete(q.entries, id)
}
