// Package gatewaytest provides an in-memory gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Call records one gateway operation.
type Call struct {
	Op      string
	Table   string
	Query   gateway.Query
	Payload map[string]any
}

type account struct {
	password string
	user     gateway.User
}

// Fake implements gateway.Tables, gateway.Auth and gateway.Functions in
// memory. Rows are held as decoded JSON objects, so payloads go through
// the same encoding as with a real backend.
type Fake struct {
	mu     sync.Mutex
	tables map[string][]map[string]any
	calls  []Call
	tick   int64

	// Per-operation failures keyed by table ("" matches every table).
	SelectErr map[string]error
	InsertErr map[string]error
	UpdateErr map[string]error
	DeleteErr map[string]error

	// OnUpdate runs before an update is applied, outside the lock.
	OnUpdate func(q gateway.Query, payload map[string]any)

	accounts   map[string]account
	session    *gateway.Session
	SessionErr error
	SignInErr  error
	SignOutErr error
	listeners  map[int]gateway.AuthListener
	nextListen int

	functions   map[string]func(ctx context.Context, body map[string]any) error
	invocations []Call
}

func New() *Fake {
	return &Fake{
		tables:    make(map[string][]map[string]any),
		SelectErr: make(map[string]error),
		InsertErr: make(map[string]error),
		UpdateErr: make(map[string]error),
		DeleteErr: make(map[string]error),
		accounts:  make(map[string]account),
		listeners: make(map[int]gateway.AuthListener),
		functions: make(map[string]func(context.Context, map[string]any) error),
	}
}

// Gateway wraps the fake as a gateway.Gateway.
func (f *Fake) Gateway() gateway.Gateway {
	return gateway.Gateway{Tables: f, Auth: f, Functions: f}
}

// Seed stores rows verbatim, encoding each through JSON first.
func (f *Fake) Seed(table string, rows ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		m, err := toMap(r)
		if err != nil {
			panic(fmt.Sprintf("gatewaytest: seed %s: %v", table, err))
		}
		if _, ok := m["id"]; !ok && table != "app_settings" {
			m["id"] = uuid.NewString()
		}
		f.tables[table] = append(f.tables[table], m)
	}
}

// Rows returns a copy of the stored rows of table.
func (f *Fake) Rows(table string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.tables[table]))
	for _, r := range f.tables[table] {
		out = append(out, copyMap(r))
	}
	return out
}

// Calls returns the table operations issued so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount counts calls of op ("" for any).
func (f *Fake) CallCount(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if op == "" || c.Op == op {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
	f.invocations = nil
}

func (f *Fake) failure(m map[string]error, table string) error {
	if err, ok := m[table]; ok {
		return err
	}
	return m[""]
}

func (f *Fake) Select(_ context.Context, q gateway.Query, dest any) error {
	if err := gateway.CheckSliceDest(dest); err != nil {
		return err
	}
	f.mu.Lock()
	f.calls = append(f.calls, Call{Op: "select", Table: q.Table, Query: q})
	if err := f.failure(f.SelectErr, q.Table); err != nil {
		f.mu.Unlock()
		return err
	}
	matched := f.match(q)
	f.mu.Unlock()

	if q.Order != nil {
		col, asc := q.Order.Column, q.Order.Ascending
		sort.SliceStable(matched, func(i, j int) bool {
			if asc {
				return less(matched[i][col], matched[j][col])
			}
			return less(matched[j][col], matched[i][col])
		})
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	b, err := json.Marshal(matched)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}

func (f *Fake) Insert(_ context.Context, table string, payload any, dest any) error {
	m, err := toMap(payload)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.calls = append(f.calls, Call{Op: "insert", Table: table, Payload: copyMap(m)})
	if err := f.failure(f.InsertErr, table); err != nil {
		f.mu.Unlock()
		return err
	}
	if _, ok := m["id"]; !ok {
		m["id"] = uuid.NewString()
	}
	if _, ok := m["created_at"]; !ok {
		m["created_at"] = f.now()
	}
	f.tables[table] = append(f.tables[table], m)
	stored := copyMap(m)
	f.mu.Unlock()

	if dest == nil {
		return nil
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}

func (f *Fake) Update(_ context.Context, q gateway.Query, payload any) error {
	m, err := toMap(payload)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.calls = append(f.calls, Call{Op: "update", Table: q.Table, Query: q, Payload: copyMap(m)})
	hook := f.OnUpdate
	f.mu.Unlock()

	if hook != nil {
		hook(q, copyMap(m))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(f.UpdateErr, q.Table); err != nil {
		return err
	}
	for _, row := range f.tables[q.Table] {
		if matches(row, q.Filters) {
			for k, v := range m {
				row[k] = v
			}
		}
	}
	return nil
}

func (f *Fake) Delete(_ context.Context, q gateway.Query) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "delete", Table: q.Table, Query: q})
	if err := f.failure(f.DeleteErr, q.Table); err != nil {
		return err
	}
	kept := f.tables[q.Table][:0]
	for _, row := range f.tables[q.Table] {
		if !matches(row, q.Filters) {
			kept = append(kept, row)
		}
	}
	f.tables[q.Table] = kept
	return nil
}

// match returns copies of the rows of q.Table passing q's filters.
func (f *Fake) match(q gateway.Query) []map[string]any {
	var out []map[string]any
	for _, row := range f.tables[q.Table] {
		if matches(row, q.Filters) {
			out = append(out, copyMap(row))
		}
	}
	return out
}

// now hands out strictly increasing timestamps so ordering by
// created_at is deterministic.
func (f *Fake) now() string {
	f.tick++
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return base.Add(time.Duration(f.tick) * time.Millisecond).Format("2006-01-02T15:04:05.000Z07:00")
}

func matches(row map[string]any, filters []gateway.Filter) bool {
	for _, flt := range filters {
		if fmt.Sprint(row[flt.Column]) != fmt.Sprint(normalize(flt.Value)) {
			return false
		}
	}
	return true
}

// normalize gives filter values the shape they have after a JSON round
// trip, e.g. int 3 becomes float64 3.
func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func less(a, b any) bool {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	case nil:
		return b != nil
	}
	if b == nil {
		return false
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func toMap(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return copyMap(m), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
