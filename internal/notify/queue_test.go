package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPush_DistinctIncreasingIDs(t *testing.T) {
	rq := require.New(t)
	q := NewQueue(time.Hour)
	defer q.Close()

	a := q.Push("one", KindInfo, 0)
	b := q.Push("two", KindSuccess, 0)
	c := q.Push("three", KindError, 0)

	rq.Less(a, b)
	rq.Less(b, c)

	entries := q.Entries()
	rq.Len(entries, 3)
	rq.Equal("one", entries[0].Message)
	rq.Equal(KindError, entries[2].Kind)
}

func TestPush_EntriesExpireIndependently(t *testing.T) {
	rq := require.New(t)
	q := NewQueue(time.Hour)
	defer q.Close()

	q.Push("short", KindInfo, 20*time.Millisecond)
	long := q.Push("long", KindInfo, 0)

	rq.Eventually(func() bool { return len(q.Entries()) == 1 }, time.Second, 5*time.Millisecond)
	rq.Equal(long, q.Entries()[0].ID)
}

func TestPush_AllExpire(t *testing.T) {
	q := NewQueue(30 * time.Millisecond)
	defer q.Close()

	q.Success("a")
	q.Error("b")
	q.Info("c")

	require.Eventually(t, func() bool { return len(q.Entries()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestDismiss(t *testing.T) {
	q := NewQueue(time.Hour)
	defer q.Close()

	id := q.Push("gone", KindInfo, 0)
	q.Push("kept", KindInfo, 0)
	q.Dismiss(id)

	entries := q.Entries()
	if len(entries) != 1 || entries[0].Message != "kept" {
		t.Fatalf("unexpected entries after dismiss: %+v", entries)
	}
}

func TestNewQueue_DefaultDuration(t *testing.T) {
	q := NewQueue(0)
	defer q.Close()
	if q.duration != DefaultDuration {
		t.Errorf("duration = %v, want %v", q.duration, DefaultDuration)
	}
	before := time.Now()
	q.Info("x")
	exp := q.Entries()[0].Expires
	if exp.Before(before.Add(DefaultDuration)) {
		t.Errorf("expiry %v earlier than default lifetime", exp)
	}
}

func TestClose_DropsEntries(t *testing.T) {
	q := NewQueue(time.Hour)
	q.Info("x")
	q.Close()
	q.Info("after close")
	if n := len(q.Entries()); n != 0 {
		t.Errorf("entries after close = %d, want 0", n)
	}
}
