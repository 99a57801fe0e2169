package views

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/gateway/gatewaytest"
	"github.com/pauljones0/commodity-tracker/internal/models"
)

func newBoard(t *testing.T) (*Kanban, *gatewaytest.Fake, *recorder) {
	t.Helper()
	fake := gatewaytest.New()
	seedDeal(fake, "d1", models.StatusUnassigned, "2025-01-01")
	seedDeal(fake, "d2", models.StatusInProgress, "2025-01-02")
	seedDeal(fake, "d3", models.StatusUnderReview, "2025-01-03")
	notes := &recorder{}
	k := NewKanban(fake, notes)
	require.NoError(t, k.Load(context.Background()))
	fake.ResetCalls()
	return k, fake, notes
}

func columnIDs(cols []KanbanColumn, status models.DealStatus) []string {
	for _, c := range cols {
		if c.Status == status {
			ids := make([]string, 0, len(c.Deals))
			for _, d := range c.Deals {
				ids = append(ids, d.ID)
			}
			return ids
		}
	}
	return nil
}

func TestKanban_Columns(t *testing.T) {
	rq := require.New(t)
	k, _, _ := newBoard(t)

	cols := k.Columns()
	rq.Len(cols, 4)
	rq.Equal("on hold", cols[2].Label)
	rq.Equal([]string{"d1"}, columnIDs(cols, models.StatusUnassigned))
	rq.Equal([]string{"d2"}, columnIDs(cols, models.StatusInProgress))
	for _, c := range cols {
		for _, d := range c.Deals {
			rq.NotEqual("d3", d.ID, "under review deals are not on the board")
		}
	}
}

func TestKanban_LoadLimit(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	rq.NoError(NewKanban(fake, &recorder{}).Load(context.Background()))
	q := fake.Calls()[0].Query
	rq.Equal(200, q.Limit)
	rq.Equal("date_received", q.Order.Column)
	rq.False(q.Order.Ascending)
}

func TestKanban_DropSameColumnIsNoop(t *testing.T) {
	rq := require.New(t)
	k, fake, notes := newBoard(t)

	k.DragStart("d1")
	rq.NoError(k.Drop(context.Background(), models.StatusUnassigned))

	rq.Zero(fake.CallCount(""))
	rq.Empty(notes.all())
	rq.Empty(k.Dragging())
}

func TestKanban_DropWithoutDrag(t *testing.T) {
	k, fake, _ := newBoard(t)
	if err := k.Drop(context.Background(), models.StatusDone); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := fake.CallCount(""); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestKanban_DropMovesOptimistically(t *testing.T) {
	rq := require.New(t)
	k, fake, notes := newBoard(t)

	var seenDuringCommit []string
	fake.OnUpdate = func(q gateway.Query, payload map[string]any) {
		seenDuringCommit = columnIDs(k.Columns(), models.StatusOnHold)
	}

	k.DragStart("d1")
	rq.Equal("d1", k.Dragging())
	rq.NoError(k.Drop(context.Background(), models.StatusOnHold))

	rq.Equal([]string{"d1"}, seenDuringCommit)
	rq.Equal([]string{"d1"}, columnIDs(k.Columns(), models.StatusOnHold))
	rq.Empty(columnIDs(k.Columns(), models.StatusUnassigned))

	calls := fake.Calls()
	rq.Len(calls, 1)
	rq.Equal("update", calls[0].Op)
	rq.Equal([]gateway.Filter{{Column: "id", Value: "d1"}}, calls[0].Query.Filters)
	rq.Equal(note{kind: "success", msg: "Deal moved to on hold"}, notes.last())
	rq.Empty(k.Dragging())
}

func TestKanban_DropFailureReloads(t *testing.T) {
	rq := require.New(t)
	k, fake, notes := newBoard(t)
	fake.UpdateErr[models.TableDeals] = errors.New("denied")

	rq.Error(k.Move(context.Background(), "d2", models.StatusDone))

	rq.Equal(note{kind: "error", msg: "Failed to update status"}, notes.last())
	rq.Equal(1, fake.CallCount("select"))
	rq.Equal([]string{"d2"}, columnIDs(k.Columns(), models.StatusInProgress))
	rq.Empty(columnIDs(k.Columns(), models.StatusDone))
}

func TestKanban_DropUnknownColumn(t *testing.T) {
	k, _, _ := newBoard(t)
	k.DragStart("d1")
	if err := k.Drop(context.Background(), models.StatusUnderReview); err == nil {
		t.Fatal("expected error dropping onto a status without a column")
	}
}

func TestKanban_LoadFailureKeepsBoard(t *testing.T) {
	rq := require.New(t)
	k, fake, notes := newBoard(t)
	fake.SelectErr[""] = errors.New("offline")

	rq.Error(k.Load(context.Background()))
	rq.Equal("Failed to load deals", notes.last().msg)
	rq.Equal([]string{"d1"}, columnIDs(k.Columns(), models.StatusUnassigned))
}

func storedStatus(fake *gatewaytest.Fake, id string) any {
	for _, row := range fake.Rows(models.TableDeals) {
		if row["id"] == id {
			return row["status"]
		}
	}
	return nil
}

func TestKanban_MoveKeepsDragState(t *testing.T) {
	rq := require.New(t)
	k, fake, _ := newBoard(t)

	k.DragStart("d1")
	rq.NoError(k.Move(context.Background(), "d2", models.StatusDone))

	rq.Equal("d1", k.Dragging())
	rq.Equal(string(models.StatusUnassigned), storedStatus(fake, "d1"))
	rq.Equal(string(models.StatusDone), storedStatus(fake, "d2"))
}

func TestKanban_MoveDuringAnotherCommit(t *testing.T) {
	rq := require.New(t)
	k, fake, _ := newBoard(t)

	var innerErr error
	interleaved := false
	fake.OnUpdate = func(q gateway.Query, _ map[string]any) {
		if interleaved {
			return
		}
		interleaved = true
		innerErr = k.Move(context.Background(), "d2", models.StatusOnHold)
	}

	rq.NoError(k.Move(context.Background(), "d1", models.StatusDone))
	rq.NoError(innerErr)

	rq.Equal(string(models.StatusDone), storedStatus(fake, "d1"))
	rq.Equal(string(models.StatusOnHold), storedStatus(fake, "d2"))
	rq.Equal([]string{"d1"}, columnIDs(k.Columns(), models.StatusDone))
	rq.Equal([]string{"d2"}, columnIDs(k.Columns(), models.StatusOnHold))
}

func TestKanban_ConcurrentMoves(t *testing.T) {
	rq := require.New(t)
	k, fake, notes := newBoard(t)

	moves := map[string]models.DealStatus{
		"d1": models.StatusDone,
		"d2": models.StatusOnHold,
	}
	var wg sync.WaitGroup
	errs := make(chan error, len(moves))
	for id, target := range moves {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- k.Move(context.Background(), id, target)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		rq.NoError(err)
	}

	for id, target := range moves {
		rq.Equal(string(target), storedStatus(fake, id), id)
		rq.Equal([]string{id}, columnIDs(k.Columns(), target))
	}
	rq.Equal(2, fake.CallCount("update"))
	rq.Len(notes.all(), 2)
}
