package views

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/models"
)

const kanbanLimit = 200

// KanbanStatuses are the board columns, left to right. Deals under
// review are not shown on the board.
var KanbanStatuses = []models.DealStatus{
	models.StatusUnassigned,
	models.StatusInProgress,
	models.StatusOnHold,
	models.StatusDone,
}

type KanbanColumn struct {
	Status models.DealStatus `json:"status"`
	Label  string            `json:"label"`
	Deals  []models.Deal     `json:"deals"`
}

// Kanban is the board state: the loaded deals and the card being dragged.
type Kanban struct {
	tables gateway.Tables
	notify Notifier

	mu       sync.Mutex
	deals    []models.Deal
	dragging string
}

func NewKanban(tables gateway.Tables, notify Notifier) *Kanban {
	return &Kanban{tables: tables, notify: notify}
}

// Load replaces the board with the newest deals. On failure the previous
// board is kept.
func (k *Kanban) Load(ctx context.Context) error {
	q := gateway.From(models.TableDeals).
		OrderBy("date_received", false).
		WithLimit(kanbanLimit)

	deals, err := gateway.List[models.Deal](ctx, k.tables, q)
	if err != nil {
		logx.FromContext(ctx).Error("Failed to load board", logx.Error(err))
		k.notify.Error("Failed to load deals")
		return fmt.Errorf("load board: %w", err)
	}

	k.mu.Lock()
	k.deals = deals
	k.mu.Unlock()
	return nil
}

func (k *Kanban) Columns() []KanbanColumn {
	k.mu.Lock()
	defer k.mu.Unlock()

	cols := make([]KanbanColumn, 0, len(KanbanStatuses))
	for _, status := range KanbanStatuses {
		cols = append(cols, KanbanColumn{
			Status: status,
			Label:  status.Label(),
			Deals:  lo.Filter(k.deals, func(d models.Deal, _ int) bool { return d.Status == status }),
		})
	}
	return cols
}

func (k *Kanban) DragStart(dealID string) {
	k.mu.Lock()
	k.dragging = dealID
	k.mu.Unlock()
}

func (k *Kanban) DragEnd() {
	k.mu.Lock()
	k.dragging = ""
	k.mu.Unlock()
}

func (k *Kanban) Dragging() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.dragging
}

// Drop moves the dragged deal into the target column and ends the drag.
func (k *Kanban) Drop(ctx context.Context, target models.DealStatus) error {
	id := k.Dragging()
	defer k.DragEnd()
	if id == "" {
		if !lo.Contains(KanbanStatuses, target) {
			return fmt.Errorf("unknown column %q", target)
		}
		return nil
	}
	return k.Move(ctx, id, target)
}

// Move puts one deal into the target column without touching the drag
// state, so concurrent callers cannot move each other's deals. Moving a
// deal onto its own column does nothing.
func (k *Kanban) Move(ctx context.Context, dealID string, target models.DealStatus) error {
	if !lo.Contains(KanbanStatuses, target) {
		return fmt.Errorf("unknown column %q", target)
	}

	k.mu.Lock()
	deal, found := lo.Find(k.deals, func(d models.Deal) bool { return d.ID == dealID })
	k.mu.Unlock()

	if dealID == "" || !found || deal.Status == target {
		return nil
	}

	move := Optimistic{
		Apply: func() { k.setStatus(dealID, target) },
		Commit: func(ctx context.Context) error {
			q := gateway.From(models.TableDeals).Eq("id", dealID)
			return k.tables.Update(ctx, q, map[string]any{"status": target})
		},
		Compensate: func(ctx context.Context) { _ = k.Load(ctx) },
	}

	if err := move.Run(ctx); err != nil {
		logx.FromContext(ctx).Error("Failed to move deal", logx.FieldDealID, dealID, logx.Error(err))
		k.notify.Error("Failed to update status")
		return fmt.Errorf("move deal %s: %w", dealID, err)
	}
	k.notify.Success("Deal moved to " + target.Label())
	return nil
}

func (k *Kanban) setStatus(id string, status models.DealStatus) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i := range k.deals {
		if k.deals[i].ID == id {
			k.deals[i].Status = status
		}
	}
}
