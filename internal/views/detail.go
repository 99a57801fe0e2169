package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/models"
)

const (
	scoreLabelIdle = "AI Score"
	scoreLabelBusy = "Scoring..."
	scoreFallback  = "Failed to score deal. Check API key in Settings."
)

type DetailView struct {
	Deal          models.Deal          `json:"deal"`
	Analysis      *models.DealAnalysis `json:"analysis"`
	ScoreLabel    string               `json:"score_label"`
	Scoring       bool                 `json:"scoring"`
	CanDelete     bool                 `json:"can_delete"`
	DeletePending bool                 `json:"delete_pending"`
}

// Detail serves the deal page. Scoring and delete confirmation are
// tracked per deal.
type Detail struct {
	gw      gateway.Gateway
	session SessionSource
	notify  Notifier

	mu       sync.Mutex
	scoring  map[string]bool
	deleting map[string]bool
}

func NewDetail(gw gateway.Gateway, sess SessionSource, notify Notifier) *Detail {
	return &Detail{
		gw:       gw,
		session:  sess,
		notify:   notify,
		scoring:  make(map[string]bool),
		deleting: make(map[string]bool),
	}
}

// Load reads the deal and its newest analysis. A missing deal navigates
// home.
func (d *Detail) Load(ctx context.Context, id string) (*DetailView, string, error) {
	deal, err := gateway.First[models.Deal](ctx, d.gw.Tables, gateway.From(models.TableDeals).Eq("id", id))
	if err != nil {
		logx.FromContext(ctx).Warn("Deal not loaded", logx.FieldDealID, id, logx.Error(err))
		d.notify.Error("Deal not found")
		return nil, PathHome, fmt.Errorf("load deal %s: %w", id, err)
	}

	analysis, err := latestAnalysis(ctx, d.gw.Tables, id)
	if err != nil {
		logx.FromContext(ctx).Warn("Analysis not loaded", logx.FieldDealID, id, logx.Error(err))
	}

	d.mu.Lock()
	scoring, pending := d.scoring[id], d.deleting[id]
	d.mu.Unlock()

	return &DetailView{
		Deal:          *deal,
		Analysis:      analysis,
		ScoreLabel:    scoreLabel(scoring),
		Scoring:       scoring,
		CanDelete:     d.session.Snapshot().IsPrivileged,
		DeletePending: pending,
	}, "", nil
}

// ScoreLabel is the score button text for a deal.
func (d *Detail) ScoreLabel(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return scoreLabel(d.scoring[id])
}

// Score asks the backend to score the deal and reloads it on success. A
// second call for the same deal while one is running fails with ErrBusy.
func (d *Detail) Score(ctx context.Context, id string) (*DetailView, error) {
	d.mu.Lock()
	if d.scoring[id] {
		d.mu.Unlock()
		return nil, ErrBusy
	}
	d.scoring[id] = true
	d.mu.Unlock()

	err := d.invokeScore(ctx, id)

	d.mu.Lock()
	delete(d.scoring, id)
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}
	view, _, err := d.Load(ctx, id)
	return view, err
}

func (d *Detail) invokeScore(ctx context.Context, id string) error {
	logger := logx.FromContext(ctx).With(logx.FieldDealID, id)
	req := gateway.ScoreDealRequest{DealID: id}
	if err := d.gw.Functions.Invoke(ctx, gateway.FunctionScoreDeal, req, nil); err != nil {
		logger.Error("Scoring failed", logx.Error(err))
		d.notify.Error(messageOr(err, scoreFallback))
		return fmt.Errorf("score deal %s: %w", id, err)
	}

	logger.Info("Deal scored")
	d.notify.Success("Deal scored successfully!")
	return nil
}

// RequestDelete opens the confirmation step. Only admins may delete.
func (d *Detail) RequestDelete(id string) error {
	if !d.session.Snapshot().IsPrivileged {
		return ErrForbidden
	}
	d.mu.Lock()
	d.deleting[id] = true
	d.mu.Unlock()
	return nil
}

func (d *Detail) CancelDelete(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.deleting[id] {
		return ErrNoPendingDelete
	}
	delete(d.deleting, id)
	return nil
}

// ConfirmDelete removes the deal after RequestDelete and navigates home
// on success.
func (d *Detail) ConfirmDelete(ctx context.Context, id string) (string, error) {
	if !d.session.Snapshot().IsPrivileged {
		return "", ErrForbidden
	}
	d.mu.Lock()
	pending := d.deleting[id]
	delete(d.deleting, id)
	d.mu.Unlock()
	if !pending {
		return "", ErrNoPendingDelete
	}

	if err := d.gw.Tables.Delete(ctx, gateway.From(models.TableDeals).Eq("id", id)); err != nil {
		logx.FromContext(ctx).Error("Failed to delete deal", logx.FieldDealID, id, logx.Error(err))
		d.notify.Error("Failed to delete deal")
		return "", fmt.Errorf("delete deal %s: %w", id, err)
	}
	d.notify.Success("Deal deleted")
	return PathHome, nil
}

func scoreLabel(busy bool) string {
	if busy {
		return scoreLabelBusy
	}
	return scoreLabelIdle
}

// latestAnalysis returns the newest analysis of a deal, or nil when it
// has none.
func latestAnalysis(ctx context.Context, tables gateway.Tables, dealID string) (*models.DealAnalysis, error) {
	q := gateway.From(models.TableDealAnalyses).
		Eq("deal_id", dealID).
		OrderBy("created_at", false)
	a, err := gateway.First[models.DealAnalysis](ctx, tables, q)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, nil
	}
	return a, err
}
