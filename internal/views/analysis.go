package views

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/models"
)

// AnalysisState is which of the three page states applies.
type AnalysisState string

const (
	AnalysisNotFound AnalysisState = "not_found"
	AnalysisEmpty    AnalysisState = "empty"
	AnalysisFilled   AnalysisState = "filled"
)

type AnalysisView struct {
	State    AnalysisState        `json:"state"`
	Deal     *models.Deal         `json:"deal,omitempty"`
	Analysis *models.DealAnalysis `json:"analysis,omitempty"`
}

type Analysis struct {
	tables gateway.Tables
}

func NewAnalysis(tables gateway.Tables) *Analysis {
	return &Analysis{tables: tables}
}

// Load fetches the deal and its newest analysis concurrently.
func (a *Analysis) Load(ctx context.Context, dealID string) (*AnalysisView, error) {
	var (
		deal     *models.Deal
		analysis *models.DealAnalysis
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := gateway.First[models.Deal](gctx, a.tables, gateway.From(models.TableDeals).Eq("id", dealID))
		if errors.Is(err, gateway.ErrNotFound) {
			return nil
		}
		deal = d
		return err
	})
	g.Go(func() error {
		an, err := latestAnalysis(gctx, a.tables, dealID)
		analysis = an
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load analysis of %s: %w", dealID, err)
	}

	switch {
	case deal == nil:
		return &AnalysisView{State: AnalysisNotFound}, nil
	case analysis == nil:
		return &AnalysisView{State: AnalysisEmpty, Deal: deal}, nil
	default:
		return &AnalysisView{State: AnalysisFilled, Deal: deal, Analysis: analysis}, nil
	}
}
