package views

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/models"
)

const dashboardLimit = 50

// DashboardFilter narrows the list. Zero fields match everything.
type DashboardFilter struct {
	Status        models.DealStatus
	CommodityType string
}

// DashboardStats counts the loaded page only, not the whole table.
type DashboardStats struct {
	Total      int `json:"total"`
	Unassigned int `json:"unassigned"`
	InProgress int `json:"inProgress"`
	Done       int `json:"done"`
}

type DashboardView struct {
	Deals []models.Deal  `json:"deals"`
	Stats DashboardStats `json:"stats"`
	Empty bool           `json:"empty"`
}

type Dashboard struct {
	tables gateway.Tables
	notify Notifier
}

func NewDashboard(tables gateway.Tables, notify Notifier) *Dashboard {
	return &Dashboard{tables: tables, notify: notify}
}

// Load reads the newest deals by date received.
func (d *Dashboard) Load(ctx context.Context, f DashboardFilter) (*DashboardView, error) {
	q := gateway.From(models.TableDeals).
		OrderBy("date_received", false).
		WithLimit(dashboardLimit)
	if f.Status != "" {
		q = q.Eq("status", f.Status.String())
	}
	if f.CommodityType != "" {
		q = q.Eq("commodity_type", f.CommodityType)
	}

	deals, err := gateway.List[models.Deal](ctx, d.tables, q)
	if err != nil {
		logx.FromContext(ctx).Error("Failed to load dashboard deals", logx.Error(err))
		d.notify.Error("Failed to load deals")
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	if deals == nil {
		deals = []models.Deal{}
	}

	return &DashboardView{
		Deals: deals,
		Stats: computeStats(deals),
		Empty: len(deals) == 0,
	}, nil
}

func computeStats(deals []models.Deal) DashboardStats {
	byStatus := lo.CountValuesBy(deals, func(d models.Deal) models.DealStatus { return d.Status })
	return DashboardStats{
		Total:      len(deals),
		Unassigned: byStatus[models.StatusUnassigned],
		InProgress: byStatus[models.StatusInProgress],
		Done:       byStatus[models.StatusDone],
	}
}
