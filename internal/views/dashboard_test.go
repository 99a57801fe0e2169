package views

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pauljones0/commodity-tracker/internal/gateway/gatewaytest"
	"github.com/pauljones0/commodity-tracker/internal/models"
)

func TestDashboard_LoadStats(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	seedDeal(fake, "d1", models.StatusUnassigned, "2025-01-01")
	seedDeal(fake, "d2", models.StatusInProgress, "2025-01-03")
	seedDeal(fake, "d3", models.StatusDone, "2025-01-02")
	seedDeal(fake, "d4", models.StatusUnderReview, "2025-01-04")
	seedDeal(fake, "d5", models.StatusUnassigned, "2025-01-05")
	notes := &recorder{}

	view, err := NewDashboard(fake, notes).Load(context.Background(), DashboardFilter{})
	rq.NoError(err)
	rq.False(view.Empty)
	rq.Equal(DashboardStats{Total: 5, Unassigned: 2, InProgress: 1, Done: 1}, view.Stats)
	rq.Equal("d5", view.Deals[0].ID)
	rq.Equal("d1", view.Deals[4].ID)
	rq.Empty(notes.all())

	q := fake.Calls()[0].Query
	rq.Equal(50, q.Limit)
	rq.Equal("date_received", q.Order.Column)
	rq.False(q.Order.Ascending)
}

func TestDashboard_StatsArePageScoped(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	for i := 0; i < 60; i++ {
		seedDeal(fake, fmt.Sprintf("d%02d", i), models.StatusDone, fmt.Sprintf("2025-03-%02d", i%28+1))
	}

	view, err := NewDashboard(fake, &recorder{}).Load(context.Background(), DashboardFilter{})
	rq.NoError(err)
	rq.Len(view.Deals, 50)
	rq.Equal(50, view.Stats.Total)
	rq.Equal(50, view.Stats.Done)
}

func TestDashboard_Filters(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	seedDeal(fake, "d1", models.StatusDone, "2025-01-01")
	seedDeal(fake, "d2", models.StatusOnHold, "2025-01-02")

	view, err := NewDashboard(fake, &recorder{}).Load(context.Background(), DashboardFilter{Status: models.StatusOnHold})
	rq.NoError(err)
	rq.Len(view.Deals, 1)
	rq.Equal("d2", view.Deals[0].ID)

	view, err = NewDashboard(fake, &recorder{}).Load(context.Background(), DashboardFilter{CommodityType: "Nickel"})
	rq.NoError(err)
	rq.True(view.Empty)
	rq.NotNil(view.Deals)
}

func TestDashboard_LoadFailure(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	fake.SelectErr[models.TableDeals] = errors.New("offline")
	notes := &recorder{}

	view, err := NewDashboard(fake, notes).Load(context.Background(), DashboardFilter{})
	rq.Error(err)
	rq.Nil(view)
	rq.Equal(note{kind: "error", msg: "Failed to load deals"}, notes.last())
}
