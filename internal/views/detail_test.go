package views

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/gateway/gatewaytest"
	"github.com/pauljones0/commodity-tracker/internal/models"
)

func seedAnalysis(f *gatewaytest.Fake, dealID string, score int, created time.Time) {
	f.Seed(models.TableDealAnalyses, models.DealAnalysis{
		DealID:    dealID,
		Score:     &score,
		CreatedAt: &created,
	})
}

func TestDetail_LoadLatestAnalysis(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	seedDeal(fake, "d1", models.StatusDone, "2025-01-01")
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	seedAnalysis(fake, "d1", 40, base)
	seedAnalysis(fake, "d1", 81, base.Add(time.Hour))
	seedAnalysis(fake, "other", 10, base.Add(2*time.Hour))

	d := NewDetail(fake.Gateway(), memberSnap, &recorder{})
	view, nav, err := d.Load(context.Background(), "d1")
	rq.NoError(err)
	rq.Empty(nav)
	rq.Equal("d1", view.Deal.ID)
	rq.Equal(81, *view.Analysis.Score)
	rq.Equal("AI Score", view.ScoreLabel)
	rq.False(view.CanDelete)
}

func TestDetail_LoadNotFound(t *testing.T) {
	rq := require.New(t)
	notes := &recorder{}
	d := NewDetail(gatewaytest.New().Gateway(), memberSnap, notes)

	view, nav, err := d.Load(context.Background(), "nope")
	rq.ErrorIs(err, gateway.ErrNotFound)
	rq.Nil(view)
	rq.Equal(PathHome, nav)
	rq.Equal(note{kind: "error", msg: "Deal not found"}, notes.last())
}

func TestDetail_ScoreBusy(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	seedDeal(fake, "d1", models.StatusUnassigned, "2025-01-01")
	notes := &recorder{}
	d := NewDetail(fake.Gateway(), memberSnap, notes)

	started := make(chan struct{})
	release := make(chan struct{})
	fake.HandleFunction(gateway.FunctionScoreDeal, func(_ context.Context, body map[string]any) error {
		close(started)
		<-release
		return nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := d.Score(context.Background(), "d1")
		done <- err
	}()
	<-started

	rq.Equal("Scoring...", d.ScoreLabel("d1"))
	_, err := d.Score(context.Background(), "d1")
	rq.ErrorIs(err, ErrBusy)

	close(release)
	rq.NoError(<-done)
	rq.Equal("AI Score", d.ScoreLabel("d1"))
	rq.Equal(note{kind: "success", msg: "Deal scored successfully!"}, notes.last())

	inv := fake.Invocations()
	rq.Len(inv, 1)
	rq.Equal(gateway.FunctionScoreDeal, inv[0].Table)
	rq.Equal("d1", inv[0].Payload["deal_id"])
}

func TestDetail_ScoreReloads(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	seedDeal(fake, "d1", models.StatusUnassigned, "2025-01-01")
	fake.HandleFunction(gateway.FunctionScoreDeal, func(_ context.Context, body map[string]any) error {
		seedAnalysis(fake, body["deal_id"].(string), 72, time.Now())
		return nil
	})

	view, err := NewDetail(fake.Gateway(), memberSnap, &recorder{}).Score(context.Background(), "d1")
	rq.NoError(err)
	rq.NotNil(view.Analysis)
	rq.Equal(72, *view.Analysis.Score)
	rq.Equal("high", view.Analysis.ScoreBand())
}

func TestDetail_ScoreFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"remote message", &gateway.Error{Status: 400, Message: "Anthropic API key not configured"}, "Anthropic API key not configured"},
		{"no message", &gateway.Error{Status: 500}, "Failed to score deal. Check API key in Settings."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rq := require.New(t)
			fake := gatewaytest.New()
			fake.HandleFunction(gateway.FunctionScoreDeal, func(context.Context, map[string]any) error { return tt.err })
			notes := &recorder{}
			d := NewDetail(fake.Gateway(), memberSnap, notes)

			_, err := d.Score(context.Background(), "d1")
			rq.Error(err)
			rq.Equal(note{kind: "error", msg: tt.want}, notes.last())
			rq.Equal("AI Score", d.ScoreLabel("d1"))
		})
	}
}

func TestDetail_DeleteRequiresAdmin(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	seedDeal(fake, "d1", models.StatusDone, "2025-01-01")
	d := NewDetail(fake.Gateway(), memberSnap, &recorder{})

	rq.ErrorIs(d.RequestDelete("d1"), ErrForbidden)
	_, err := d.ConfirmDelete(context.Background(), "d1")
	rq.ErrorIs(err, ErrForbidden)
	rq.Zero(fake.CallCount("delete"))
}

func TestDetail_DeleteTwoStep(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	seedDeal(fake, "d1", models.StatusDone, "2025-01-01")
	notes := &recorder{}
	d := NewDetail(fake.Gateway(), adminSnap, notes)

	_, err := d.ConfirmDelete(context.Background(), "d1")
	rq.ErrorIs(err, ErrNoPendingDelete)

	rq.NoError(d.RequestDelete("d1"))
	view, _, err := d.Load(context.Background(), "d1")
	rq.NoError(err)
	rq.True(view.DeletePending)
	rq.True(view.CanDelete)

	rq.NoError(d.CancelDelete("d1"))
	rq.ErrorIs(d.CancelDelete("d1"), ErrNoPendingDelete)

	rq.NoError(d.RequestDelete("d1"))
	nav, err := d.ConfirmDelete(context.Background(), "d1")
	rq.NoError(err)
	rq.Equal(PathHome, nav)
	rq.Empty(fake.Rows(models.TableDeals))
	rq.Equal(note{kind: "success", msg: "Deal deleted"}, notes.last())
}

func TestDetail_DeleteFailure(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	seedDeal(fake, "d1", models.StatusDone, "2025-01-01")
	fake.DeleteErr[models.TableDeals] = errors.New("fk violation")
	notes := &recorder{}
	d := NewDetail(fake.Gateway(), adminSnap, notes)

	rq.NoError(d.RequestDelete("d1"))
	nav, err := d.ConfirmDelete(context.Background(), "d1")
	rq.Error(err)
	rq.Empty(nav)
	rq.Equal(note{kind: "error", msg: "Failed to delete deal"}, notes.last())
	rq.Len(fake.Rows(models.TableDeals), 1)
}
