package gateway_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/gateway/gatewaytest"
)

type row struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestQueryBuilderDoesNotAlias(t *testing.T) {
	rq := require.New(t)

	base := gateway.From("deals").Eq("status", "done")
	a := base.Eq("id", "a")
	b := base.Eq("id", "b")

	rq.Len(base.Filters, 1)
	rq.Equal("a", a.Filters[1].Value)
	rq.Equal("b", b.Filters[1].Value)
	rq.Equal("deals status=done id=a order=date_received.desc limit=5",
		a.OrderBy("date_received", false).WithLimit(5).String())
}

func TestFirst(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fake := gatewaytest.New()
	fake.Seed("sources", map[string]any{"id": "s1", "name": "Alpha"})

	got, err := gateway.First[row](ctx, fake, gateway.From("sources").Eq("name", "Alpha"))
	rq.NoError(err)
	rq.Equal("s1", got.ID)

	_, err = gateway.First[row](ctx, fake, gateway.From("sources").Eq("name", "Beta"))
	rq.ErrorIs(err, gateway.ErrNotFound)
}

func TestErrorMatching(t *testing.T) {
	rq := require.New(t)

	notFound := &gateway.Error{Status: http.StatusNotFound, Message: "no rows"}
	rq.ErrorIs(notFound, gateway.ErrNotFound)
	rq.NotErrorIs(notFound, gateway.ErrConflict)
	rq.Equal("no rows", gateway.Message(notFound))
	rq.Equal("plain", gateway.Message(errors.New("plain")))
	rq.Equal("", gateway.Message(nil))
	rq.Equal("dup (23505, status 409)", (&gateway.Error{Status: 409, Code: "23505", Message: "dup"}).Error())
}

func TestSessionExpiresWithin(t *testing.T) {
	rq := require.New(t)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	s := &gateway.Session{ExpiresAt: now.Add(30 * time.Second)}
	rq.True(s.ExpiresWithin(now, time.Minute))
	rq.False(s.ExpiresWithin(now, 10*time.Second))
	rq.False((&gateway.Session{}).ExpiresWithin(now, time.Hour))
	rq.False((*gateway.Session)(nil).ExpiresWithin(now, time.Hour))
}

func TestCheckSliceDest(t *testing.T) {
	rq := require.New(t)

	var rows []row
	rq.NoError(gateway.CheckSliceDest(&rows))
	rq.Error(gateway.CheckSliceDest(rows))
	var one row
	rq.Error(gateway.CheckSliceDest(&one))
}
