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

func TestNewDraft_Defaults(t *testing.T) {
	rq := require.New(t)
	d := NewDraft(time.Date(2025, 6, 7, 15, 0, 0, 0, time.UTC))
	rq.Equal(models.PriceTypeLMEDiscount, d.PriceType)
	rq.Equal("USD", d.PriceCurrency)
	rq.Equal("kg", d.QuantityUnit)
	rq.Equal("2025-06-07", d.DateReceived)
	rq.Equal(models.StatusUnassigned, d.Status)
}

func TestDraft_NetRecomputed(t *testing.T) {
	tests := []struct {
		gross, commission string
		want              string
	}{
		{"10", "2", "8.0"},
		{"12.35", "", "12.4"},
		{"", "1.5", "-1.5"},
		{"0.3", "0.1", "0.2"},
		{"abc", "1", "-1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.gross+"-"+tt.commission, func(t *testing.T) {
			var d Draft
			d.SetGrossDiscount(tt.gross)
			d.SetCommission(tt.commission)
			if d.NetDiscount != tt.want {
				t.Errorf("net = %q, want %q", d.NetDiscount, tt.want)
			}
		})
	}
}

func TestDraft_PricingUsesChosenVariant(t *testing.T) {
	rq := require.New(t)

	d := Draft{PriceType: models.PriceTypeFixed, Price: "250", PriceCurrency: "EUR", GrossDiscount: "9"}
	fixed, ok := d.Pricing().(models.FixedPrice)
	rq.True(ok)
	rq.Equal(250.0, *fixed.Amount)
	rq.Equal("EUR", fixed.Currency)

	d = Draft{PriceType: models.PriceTypeLMEDiscount, Price: "250", GrossDiscount: "9", Commission: "1.25"}
	disc, ok := d.Pricing().(models.DiscountPrice)
	rq.True(ok)
	rq.Equal(9.0, *disc.Gross)
	rq.Equal(7.8, *disc.Net)
}

func TestDraftFromDeal(t *testing.T) {
	rq := require.New(t)
	d := DraftFromDeal(models.Deal{
		CommodityType: "Nickel",
		SourceName:    "B",
		Pricing:       models.DiscountPrice{Gross: ptr(5.0), Commission: ptr(1.0), Net: ptr(4.0)},
		Quantity:      ptr(20.0),
		DateReceived:  "2025-02-02",
		Status:        models.StatusOnHold,
	})
	rq.Equal(models.PriceTypeLMEDiscount, d.PriceType)
	rq.Equal("5", d.GrossDiscount)
	rq.Equal("4", d.NetDiscount)
	rq.Equal("20", d.Quantity)
	rq.Equal("kg", d.QuantityUnit)
	rq.Equal(models.StatusOnHold, d.Status)
}

func TestDealForm_Create(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	fake.Seed(models.TableSources, models.Source{ID: "s1", Name: "Broker A", ReliabilityRating: 8})
	notes := &recorder{}

	f := NewDealForm(fake, memberSnap, notes, "")
	nav, err := f.Load(context.Background())
	rq.NoError(err)
	rq.Empty(nav)
	rq.False(f.IsEdit())

	f.Draft.CommodityType = "Copper"
	f.Draft.SourceName = "Broker A"
	f.Draft.SetGrossDiscount("10")
	f.Draft.SetCommission("2.5")

	nav, err = f.Submit(context.Background())
	rq.NoError(err)

	rows := fake.Rows(models.TableDeals)
	rq.Len(rows, 1)
	row := rows[0]
	rq.Equal("/deals/"+row["id"].(string), nav)
	rq.Equal("user-1", row["created_by"])
	rq.Equal("s1", row["source_id"])
	rq.Equal(8.0, row["source_reliability"])
	rq.Equal("lme_discount", row["price_type"])
	rq.Equal(7.5, row["net_discount"])
	rq.Nil(row["price"])
	rq.NotContains(row, "price_currency")
	rq.Equal(note{kind: "success", msg: "Deal created successfully!"}, notes.last())
}

func TestDealForm_CreateUnknownSource(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	f := NewDealForm(fake, memberSnap, &recorder{}, "")
	f.Draft.CommodityType = "Zinc"
	f.Draft.SourceName = "Nobody"
	f.Draft.PriceType = models.PriceTypeFixed
	f.Draft.Price = "99"

	_, err := f.Submit(context.Background())
	rq.NoError(err)

	row := fake.Rows(models.TableDeals)[0]
	rq.Nil(row["source_id"])
	rq.Nil(row["source_reliability"])
	rq.Equal("USD", row["price_currency"])
	rq.Nil(row["gross_discount"])
}

func TestDealForm_ValidationKeepsDraft(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	notes := &recorder{}
	f := NewDealForm(fake, memberSnap, notes, "")
	f.Draft.SourceName = "Broker A"

	nav, err := f.Submit(context.Background())
	rq.Error(err)
	rq.Empty(nav)
	rq.Equal(note{kind: "error", msg: "commodity type is required"}, notes.last())
	rq.Zero(fake.CallCount("insert"))
	rq.Equal("Broker A", f.Draft.SourceName)
}

func TestDealForm_InsertFailure(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	fake.InsertErr[models.TableDeals] = &gateway.Error{Status: 403, Code: "42501", Message: "permission denied for table deals"}
	notes := &recorder{}
	f := NewDealForm(fake, memberSnap, notes, "")
	f.Draft.CommodityType = "Copper"
	f.Draft.SourceName = "A"

	nav, err := f.Submit(context.Background())
	rq.Error(err)
	rq.Empty(nav)
	rq.Equal(note{kind: "error", msg: "permission denied for table deals"}, notes.last())
	rq.Equal("Copper", f.Draft.CommodityType)
}

func TestDealForm_Edit(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	seedDeal(fake, "d1", models.StatusInProgress, "2025-01-01")
	notes := &recorder{}

	f := NewDealForm(fake, adminSnap, notes, "d1")
	nav, err := f.Load(context.Background())
	rq.NoError(err)
	rq.Empty(nav)
	rq.Equal("Copper", f.Draft.CommodityType)
	rq.Equal(models.PriceTypeFixed, f.Draft.PriceType)
	rq.Equal("100", f.Draft.Price)

	f.Draft.CommodityType = "Aluminium"
	nav, err = f.Submit(context.Background())
	rq.NoError(err)
	rq.Equal("/deals/d1", nav)
	rq.Equal(note{kind: "success", msg: "Deal updated successfully!"}, notes.last())

	var update gatewaytest.Call
	for _, c := range fake.Calls() {
		if c.Op == "update" {
			update = c
		}
	}
	rq.Equal([]gateway.Filter{{Column: "id", Value: "d1"}}, update.Query.Filters)
	rq.NotContains(update.Payload, "created_by")
	rq.Equal("Aluminium", fake.Rows(models.TableDeals)[0]["commodity_type"])
}

func TestDealForm_EditNotFound(t *testing.T) {
	rq := require.New(t)
	notes := &recorder{}
	f := NewDealForm(gatewaytest.New(), adminSnap, notes, "missing")

	nav, err := f.Load(context.Background())
	rq.ErrorIs(err, gateway.ErrNotFound)
	rq.Equal(PathHome, nav)
	rq.Equal(note{kind: "error", msg: "Deal not found"}, notes.last())
}

func TestDealForm_SourceLookupFailureStillSaves(t *testing.T) {
	rq := require.New(t)
	fake := gatewaytest.New()
	fake.SelectErr[models.TableSources] = errors.New("offline")
	f := NewDealForm(fake, memberSnap, &recorder{}, "")
	f.Draft.CommodityType = "Tin"
	f.Draft.SourceName = "A"

	_, err := f.Submit(context.Background())
	rq.NoError(err)
	rq.Nil(fake.Rows(models.TableDeals)[0]["source_id"])
}
