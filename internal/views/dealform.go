package views

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/models"
	"github.com/pauljones0/commodity-tracker/internal/util"
	"github.com/pauljones0/commodity-tracker/internal/validator"
)

const (
	defaultQuantityUnit = "kg"
	saveDealFallback    = "Failed to save deal"
)

// Draft holds the form inputs as typed. Numbers stay text until submit.
type Draft struct {
	CommodityType   string            `json:"commodity_type"`
	SourceName      string            `json:"source_name"`
	DealText        string            `json:"deal_text"`
	PriceType       models.PriceType  `json:"price_type"`
	Price           string            `json:"price"`
	PriceCurrency   string            `json:"price_currency"`
	GrossDiscount   string            `json:"gross_discount"`
	Commission      string            `json:"commission"`
	NetDiscount     string            `json:"net_discount"`
	Quantity        string            `json:"quantity"`
	QuantityUnit    string            `json:"quantity_unit"`
	OriginCountry   string            `json:"origin_country"`
	ShippingTerms   string            `json:"shipping_terms"`
	PaymentMethod   string            `json:"payment_method"`
	DateReceived    string            `json:"date_received"`
	Status          models.DealStatus `json:"status"`
	AdditionalNotes string            `json:"additional_notes"`
}

// NewDraft is the blank create-mode form.
func NewDraft(today time.Time) Draft {
	return Draft{
		PriceType:     models.PriceTypeLMEDiscount,
		PriceCurrency: models.DefaultCurrency,
		QuantityUnit:  defaultQuantityUnit,
		DateReceived:  today.Format(time.DateOnly),
		Status:        models.StatusUnassigned,
	}
}

// DraftFromDeal fills the form from a stored deal.
func DraftFromDeal(d models.Deal) Draft {
	draft := Draft{
		CommodityType:   d.CommodityType,
		SourceName:      d.SourceName,
		DealText:        d.DealText,
		PriceType:       models.PriceTypeFixed,
		PriceCurrency:   models.DefaultCurrency,
		Quantity:        util.FormatOptionalFloat(d.Quantity),
		QuantityUnit:    d.QuantityUnit,
		OriginCountry:   d.OriginCountry,
		ShippingTerms:   d.ShippingTerms,
		PaymentMethod:   d.PaymentMethod,
		DateReceived:    d.DateReceived,
		Status:          d.Status,
		AdditionalNotes: d.AdditionalNotes,
	}
	if draft.QuantityUnit == "" {
		draft.QuantityUnit = defaultQuantityUnit
	}
	if draft.Status == "" {
		draft.Status = models.StatusUnassigned
	}

	switch p := d.Pricing.(type) {
	case models.FixedPrice:
		draft.Price = util.FormatOptionalFloat(p.Amount)
		if p.Currency != "" {
			draft.PriceCurrency = p.Currency
		}
	case models.DiscountPrice:
		draft.PriceType = models.PriceTypeLMEDiscount
		draft.GrossDiscount = util.FormatOptionalFloat(p.Gross)
		draft.Commission = util.FormatOptionalFloat(p.Commission)
		draft.NetDiscount = util.FormatOptionalFloat(p.Net)
	}
	return draft
}

// SetGrossDiscount and SetCommission keep NetDiscount in step.
func (d *Draft) SetGrossDiscount(v string) {
	d.GrossDiscount = v
	d.recomputeNet()
}

func (d *Draft) SetCommission(v string) {
	d.Commission = v
	d.recomputeNet()
}

func (d *Draft) recomputeNet() {
	d.NetDiscount = models.FormatNetDiscount(util.FloatOr(d.GrossDiscount, 0), util.FloatOr(d.Commission, 0))
}

// Pricing resolves the union from the selected price type. Only the
// chosen variant's inputs are read.
func (d Draft) Pricing() models.Pricing {
	if d.PriceType == models.PriceTypeLMEDiscount {
		return models.NewDiscountPrice(util.ParseOptionalFloat(d.GrossDiscount), util.ParseOptionalFloat(d.Commission))
	}
	return models.FixedPrice{Amount: util.ParseOptionalFloat(d.Price), Currency: d.PriceCurrency}
}

// Input builds the write payload. source may be nil when the name does
// not match a known source.
func (d Draft) Input(source *models.Source) models.DealInput {
	in := models.DealInput{
		CommodityType:   d.CommodityType,
		SourceName:      d.SourceName,
		DealText:        d.DealText,
		Pricing:         d.Pricing(),
		Quantity:        util.ParseOptionalFloat(d.Quantity),
		QuantityUnit:    d.QuantityUnit,
		OriginCountry:   d.OriginCountry,
		ShippingTerms:   d.ShippingTerms,
		PaymentMethod:   d.PaymentMethod,
		DateReceived:    d.DateReceived,
		Status:          d.Status,
		AdditionalNotes: d.AdditionalNotes,
	}
	if source != nil {
		id := source.ID
		in.SourceID = &id
		if source.ReliabilityRating != 0 {
			rating := source.ReliabilityRating
			in.SourceReliability = &rating
		}
	}
	return in
}

// DealForm edits a new deal (empty id) or an existing one.
type DealForm struct {
	tables   gateway.Tables
	session  SessionSource
	notify   Notifier
	validate *validator.Validator

	id    string
	Draft Draft
}

func NewDealForm(tables gateway.Tables, sess SessionSource, notify Notifier, dealID string) *DealForm {
	return &DealForm{
		tables:   tables,
		session:  sess,
		notify:   notify,
		validate: validator.New(),
		id:       dealID,
		Draft:    NewDraft(time.Now()),
	}
}

func (f *DealForm) IsEdit() bool {
	return f.id != ""
}

// Load fills the draft in edit mode. A missing deal navigates home.
func (f *DealForm) Load(ctx context.Context) (string, error) {
	if !f.IsEdit() {
		return "", nil
	}
	deal, err := gateway.First[models.Deal](ctx, f.tables, gateway.From(models.TableDeals).Eq("id", f.id))
	if err != nil {
		logx.FromContext(ctx).Warn("Deal not loaded for edit", logx.FieldDealID, f.id, logx.Error(err))
		f.notify.Error("Deal not found")
		return PathHome, fmt.Errorf("load deal %s: %w", f.id, err)
	}
	f.Draft = DraftFromDeal(*deal)
	return "", nil
}

// Submit validates and persists the draft. On failure the draft is kept
// and no navigation happens.
func (f *DealForm) Submit(ctx context.Context) (string, error) {
	logger := logx.FromContext(ctx)

	source := f.lookupSource(ctx, f.Draft.SourceName)
	input := f.Draft.Input(source)

	if err := f.validate.ValidateStruct(input); err != nil {
		f.notify.Error(validator.Describe(err))
		return "", err
	}

	if f.IsEdit() {
		q := gateway.From(models.TableDeals).Eq("id", f.id)
		if err := f.tables.Update(ctx, q, input); err != nil {
			logger.Error("Failed to update deal", logx.FieldDealID, f.id, logx.Error(err))
			f.notify.Error(messageOr(err, saveDealFallback))
			return "", fmt.Errorf("update deal %s: %w", f.id, err)
		}
		f.notify.Success("Deal updated successfully!")
		return dealPath(f.id), nil
	}

	if snap := f.session.Snapshot(); snap.Identity != nil {
		uid := snap.Identity.ID
		input.CreatedBy = &uid
	}
	var created models.Deal
	if err := f.tables.Insert(ctx, models.TableDeals, input, &created); err != nil {
		logger.Error("Failed to create deal", logx.Error(err))
		f.notify.Error(messageOr(err, saveDealFallback))
		return "", fmt.Errorf("create deal: %w", err)
	}
	f.notify.Success("Deal created successfully!")
	return dealPath(created.ID), nil
}

// Sources lists the known sources for the source picker.
func (f *DealForm) Sources(ctx context.Context) ([]models.Source, error) {
	return gateway.List[models.Source](ctx, f.tables, gateway.From(models.TableSources).OrderBy("name", true))
}

func (f *DealForm) lookupSource(ctx context.Context, name string) *models.Source {
	if name == "" {
		return nil
	}
	src, err := gateway.First[models.Source](ctx, f.tables, gateway.From(models.TableSources).Eq("name", name))
	if err != nil {
		if !errors.Is(err, gateway.ErrNotFound) {
			logx.FromContext(ctx).Warn("Source lookup failed", "source", name, logx.Error(err))
		}
		return nil
	}
	return src
}
