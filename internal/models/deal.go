package models

import (
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Table names in the remote store.
const (
	TableDeals        = "deals"
	TableDealAnalyses = "deal_analyses"
	TableSources      = "sources"
	TableAppSettings  = "app_settings"
	TableProfiles     = "profiles"
)

// Deal is a stored trade offer as read back from the store.
type Deal struct {
	ID                string
	CommodityType     string
	SourceID          *string
	SourceName        string
	SourceReliability *float64
	DealText          string
	Pricing           Pricing
	Quantity          *float64
	QuantityUnit      string
	OriginCountry     string
	PaymentMethod     string
	ShippingTerms     string
	AdditionalNotes   string
	DateReceived      string
	Status            DealStatus
	AIScore           *int
	CreatedBy         *string
	LegacyID          *int64
	CreatedAt         *time.Time
	UpdatedAt         *time.Time
}

type dealRecord struct {
	ID                string     `json:"id,omitempty"`
	CommodityType     string     `json:"commodity_type"`
	SourceID          *string    `json:"source_id"`
	SourceName        string     `json:"source_name"`
	SourceReliability *float64   `json:"source_reliability"`
	DealText          *string    `json:"deal_text"`
	Quantity          *float64   `json:"quantity"`
	QuantityUnit      *string    `json:"quantity_unit"`
	OriginCountry     *string    `json:"origin_country"`
	PaymentMethod     *string    `json:"payment_method"`
	ShippingTerms     *string    `json:"shipping_terms"`
	AdditionalNotes   *string    `json:"additional_notes"`
	DateReceived      string     `json:"date_received"`
	Status            DealStatus `json:"status"`
	AIScore           *int       `json:"ai_score"`
	CreatedBy         *string    `json:"created_by,omitempty"`
	LegacyID          *int64     `json:"legacy_id,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
	PriceType         PriceType  `json:"price_type"`
	Price             *float64   `json:"price"`
	PriceCurrency     *string    `json:"price_currency,omitempty"`
	GrossDiscount     *float64   `json:"gross_discount"`
	Commission        *float64   `json:"commission"`
	NetDiscount       *float64   `json:"net_discount"`
}

func (d Deal) MarshalJSON() ([]byte, error) {
	cols := flattenPricing(d.Pricing)
	return json.Marshal(dealRecord{
		ID:                d.ID,
		CommodityType:     d.CommodityType,
		SourceID:          d.SourceID,
		SourceName:        d.SourceName,
		SourceReliability: d.SourceReliability,
		DealText:          &d.DealText,
		Quantity:          d.Quantity,
		QuantityUnit:      &d.QuantityUnit,
		OriginCountry:     &d.OriginCountry,
		PaymentMethod:     &d.PaymentMethod,
		ShippingTerms:     &d.ShippingTerms,
		AdditionalNotes:   &d.AdditionalNotes,
		DateReceived:      d.DateReceived,
		Status:            d.Status,
		AIScore:           d.AIScore,
		CreatedBy:         d.CreatedBy,
		LegacyID:          d.LegacyID,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		PriceType:         cols.PriceType,
		Price:             cols.Price,
		PriceCurrency:     cols.PriceCurrency,
		GrossDiscount:     cols.GrossDiscount,
		Commission:        cols.Commission,
		NetDiscount:       cols.NetDiscount,
	})
}

func (d *Deal) UnmarshalJSON(data []byte) error {
	var r dealRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	status := r.Status
	if status == "" {
		status = StatusUnassigned
	}
	*d = Deal{
		ID:                r.ID,
		CommodityType:     r.CommodityType,
		SourceID:          r.SourceID,
		SourceName:        r.SourceName,
		SourceReliability: r.SourceReliability,
		DealText:          str(r.DealText),
		Pricing: pricingColumns{
			PriceType:     r.PriceType,
			Price:         r.Price,
			PriceCurrency: r.PriceCurrency,
			GrossDiscount: r.GrossDiscount,
			Commission:    r.Commission,
			NetDiscount:   r.NetDiscount,
		}.resolve(),
		Quantity:          r.Quantity,
		QuantityUnit:      str(r.QuantityUnit),
		OriginCountry:     str(r.OriginCountry),
		PaymentMethod:     str(r.PaymentMethod),
		ShippingTerms:     str(r.ShippingTerms),
		AdditionalNotes:   str(r.AdditionalNotes),
		DateReceived:      r.DateReceived,
		Status:            status,
		AIScore:           r.AIScore,
		CreatedBy:         r.CreatedBy,
		LegacyID:          r.LegacyID,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	return nil
}

// PriceLabel renders the price column of deal lists.
func (d Deal) PriceLabel() string {
	switch p := d.Pricing.(type) {
	case DiscountPrice:
		if p.Net != nil {
			return "LME " + formatNumber(*p.Net) + "%"
		}
	case FixedPrice:
		if p.Amount != nil {
			currency := p.Currency
			if currency == "" {
				currency = DefaultCurrency
			}
			return formatNumber(*p.Amount) + " " + currency
		}
	}
	return "—"
}

// ScoreBand buckets the AI score: high from 70, medium from 50.
func (d Deal) ScoreBand() string {
	return ScoreBand(d.AIScore)
}

func ScoreBand(score *int) string {
	switch {
	case score == nil:
		return "none"
	case *score >= 70:
		return "high"
	case *score >= 50:
		return "medium"
	default:
		return "low"
	}
}

// DealInput is the write payload for inserting or updating a deal. It
// never carries id, timestamps or ai_score unless set, so an update
// leaves server-owned columns alone.
type DealInput struct {
	CommodityType     string `validate:"required"`
	SourceID          *string
	SourceName        string `validate:"required"`
	SourceReliability *float64
	DealText          string
	Pricing           Pricing `validate:"required"`
	Quantity          *float64
	QuantityUnit      string
	OriginCountry     string
	PaymentMethod     string
	ShippingTerms     string
	AdditionalNotes   string
	DateReceived      string     `validate:"required,datetime=2006-01-02"`
	Status            DealStatus `validate:"required,deal_status"`
	CreatedBy         *string
	AIScore           *int `validate:"omitempty,gte=0,lte=100"`
	LegacyID          *int64
}

// MarshalJSON flattens the pricing union. The payload is built as a map
// so that only the chosen variant's columns are non-null.
func (in DealInput) MarshalJSON() ([]byte, error) {
	cols := flattenPricing(in.Pricing)
	payload := map[string]any{
		"commodity_type":     in.CommodityType,
		"source_id":          in.SourceID,
		"source_name":        in.SourceName,
		"source_reliability": in.SourceReliability,
		"deal_text":          nullIfBlank(in.DealText),
		"quantity":           in.Quantity,
		"quantity_unit":      in.QuantityUnit,
		"origin_country":     nullIfBlank(in.OriginCountry),
		"payment_method":     nullIfBlank(in.PaymentMethod),
		"shipping_terms":     nullIfBlank(in.ShippingTerms),
		"additional_notes":   nullIfBlank(in.AdditionalNotes),
		"date_received":      in.DateReceived,
		"status":             in.Status,
		"price_type":         cols.PriceType,
		"price":              cols.Price,
		"gross_discount":     cols.GrossDiscount,
		"commission":         cols.Commission,
		"net_discount":       cols.NetDiscount,
	}
	if cols.PriceCurrency != nil {
		payload["price_currency"] = *cols.PriceCurrency
	}
	if in.CreatedBy != nil {
		payload["created_by"] = *in.CreatedBy
	}
	if in.AIScore != nil {
		payload["ai_score"] = *in.AIScore
	}
	if in.LegacyID != nil {
		payload["legacy_id"] = *in.LegacyID
	}
	return json.Marshal(payload)
}

// nullIfBlank sends optional free text as null rather than "".
func nullIfBlank(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
