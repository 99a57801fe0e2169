package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "USD"

// Pricing is either a FixedPrice or a DiscountPrice.
type Pricing interface {
	PriceType() PriceType
	isPricing()
}

// FixedPrice is an absolute price in a currency.
type FixedPrice struct {
	Amount   *float64
	Currency string
}

func (FixedPrice) PriceType() PriceType { return PriceTypeFixed }
func (FixedPrice) isPricing()           {}

// DiscountPrice is a discount off the LME reference, in percent.
// Net is always Gross minus Commission to one decimal.
type DiscountPrice struct {
	Gross      *float64
	Commission *float64
	Net        *float64
}

func (DiscountPrice) PriceType() PriceType { return PriceTypeLMEDiscount }
func (DiscountPrice) isPricing()           {}

// NewDiscountPrice derives Net from gross and commission. A missing side
// counts as zero; with both missing Net stays nil.
func NewDiscountPrice(gross, commission *float64) DiscountPrice {
	p := DiscountPrice{Gross: gross, Commission: commission}
	if gross == nil && commission == nil {
		return p
	}
	net := NetDiscount(deref(gross), deref(commission))
	p.Net = &net
	return p
}

// NetDiscount returns gross - commission rounded half away from zero to
// one decimal place.
func NetDiscount(gross, commission float64) float64 {
	return netDecimal(gross, commission).InexactFloat64()
}

// FormatNetDiscount renders NetDiscount with exactly one decimal.
func FormatNetDiscount(gross, commission float64) string {
	return netDecimal(gross, commission).StringFixed(1)
}

func netDecimal(gross, commission float64) decimal.Decimal {
	return decimal.NewFromFloat(gross).Sub(decimal.NewFromFloat(commission)).Round(1)
}

// pricingColumns flattens a Pricing into its wire columns. Columns that
// do not belong to the variant come back nil.
type pricingColumns struct {
	PriceType     PriceType `json:"price_type"`
	Price         *float64  `json:"price"`
	PriceCurrency *string   `json:"price_currency,omitempty"`
	GrossDiscount *float64  `json:"gross_discount"`
	Commission    *float64  `json:"commission"`
	NetDiscount   *float64  `json:"net_discount"`
}

func flattenPricing(p Pricing) pricingColumns {
	switch v := p.(type) {
	case DiscountPrice:
		return pricingColumns{
			PriceType:     PriceTypeLMEDiscount,
			GrossDiscount: v.Gross,
			Commission:    v.Commission,
			NetDiscount:   v.Net,
		}
	case FixedPrice:
		currency := v.Currency
		if currency == "" {
			currency = DefaultCurrency
		}
		return pricingColumns{PriceType: PriceTypeFixed, Price: v.Amount, PriceCurrency: &currency}
	default:
		currency := DefaultCurrency
		return pricingColumns{PriceType: PriceTypeFixed, PriceCurrency: &currency}
	}
}

func (c pricingColumns) resolve() Pricing {
	if c.PriceType == PriceTypeLMEDiscount {
		return DiscountPrice{Gross: c.GrossDiscount, Commission: c.Commission, Net: c.NetDiscount}
	}
	currency := DefaultCurrency
	if c.PriceCurrency != nil && *c.PriceCurrency != "" {
		currency = *c.PriceCurrency
	}
	return FixedPrice{Amount: c.Price, Currency: currency}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
