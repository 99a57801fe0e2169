// Package legacy moves data from the old single-user SQLite database
// into the hosted store.
package legacy

import (
	"context"
	"fmt"
	"io"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Source is a row of the legacy sources table.
type Source struct {
	ID                int64    `gorm:"column:id;primaryKey"`
	Name              string   `gorm:"column:name"`
	ReliabilityRating *float64 `gorm:"column:reliability_rating"`
	TotalDeals        int      `gorm:"column:total_deals"`
	SuccessfulDeals   int      `gorm:"column:successful_deals"`
}

func (Source) TableName() string { return "sources" }

// Deal is a row of the legacy deals table. AI results were stored inline
// as JSON text.
type Deal struct {
	ID                int64    `gorm:"column:id;primaryKey"`
	CommodityType     string   `gorm:"column:commodity_type"`
	SourceName        string   `gorm:"column:source_name"`
	SourceReliability *float64 `gorm:"column:source_reliability"`
	DealText          *string  `gorm:"column:deal_text"`
	Price             *float64 `gorm:"column:price"`
	PriceCurrency     *string  `gorm:"column:price_currency"`
	Quantity          *float64 `gorm:"column:quantity"`
	QuantityUnit      *string  `gorm:"column:quantity_unit"`
	OriginCountry     *string  `gorm:"column:origin_country"`
	PaymentMethod     *string  `gorm:"column:payment_method"`
	ShippingTerms     *string  `gorm:"column:shipping_terms"`
	AdditionalNotes   *string  `gorm:"column:additional_notes"`
	DateReceived      string   `gorm:"column:date_received"`
	Status            *string  `gorm:"column:status"`
	AIScore           *float64 `gorm:"column:ai_score"`
	AIReasoning       *string  `gorm:"column:ai_reasoning"`
	AIAnalysis        *string  `gorm:"column:ai_analysis"`
	PriceType         *string  `gorm:"column:price_type"`
	GrossDiscount     *float64 `gorm:"column:gross_discount"`
	Commission        *float64 `gorm:"column:commission"`
	NetDiscount       *float64 `gorm:"column:net_discount"`
}

func (Deal) TableName() string { return "deals" }

// Open opens the legacy database file read-only with GORM logging
// silenced.
func Open(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("legacy database path is required")
	}
	dsn := fmt.Sprintf("file:%s?mode=ro", path)
	return open(sqlite.Open(dsn))
}

func open(dialector gorm.Dialector) (*gorm.DB, error) {
	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)
	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening legacy db: %w", err)
	}
	return conn, nil
}

// Load reads every source and deal, each ordered by legacy id.
func Load(ctx context.Context, db *gorm.DB) ([]Source, []Deal, error) {
	var sources []Source
	if err := db.WithContext(ctx).Order("id").Find(&sources).Error; err != nil {
		return nil, nil, fmt.Errorf("read legacy sources: %w", err)
	}
	var deals []Deal
	if err := db.WithContext(ctx).Order("id").Find(&deals).Error; err != nil {
		return nil, nil, fmt.Errorf("read legacy deals: %w", err)
	}
	return sources, deals, nil
}
