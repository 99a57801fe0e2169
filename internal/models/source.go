package models

import "time"

const (
	DefaultReliability = 5.0
	MaxReliability     = 10.0
)

// Source is where deals come from, with a 0-10 reliability rating.
type Source struct {
	ID                string     `json:"id,omitempty"`
	Name              string     `json:"name" validate:"required"`
	ReliabilityRating float64    `json:"reliability_rating" validate:"gte=0,lte=10"`
	TotalDeals        int        `json:"total_deals"`
	SuccessfulDeals   int        `json:"successful_deals"`
	LegacyID          *int64     `json:"legacy_id,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
}

// SourceInput is the write payload for a source.
type SourceInput struct {
	Name              string  `json:"name" validate:"required"`
	ReliabilityRating float64 `json:"reliability_rating" validate:"gte=0,lte=10"`
}

// ClampReliability keeps a rating inside 0..10.
func ClampReliability(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > MaxReliability:
		return MaxReliability
	default:
		return v
	}
}
