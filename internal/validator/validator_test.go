package validator

import (
	"strings"
	"testing"

	"github.com/pauljones0/commodity-tracker/internal/models"
)

func fixed(amount float64) models.Pricing {
	return models.FixedPrice{Amount: &amount, Currency: "USD"}
}

func TestValidator_ValidateStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		deal    models.DealInput
		wantErr string
	}{
		{
			name: "Valid Deal",
			deal: models.DealInput{
				CommodityType: "Copper",
				SourceName:    "Broker A",
				Pricing:       fixed(100),
				DateReceived:  "2025-03-01",
				Status:        models.StatusUnassigned,
			},
		},
		{
			name: "Missing Commodity",
			deal: models.DealInput{
				SourceName:   "Broker A",
				Pricing:      fixed(100),
				DateReceived: "2025-03-01",
				Status:       models.StatusUnassigned,
			},
			wantErr: "commodity type is required",
		},
		{
			name: "Bad Date",
			deal: models.DealInput{
				CommodityType: "Copper",
				SourceName:    "Broker A",
				Pricing:       fixed(100),
				DateReceived:  "03/01/2025",
				Status:        models.StatusUnassigned,
			},
			wantErr: "date received must be a date",
		},
		{
			name: "Unknown Status",
			deal: models.DealInput{
				CommodityType: "Copper",
				SourceName:    "Broker A",
				Pricing:       fixed(100),
				DateReceived:  "2025-03-01",
				Status:        "archived",
			},
			wantErr: "status is not a known status",
		},
		{
			name: "Empty Discount Variant",
			deal: models.DealInput{
				CommodityType: "Copper",
				SourceName:    "Broker A",
				Pricing:       models.DiscountPrice{},
				DateReceived:  "2025-03-01",
				Status:        models.StatusOnHold,
			},
		},
		{
			name: "Missing Pricing",
			deal: models.DealInput{
				CommodityType: "Copper",
				SourceName:    "Broker A",
				DateReceived:  "2025-03-01",
				Status:        models.StatusDone,
			},
			wantErr: "pricing is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.deal)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateStruct() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateStruct() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidator_SourceRating(t *testing.T) {
	v := New()

	if err := v.ValidateStruct(models.SourceInput{Name: "A", ReliabilityRating: 7.5}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.ValidateStruct(models.SourceInput{Name: "A", ReliabilityRating: 11}); err == nil {
		t.Error("expected error for rating above 10")
	}
	if err := v.ValidateStruct(models.SourceInput{ReliabilityRating: 5}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestHumanize(t *testing.T) {
	cases := map[string]string{
		"CommodityType":     "commodity type",
		"DateReceived":      "date received",
		"Status":            "status",
		"ReliabilityRating": "reliability rating",
		"AIScore":           "aiscore",
	}
	for in, want := range cases {
		if got := humanize(in); got != want {
			t.Errorf("humanize(%q) = %q, want %q", in, got, want)
		}
	}
}
