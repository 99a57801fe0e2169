package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pauljones0/commodity-tracker/internal/models"
)

func sample() (models.Deal, models.DealAnalysis) {
	net := 7.5
	qty := 20.0
	score := 74
	risk := models.RiskMedium
	deal := models.Deal{
		ID:            "d1",
		CommodityType: "Copper",
		SourceName:    "Broker A",
		Pricing:       models.DiscountPrice{Net: &net},
		Quantity:      &qty,
		QuantityUnit:  "mt",
		DateReceived:  "2025-01-01",
		Status:        models.StatusInProgress,
	}
	analysis := models.DealAnalysis{
		DealID:         "d1",
		Score:          &score,
		RiskLevel:      &risk,
		Recommendation: "Proceed with caution",
		RedFlags:       models.AnalysisList{"late documents", "new buyer"},
		Strengths:      models.AnalysisList{"known origin"},
	}
	return deal, analysis
}

func TestWriteAnalysis(t *testing.T) {
	rq := require.New(t)
	deal, analysis := sample()

	var buf bytes.Buffer
	rq.NoError(WriteAnalysis(&buf, deal, analysis))

	f, err := excelize.OpenReader(&buf)
	rq.NoError(err)
	defer f.Close()

	rq.Equal([]string{SheetSummary, SheetFindings}, f.GetSheetList())

	summary, err := f.GetRows(SheetSummary)
	rq.NoError(err)
	values := map[string]string{}
	for _, r := range summary {
		if len(r) == 2 {
			values[r[0]] = r[1]
		}
	}
	rq.Equal("Copper", values["Commodity"])
	rq.Equal("LME 7.5%", values["Price"])
	rq.Equal("20 mt", values["Quantity"])
	rq.Equal("in progress", values["Status"])
	rq.Equal("74/100 (high)", values["Score"])
	rq.Equal("MEDIUM", values["Risk"])

	findings, err := f.GetRows(SheetFindings)
	rq.NoError(err)
	rq.Len(findings, 4)
	rq.Equal([]string{"Red flags", "2", "new buyer"}, findings[2])
	rq.Equal([]string{"Strengths", "1", "known origin"}, findings[3])
}

func TestFilename(t *testing.T) {
	got := Filename("abc", time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC))
	if want := "Deal_abc_Analysis_20250304_050607.xlsx"; got != want {
		t.Errorf("Filename() = %q, want %q", got, want)
	}
}
