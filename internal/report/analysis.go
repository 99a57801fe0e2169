// Package report renders deal analyses as spreadsheets.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pauljones0/commodity-tracker/internal/models"
)

const (
	SheetSummary  = "Summary"
	SheetFindings = "Findings"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Filename is the attachment name for a deal's analysis export.
func Filename(dealID string, at time.Time) string {
	return fmt.Sprintf("Deal_%s_Analysis_%s.xlsx", dealID, at.Format("20060102_150405"))
}

// AnalysisWorkbook builds a two-sheet workbook: deal facts and narrative
// sections on Summary, one row per list item on Findings.
func AnalysisWorkbook(deal models.Deal, a models.DealAnalysis) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetFindings); err != nil {
		f.Close()
		return nil, fmt.Errorf("add findings sheet: %w", err)
	}

	if err := writeSummary(f, deal, a); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeFindings(f, a); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// WriteAnalysis streams the workbook for deal and a to w.
func WriteAnalysis(w io.Writer, deal models.Deal, a models.DealAnalysis) error {
	f, err := AnalysisWorkbook(deal, a)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, deal models.Deal, a models.DealAnalysis) error {
	score := "—"
	if a.Score != nil {
		score = fmt.Sprintf("%d/100 (%s)", *a.Score, a.ScoreBand())
	}

	rows := [][2]any{
		{"Deal", deal.ID},
		{"Commodity", deal.CommodityType},
		{"Source", deal.SourceName},
		{"Price", deal.PriceLabel()},
		{"Quantity", quantityLabel(deal)},
		{"Origin", deal.OriginCountry},
		{"Payment", deal.PaymentMethod},
		{"Shipping", deal.ShippingTerms},
		{"Date received", deal.DateReceived},
		{"Status", deal.Status.Label()},
		{"", ""},
		{"Score", score},
		{"Risk", a.RiskLabel()},
		{"Recommendation", a.Recommendation},
		{"Executive summary", a.ExecutiveSummary},
		{"Market analysis", a.MarketAnalysis},
		{"Origin analysis", a.OriginAnalysis},
		{"Buyer profile", a.BuyerProfile},
		{"Price analysis", a.PriceAnalysis},
		{"Payment & logistics", a.PaymentLogistics},
	}
	for i, row := range rows {
		if err := f.SetSheetRow(SheetSummary, fmt.Sprintf("A%d", i+1), &[]any{row[0], row[1]}); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	if err := f.SetCellStyle(SheetSummary, "A1", fmt.Sprintf("A%d", len(rows)), bold); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}
	if err := f.SetColWidth(SheetSummary, "A", "A", 22); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "B", "B", 80)
}

func writeFindings(f *excelize.File, a models.DealAnalysis) error {
	sections := []struct {
		name  string
		items models.AnalysisList
	}{
		{"Red flags", a.RedFlags},
		{"Unusual patterns", a.UnusualPatterns},
		{"Strengths", a.Strengths},
		{"Next steps", a.NextSteps},
		{"Reasoning", a.Reasoning},
	}

	if err := f.SetSheetRow(SheetFindings, "A1", &[]any{"Section", "#", "Item"}); err != nil {
		return fmt.Errorf("write findings header: %w", err)
	}
	row := 2
	for _, s := range sections {
		for i, item := range s.items {
			cell := fmt.Sprintf("A%d", row)
			if err := f.SetSheetRow(SheetFindings, cell, &[]any{s.name, i + 1, item}); err != nil {
				return fmt.Errorf("write findings row %d: %w", row, err)
			}
			row++
		}
	}
	return f.SetColWidth(SheetFindings, "C", "C", 90)
}

func quantityLabel(deal models.Deal) string {
	if deal.Quantity == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v %s", *deal.Quantity, deal.QuantityUnit))
}
