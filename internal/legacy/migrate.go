package legacy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/models"
	"github.com/pauljones0/commodity-tracker/internal/validator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report counts what a migration run read and wrote.
type Report struct {
	SourcesRead      int
	SourcesCreated   int
	SourcesReused    int
	DealsRead        int
	DealsMigrated    int
	AnalysesMigrated int
}

// Counts are row totals in the hosted store after a run.
type Counts struct {
	Sources  int
	Deals    int
	Analyses int
}

type Migrator struct {
	tables   gateway.Tables
	db       *gorm.DB
	validate *validator.Validator
	logger   *slog.Logger
	now      func() time.Time
}

func NewMigrator(tables gateway.Tables, db *gorm.DB, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{
		tables:   tables,
		db:       db,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Run copies sources, then deals with their analyses. A failing row is
// logged and skipped; all row failures are returned together.
func (m *Migrator) Run(ctx context.Context) (*Report, error) {
	sources, deals, err := Load(ctx, m.db)
	if err != nil {
		return nil, err
	}

	report := &Report{SourcesRead: len(sources), DealsRead: len(deals)}
	ids, srcErr := m.migrateSources(ctx, sources, report)
	dealErr := m.migrateDeals(ctx, deals, ids, report)

	m.logger.Info("Legacy migration finished",
		"sources-created", report.SourcesCreated,
		"sources-reused", report.SourcesReused,
		"deals", report.DealsMigrated,
		"analyses", report.AnalysesMigrated)
	return report, multierr.Append(srcErr, dealErr)
}

// Verify counts the rows now in the hosted store.
func (m *Migrator) Verify(ctx context.Context) (Counts, error) {
	type idRow struct {
		ID string `json:"id"`
	}
	var c Counts
	var errs error
	for table, dst := range map[string]*int{
		models.TableSources:      &c.Sources,
		models.TableDeals:        &c.Deals,
		models.TableDealAnalyses: &c.Analyses,
	} {
		rows, err := gateway.List[idRow](ctx, m.tables, gateway.From(table))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("count %s: %w", table, err))
			continue
		}
		*dst = len(rows)
	}
	return c, errs
}

// migrateSources returns legacy source name to new id.
func (m *Migrator) migrateSources(ctx context.Context, sources []Source, report *Report) (map[string]string, error) {
	ids := make(map[string]string, len(sources))
	var errs error

	for _, src := range sources {
		logger := m.logger.With("source", src.Name)
		rating := models.DefaultReliability
		if src.ReliabilityRating != nil {
			rating = models.ClampReliability(*src.ReliabilityRating)
		}
		legacyID := src.ID
		row := models.Source{
			Name:              src.Name,
			ReliabilityRating: rating,
			TotalDeals:        src.TotalDeals,
			SuccessfulDeals:   src.SuccessfulDeals,
			LegacyID:          &legacyID,
		}

		var created models.Source
		err := m.tables.Insert(ctx, models.TableSources, row, &created)
		switch {
		case err == nil:
			ids[src.Name] = created.ID
			report.SourcesCreated++
			logger.Info("Source migrated", "id", created.ID)
		case errors.Is(err, gateway.ErrConflict):
			existing, lookupErr := gateway.First[models.Source](ctx, m.tables, gateway.From(models.TableSources).Eq("name", src.Name))
			if lookupErr != nil {
				errs = multierr.Append(errs, fmt.Errorf("source %q exists but lookup failed: %w", src.Name, lookupErr))
				continue
			}
			ids[src.Name] = existing.ID
			report.SourcesReused++
			logger.Info("Source already exists", "id", existing.ID)
		default:
			logger.Error("Source not migrated", logx.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("source %q: %w", src.Name, err))
		}
	}
	return ids, errs
}

func (m *Migrator) migrateDeals(ctx context.Context, deals []Deal, sourceIDs map[string]string, report *Report) error {
	var errs error
	for _, d := range deals {
		logger := m.logger.With("legacy-id", d.ID)

		input := m.dealInput(d, sourceIDs)
		if err := m.validate.ValidateStruct(input); err != nil {
			logger.Warn("Deal skipped", logx.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("deal #%d: %w", d.ID, err))
			continue
		}

		var created models.Deal
		if err := m.tables.Insert(ctx, models.TableDeals, input, &created); err != nil {
			logger.Error("Deal not migrated", logx.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("deal #%d: %w", d.ID, err))
			continue
		}
		report.DealsMigrated++
		logger.Info("Deal migrated", logx.FieldDealID, created.ID)

		analysis, ok := Analysis(d, created.ID)
		if !ok {
			continue
		}
		if err := m.tables.Insert(ctx, models.TableDealAnalyses, analysis, nil); err != nil {
			logger.Warn("Analysis not migrated", logx.FieldDealID, created.ID, logx.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("analysis of deal #%d: %w", d.ID, err))
			continue
		}
		report.AnalysesMigrated++
	}
	return errs
}

func (m *Migrator) dealInput(d Deal, sourceIDs map[string]string) models.DealInput {
	status, err := models.ParseDealStatus(deref(d.Status))
	if err != nil {
		status = models.StatusUnassigned
	}
	priceType, err := models.ParsePriceType(deref(d.PriceType))
	if err != nil {
		priceType = models.PriceTypeFixed
	}

	var pricing models.Pricing
	if priceType == models.PriceTypeLMEDiscount {
		if d.GrossDiscount != nil || d.Commission != nil {
			pricing = models.NewDiscountPrice(d.GrossDiscount, d.Commission)
		} else {
			pricing = models.DiscountPrice{Net: d.NetDiscount}
		}
	} else {
		currency := deref(d.PriceCurrency)
		if currency == "" {
			currency = models.DefaultCurrency
		}
		pricing = models.FixedPrice{Amount: d.Price, Currency: currency}
	}

	commodity := d.CommodityType
	if strings.TrimSpace(commodity) == "" {
		commodity = "Unknown"
	}
	date := d.DateReceived
	if date == "" {
		date = m.now().Format(time.DateOnly)
	}
	legacyID := d.ID

	in := models.DealInput{
		CommodityType:     commodity,
		SourceName:        d.SourceName,
		SourceReliability: d.SourceReliability,
		DealText:          deref(d.DealText),
		Pricing:           pricing,
		Quantity:          d.Quantity,
		QuantityUnit:      deref(d.QuantityUnit),
		OriginCountry:     deref(d.OriginCountry),
		PaymentMethod:     deref(d.PaymentMethod),
		ShippingTerms:     deref(d.ShippingTerms),
		AdditionalNotes:   deref(d.AdditionalNotes),
		DateReceived:      date,
		Status:            status,
		AIScore:           roundScore(d.AIScore),
		LegacyID:          &legacyID,
	}
	if id, ok := sourceIDs[d.SourceName]; ok {
		in.SourceID = &id
	}
	return in
}

// Analysis converts the inline AI result of a legacy deal into an
// analysis row. ok is false when there is nothing worth keeping.
func Analysis(d Deal, dealID string) (models.DealAnalysis, bool) {
	data := parseAIData(d)
	if len(data) == 0 {
		return models.DealAnalysis{}, false
	}

	score := scoreValue(data["score"])
	if score == nil {
		score = roundScore(d.AIScore)
	}
	if score == nil {
		return models.DealAnalysis{}, false
	}

	a := models.DealAnalysis{
		DealID:           dealID,
		Score:            score,
		Recommendation:   text(data["recommendation"]),
		ExecutiveSummary: text(data["executive_summary"]),
		MarketAnalysis:   text(data["market_analysis"]),
		OriginAnalysis:   text(data["origin_analysis"]),
		BuyerProfile:     text(data["buyer_profile"]),
		PriceAnalysis:    text(data["price_analysis"]),
		PaymentLogistics: text(data["payment_logistics"]),
		RedFlags:         list(data["red_flags"]),
		UnusualPatterns:  list(data["unusual_patterns"]),
		Strengths:        list(data["strengths"]),
		NextSteps:        list(data["next_steps"]),
		Reasoning:        list(data["reasoning"]),
	}
	if risk := models.RiskLevel(strings.ToLower(text(data["risk_level"]))); risk.IsValid() {
		a.RiskLevel = &risk
	}
	return a, true
}

// parseAIData prefers ai_analysis and falls back to ai_reasoning, which
// may hold an object, a list of reasons or plain text.
func parseAIData(d Deal) map[string]any {
	if raw := strings.TrimSpace(deref(d.AIAnalysis)); raw != "" {
		var obj map[string]any
		if err := json.UnmarshalFromString(raw, &obj); err == nil && len(obj) > 0 {
			return obj
		}
	}

	raw := strings.TrimSpace(deref(d.AIReasoning))
	if raw == "" {
		return nil
	}
	var parsed any
	if err := json.UnmarshalFromString(raw, &parsed); err != nil {
		return map[string]any{"reasoning": []any{raw}}
	}
	switch v := parsed.(type) {
	case map[string]any:
		return v
	case []any:
		return map[string]any{"reasoning": v}
	default:
		return map[string]any{"reasoning": []any{raw}}
	}
}

func list(v any) models.AnalysisList {
	items := models.ParseAnalysisList(v)
	if items == nil {
		return models.AnalysisList{}
	}
	return items
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		s, err := json.MarshalToString(x)
		if err != nil {
			return ""
		}
		return s
	}
}

func scoreValue(v any) *int {
	switch x := v.(type) {
	case float64:
		return roundScore(&x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		return roundScore(&f)
	}
	return nil
}

// roundScore maps a stored score to 0..100. Zero counts as unscored.
func roundScore(f *float64) *int {
	if f == nil || *f == 0 {
		return nil
	}
	s := int(math.Round(math.Max(0, math.Min(100, *f))))
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
