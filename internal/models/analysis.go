package models

import (
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// DealAnalysis is one AI scoring result for a deal. Analyses are never
// edited; the newest by CreatedAt is the one shown.
type DealAnalysis struct {
	ID               string       `json:"id,omitempty"`
	DealID           string       `json:"deal_id" validate:"required"`
	Score            *int         `json:"score" validate:"omitempty,gte=0,lte=100"`
	RiskLevel        *RiskLevel   `json:"risk_level"`
	Recommendation   string       `json:"recommendation,omitempty"`
	ExecutiveSummary string       `json:"executive_summary,omitempty"`
	MarketAnalysis   string       `json:"market_analysis,omitempty"`
	OriginAnalysis   string       `json:"origin_analysis,omitempty"`
	BuyerProfile     string       `json:"buyer_profile,omitempty"`
	PriceAnalysis    string       `json:"price_analysis,omitempty"`
	PaymentLogistics string       `json:"payment_logistics,omitempty"`
	RedFlags         AnalysisList `json:"red_flags"`
	UnusualPatterns  AnalysisList `json:"unusual_patterns"`
	Strengths        AnalysisList `json:"strengths"`
	NextSteps        AnalysisList `json:"next_steps"`
	Reasoning        AnalysisList `json:"reasoning"`
	CreatedAt        *time.Time   `json:"created_at,omitempty"`
}

// ScoreBand buckets the score the same way deal lists do.
func (a DealAnalysis) ScoreBand() string {
	return ScoreBand(a.Score)
}

// RiskLabel is the upper-cased risk level, or "—".
func (a DealAnalysis) RiskLabel() string {
	if a.RiskLevel == nil || *a.RiskLevel == "" {
		return "—"
	}
	return strings.ToUpper(string(*a.RiskLevel))
}

// AnalysisList is a list section of an analysis. The store holds these
// either as JSON arrays or as JSON text inside a string column; items
// may be plain strings or objects.
type AnalysisList []string

func (l *AnalysisList) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = listItems(raw)
	return nil
}

func listItems(raw any) AnalysisList {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		var nested any
		if err := json.UnmarshalFromString(trimmed, &nested); err == nil {
			if _, isList := nested.([]any); isList {
				return listItems(nested)
			}
		}
		return AnalysisList{trimmed}
	case []any:
		out := make(AnalysisList, 0, len(v))
		for _, item := range v {
			out = append(out, itemText(item))
		}
		return out
	default:
		return AnalysisList{itemText(v)}
	}
}

func itemText(item any) string {
	switch v := item.(type) {
	case string:
		return v
	case map[string]any:
		if s, ok := v["text"].(string); ok && s != "" {
			return s
		}
		if s, ok := v["description"].(string); ok && s != "" {
			return s
		}
	}
	b, err := json.Marshal(item)
	if err != nil {
		return ""
	}
	return string(b)
}

// ParseAnalysisList normalises a loosely typed list value, as found in
// legacy records, into an AnalysisList.
func ParseAnalysisList(raw any) AnalysisList {
	if msg, ok := raw.(jsoniter.RawMessage); ok {
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return nil
		}
		raw = v
	}
	return listItems(raw)
}
