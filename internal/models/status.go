package models

import (
	"fmt"
	"strings"
)

// DealStatus is the lifecycle stage of a deal.
type DealStatus string

const (
	StatusUnassigned  DealStatus = "unassigned"
	StatusUnderReview DealStatus = "under_review"
	StatusInProgress  DealStatus = "in_progress"
	StatusOnHold      DealStatus = "on_hold"
	StatusDone        DealStatus = "done"
)

var validDealStatuses = []DealStatus{
	StatusUnassigned,
	StatusUnderReview,
	StatusInProgress,
	StatusOnHold,
	StatusDone,
}

// DealStatuses returns every known status in pipeline order.
func DealStatuses() []DealStatus {
	out := make([]DealStatus, len(validDealStatuses))
	copy(out, validDealStatuses)
	return out
}

// String implements fmt.Stringer.
func (s DealStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DealStatus.
func (s DealStatus) IsValid() bool {
	for _, candidate := range validDealStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Label renders the status for people: underscores become spaces.
func (s DealStatus) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// ParseDealStatus converts raw input into a DealStatus.
func ParseDealStatus(value string) (DealStatus, error) {
	for _, candidate := range validDealStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid deal status %q", value)
}

// PriceType discriminates the two pricing shapes a deal can carry.
type PriceType string

const (
	PriceTypeFixed       PriceType = "fixed_price"
	PriceTypeLMEDiscount PriceType = "lme_discount"
)

func (p PriceType) String() string {
	return string(p)
}

func (p PriceType) IsValid() bool {
	return p == PriceTypeFixed || p == PriceTypeLMEDiscount
}

func ParsePriceType(value string) (PriceType, error) {
	p := PriceType(value)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid price type %q", value)
	}
	return p, nil
}

// Role gates privileged operations.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// RiskLevel is the analysis risk grade.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) IsValid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}
