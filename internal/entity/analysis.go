package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

// ParseUrgency maps free text onto the closed urgency set.
func ParseUrgency(s string) (Urgency, bool) {
	switch u := Urgency(strings.ToLower(strings.TrimSpace(s))); u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent:
		return u, true
	}
	return "", false
}

type DetailLevel string

const (
	DetailLevelLow    DetailLevel = "low"
	DetailLevelMedium DetailLevel = "medium"
	DetailLevelHigh   DetailLevel = "high"
)

func ParseDetailLevel(s string) (DetailLevel, bool) {
	switch d := DetailLevel(strings.ToLower(strings.TrimSpace(s))); d {
	case DetailLevelLow, DetailLevelMedium, DetailLevelHigh:
		return d, true
	}
	return "", false
}

// Defaults applied to analysis fields outside their domain.
const (
	DefaultSpecialty    = "general"
	DefaultQualityScore = 50
	DefaultUrgency      = UrgencyMedium
	DefaultDetailLevel  = DetailLevelMedium
	MinQualityScore     = 1
	MaxQualityScore     = 100
)

var DefaultEstimatedValue = decimal.NewFromInt(100)

// RedactedIdentifier replaces personal data removed from summaries and views.
const RedactedIdentifier = "[redacted]"

// LeadAnalysis is the validated output of the external classifier.
type LeadAnalysis struct {
	Summary        string          `json:"summary"`
	Specialty      string          `json:"specialty"`
	Region         string          `json:"region,omitempty"`
	Locality       string          `json:"locality,omitempty"`
	Urgency        Urgency         `json:"urgency"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	Keywords       []string        `json:"keywords"`
	QualityScore   int             `json:"quality_score"`
	DetailLevel    DetailLevel     `json:"detail_level"`
}

// IsGenericSpecialty reports whether s is the classifier's catch-all label.
func IsGenericSpecialty(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, DefaultSpecialty)
}
