package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

// RawSubmission is an inquiry as posted by the public site.
type RawSubmission struct {
	Name             string   `json:"name" validate:"required,max=200"`
	Email            string   `json:"email" validate:"required,email,max=254"`
	Phone            string   `json:"phone,omitempty" validate:"omitempty,max=40"`
	Message          string   `json:"message" validate:"required,max=10000"`
	SourceURL        string   `json:"source_url" validate:"omitempty,url,max=2048"`
	SourceTitle      string   `json:"source_title" validate:"max=500"`
	SourceTag        string   `json:"source_tag,omitempty" validate:"max=200"`
	Tags             []string `json:"tags,omitempty" validate:"max=20,dive,max=100"`
	ConsentPrivacy   bool     `json:"consent_privacy"`
	ConsentMarketing bool     `json:"consent_marketing"`
}

type CreateLeadOutput struct {
	ID    string           `json:"id"`
	State entity.LeadState `json:"state"`
}

// LeadSummary is the marketplace listing projection. It carries no contact data.
type LeadSummary struct {
	ID           string             `json:"id"`
	State        entity.LeadState   `json:"state"`
	Specialty    string             `json:"specialty"`
	Region       string             `json:"region,omitempty"`
	Locality     string             `json:"locality,omitempty"`
	Urgency      entity.Urgency     `json:"urgency"`
	Summary      string             `json:"summary"`
	Keywords     []string           `json:"keywords"`
	QualityScore int                `json:"quality_score"`
	DetailLevel  entity.DetailLevel `json:"detail_level"`
	BasePrice    *decimal.Decimal   `json:"base_price,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

type ListLeadsOutput struct {
	Items    []LeadSummary `json:"items"`
	Total    int           `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// LeadView is the detail projection. Redacted is true when contact data was masked.
type LeadView struct {
	entity.Lead
	Redacted bool `json:"redacted"`
}
