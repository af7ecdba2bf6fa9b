package entity

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeadData is the canonical shape of a public inquiry after normalization.
type LeadData struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone,omitempty"`
	Message          string   `json:"message"`
	SourceURL        string   `json:"source_url"`
	SourceTitle      string   `json:"source_title"`
	SourceTag        string   `json:"source_tag,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	ConsentPrivacy   bool     `json:"consent_privacy"`
	ConsentMarketing bool     `json:"consent_marketing"`
}

// ApprovalTrace records why the quality gate accepted or rejected a lead.
type ApprovalTrace struct {
	Accepted      bool      `json:"accepted"`
	FailedClauses []string  `json:"failed_clauses,omitempty"`
	QualityScore  int       `json:"quality_score"`
	DecidedAt     time.Time `json:"decided_at"`
}

type Lead struct {
	ID string `json:"id"`

	// Contact data. Only the buyer may read these.
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`

	SourceURL        string   `json:"source_url"`
	SourceTitle      string   `json:"source_title"`
	SourceTag        string   `json:"source_tag,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	ConsentPrivacy   bool     `json:"consent_privacy"`
	ConsentMarketing bool     `json:"consent_marketing"`

	Specialty      string          `json:"specialty"`
	Region         string          `json:"region,omitempty"`
	Locality       string          `json:"locality,omitempty"`
	Urgency        Urgency         `json:"urgency"`
	Summary        string          `json:"summary"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
	Keywords       []string        `json:"keywords"`
	QualityScore   int             `json:"quality_score"`
	DetailLevel    DetailLevel     `json:"detail_level"`

	State     LeadState        `json:"state"`
	BasePrice *decimal.Decimal `json:"base_price,omitempty"`
	BuyerID   *string          `json:"buyer_id,omitempty"`
	SalePrice *decimal.Decimal `json:"sale_price,omitempty"`
	SoldAt    *time.Time       `json:"sold_at,omitempty"`
	Approval  *ApprovalTrace   `json:"approval,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// NewLead builds a pending lead from normalized intake data.
func NewLead(data LeadData, now time.Time) *Lead {
	return &Lead{
		ID:               uuid.New().String(),
		Name:             data.Name,
		Email:            data.Email,
		Phone:            data.Phone,
		Message:          data.Message,
		SourceURL:        data.SourceURL,
		SourceTitle:      data.SourceTitle,
		SourceTag:        data.SourceTag,
		Tags:             slices.Clone(data.Tags),
		ConsentPrivacy:   data.ConsentPrivacy,
		ConsentMarketing: data.ConsentMarketing,
		State:            LeadStatePending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Data returns the intake fields of the lead.
func (l *Lead) Data() LeadData {
	return LeadData{
		Name:             l.Name,
		Email:            l.Email,
		Phone:            l.Phone,
		Message:          l.Message,
		SourceURL:        l.SourceURL,
		SourceTitle:      l.SourceTitle,
		SourceTag:        l.SourceTag,
		Tags:             slices.Clone(l.Tags),
		ConsentPrivacy:   l.ConsentPrivacy,
		ConsentMarketing: l.ConsentMarketing,
	}
}

// ApplyAnalysis writes the analysis fields and moves the lead out of pending in
// one step. Accepted leads are priced; rejected leads never carry a base price.
func (l *Lead) ApplyAnalysis(a LeadAnalysis, decision QualityDecision, now time.Time) error {
	next := LeadStateDiscarded
	if decision.Accepted {
		next = LeadStateProcessed
	}
	if err := ValidateTransition(l.State, next); err != nil {
		return err
	}

	l.Specialty = a.Specialty
	l.Region = a.Region
	l.Locality = a.Locality
	l.Urgency = a.Urgency
	l.Summary = a.Summary
	l.EstimatedValue = a.EstimatedValue
	l.Keywords = slices.Clone(a.Keywords)
	l.QualityScore = a.QualityScore
	l.DetailLevel = a.DetailLevel

	l.State = next
	l.BasePrice = nil
	if decision.Accepted {
		price := ComputeBasePrice(a.EstimatedValue, a.QualityScore, a.Urgency)
		l.BasePrice = &price
	}
	l.Approval = &ApprovalTrace{
		Accepted:      decision.Accepted,
		FailedClauses: slices.Clone(decision.FailedClauses),
		QualityScore:  a.QualityScore,
		DecidedAt:     now,
	}
	l.ProcessedAt = &now
	l.UpdatedAt = now
	return nil
}

// MarkSold applies the sale fields. Callers must hold the conditional write
// that guards processed -> sold.
func (l *Lead) MarkSold(buyerID string, price decimal.Decimal, at time.Time) error {
	if l.State == LeadStateSold {
		return ErrAlreadySold
	}
	if err := ValidateTransition(l.State, LeadStateSold); err != nil {
		return err
	}
	l.State = LeadStateSold
	l.BuyerID = &buyerID
	l.SalePrice = &price
	l.SoldAt = &at
	l.UpdatedAt = at
	return nil
}

// IsOwnedBy reports whether userID bought the lead.
func (l *Lead) IsOwnedBy(userID string) bool {
	return userID != "" && l.BuyerID != nil && *l.BuyerID == userID
}

// Clone returns a deep copy safe to hand out of a store.
func (l *Lead) Clone() *Lead {
	c := *l
	c.Tags = slices.Clone(l.Tags)
	c.Keywords = slices.Clone(l.Keywords)
	if l.BasePrice != nil {
		v := *l.BasePrice
		c.BasePrice = &v
	}
	if l.BuyerID != nil {
		v := *l.BuyerID
		c.BuyerID = &v
	}
	if l.SalePrice != nil {
		v := *l.SalePrice
		c.SalePrice = &v
	}
	if l.SoldAt != nil {
		v := *l.SoldAt
		c.SoldAt = &v
	}
	if l.ProcessedAt != nil {
		v := *l.ProcessedAt
		c.ProcessedAt = &v
	}
	if l.Approval != nil {
		a := *l.Approval
		a.FailedClauses = slices.Clone(l.Approval.FailedClauses)
		c.Approval = &a
	}
	return &c
}

// SaleParams carries the fields written by the processed -> sold transition.
type SaleParams struct {
	LeadID  string
	BuyerID string
	Price   decimal.Decimal
	SoldAt  time.Time
}

// LeadFilter narrows marketplace listings. Zero values mean "no filter".
type LeadFilter struct {
	States    []LeadState
	Specialty string
	Region    string
	Urgency   Urgency
	MaxPrice  *decimal.Decimal
	Page      int
	PageSize  int
	SortKey   string
	SortOrder string
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize fills paging and sorting defaults.
func (f *LeadFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > MaxPageSize {
		f.PageSize = DefaultPageSize
	}
	switch f.SortKey {
	case "created_at", "base_price", "quality_score":
	default:
		f.SortKey = "created_at"
	}
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		f.SortOrder = "desc"
	}
}

type LeadRepository interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]*Lead, int, error)
	// MarkSold is a compare-and-set on state: it succeeds only while the lead
	// is processed. ErrAlreadySold, ErrLeadNotAvailable and ErrLeadNotFound
	// report why it did not.
	MarkSold(ctx context.Context, params SaleParams) (*Lead, error)
}
