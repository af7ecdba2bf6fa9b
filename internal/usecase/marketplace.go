package usecase

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

// RedactedPlaceholder replaces contact fields for readers other than the buyer.
const RedactedPlaceholder = entity.RedactedIdentifier

type ListLeadsInput struct {
	Specialty string
	Region    string
	Urgency   entity.Urgency
	MaxPrice  *decimal.Decimal
	Page      int
	PageSize  int
	SortKey   string
	SortOrder string
}

// MarketplaceService serves read projections of leads. Redaction happens here,
// regardless of what the storage layer returns.
type MarketplaceService struct {
	Leads     entity.LeadRepository
	Purchases entity.PurchaseRepository
}

func NewMarketplaceService(leads entity.LeadRepository, purchases entity.PurchaseRepository) *MarketplaceService {
	return &MarketplaceService{Leads: leads, Purchases: purchases}
}

func (s *MarketplaceService) ListAvailable(ctx context.Context, in ListLeadsInput) (*ListLeadsOutput, error) {
	filter := entity.LeadFilter{
		States:    []entity.LeadState{entity.LeadStatePending, entity.LeadStateProcessed},
		Specialty: in.Specialty,
		Region:    in.Region,
		Urgency:   in.Urgency,
		MaxPrice:  in.MaxPrice,
		Page:      in.Page,
		PageSize:  in.PageSize,
		SortKey:   in.SortKey,
		SortOrder: in.SortOrder,
	}
	filter.Normalize()

	leads, total, err := s.Leads.List(ctx, filter)
	if err != nil {
		return nil, newPersistenceError("failed to list leads", err)
	}

	items := make([]LeadSummary, 0, len(leads))
	for _, l := range leads {
		if !l.State.Listable() {
			continue
		}
		items = append(items, Summarize(l))
	}
	return &ListLeadsOutput{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// GetLead returns the full lead to its buyer and a redacted view to anyone else.
func (s *MarketplaceService) GetLead(ctx context.Context, id, requesterID string) (*LeadView, error) {
	lead, err := s.Leads.FindByID(ctx, id)
	if err != nil {
		return nil, mapLeadError(err, "failed to load lead")
	}
	if lead.IsOwnedBy(requesterID) {
		return &LeadView{Lead: *lead}, nil
	}
	return &LeadView{Lead: *Redact(lead), Redacted: true}, nil
}

// ListPurchases returns the buyer's purchase records with their snapshots.
func (s *MarketplaceService) ListPurchases(ctx context.Context, buyerID string) ([]*entity.Purchase, error) {
	purchases, err := s.Purchases.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, newPersistenceError("failed to list purchases", err)
	}
	return purchases, nil
}

// Summarize builds the listing projection. Missing analysis fields fall back
// to their defaults instead of failing the read.
func Summarize(l *entity.Lead) LeadSummary {
	urgency := l.Urgency
	if _, ok := entity.ParseUrgency(string(urgency)); !ok {
		urgency = entity.DefaultUrgency
	}
	detail := l.DetailLevel
	if _, ok := entity.ParseDetailLevel(string(detail)); !ok {
		detail = entity.DefaultDetailLevel
	}
	score := l.QualityScore
	if score < entity.MinQualityScore || score > entity.MaxQualityScore {
		score = entity.DefaultQualityScore
	}
	specialty := l.Specialty
	if specialty == "" {
		specialty = entity.DefaultSpecialty
	}
	keywords := slices.Clone(l.Keywords)
	if keywords == nil {
		keywords = []string{}
	}

	var price *decimal.Decimal
	if l.BasePrice != nil {
		p := *l.BasePrice
		price = &p
	}

	return LeadSummary{
		ID:           l.ID,
		State:        l.State,
		Specialty:    specialty,
		Region:       l.Region,
		Locality:     l.Locality,
		Urgency:      urgency,
		Summary:      l.Summary,
		Keywords:     keywords,
		QualityScore: score,
		DetailLevel:  detail,
		BasePrice:    price,
		CreatedAt:    l.CreatedAt,
	}
}

// Redact masks contact data and swaps the raw message for the summary.
// Sale details belong to the buyer and are dropped as well.
func Redact(l *entity.Lead) *entity.Lead {
	r := l.Clone()
	r.BuyerID = nil
	r.SalePrice = nil
	r.Name = RedactedPlaceholder
	r.Email = RedactedPlaceholder
	if r.Phone != "" {
		r.Phone = RedactedPlaceholder
	}
	r.Message = r.Summary
	return r
}
