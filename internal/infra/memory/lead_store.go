package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

// LeadStore keeps leads in a map guarded by one mutex. MarkSold checks and
// writes the state under that mutex, which makes it a compare-and-set.
type LeadStore struct {
	mu    sync.RWMutex
	leads map[string]*entity.Lead
}

func NewLeadStore() *LeadStore {
	return &LeadStore{leads: make(map[string]*entity.Lead)}
}

func (s *LeadStore) Create(ctx context.Context, lead *entity.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.leads[lead.ID]; exists {
		return fmt.Errorf("memory: lead %s already exists", lead.ID)
	}
	s.leads[lead.ID] = lead.Clone()

	if tx := transactionFrom(ctx); tx != nil {
		id := lead.ID
		tx.AddCompensation("delete_lead", func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.leads, id)
		})
	}
	return nil
}

func (s *LeadStore) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, ok := s.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return lead.Clone(), nil
}

func (s *LeadStore) List(_ context.Context, filter entity.LeadFilter) ([]*entity.Lead, int, error) {
	filter.Normalize()

	s.mu.RLock()
	matched := make([]*entity.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		if matchesFilter(l, filter) {
			matched = append(matched, l.Clone())
		}
	}
	s.mu.RUnlock()

	sortLeads(matched, filter.SortKey, filter.SortOrder == "asc")

	total := len(matched)
	start := (filter.Page - 1) * filter.PageSize
	if start >= total {
		return []*entity.Lead{}, total, nil
	}
	end := min(start+filter.PageSize, total)
	return matched[start:end], total, nil
}

func (s *LeadStore) MarkSold(ctx context.Context, params entity.SaleParams) (*entity.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.leads[params.LeadID]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	switch current.State {
	case entity.LeadStateProcessed:
	case entity.LeadStateSold:
		return nil, entity.ErrAlreadySold
	default:
		return nil, entity.ErrLeadNotAvailable
	}

	previous := current.Clone()
	next := current.Clone()
	if err := next.MarkSold(params.BuyerID, params.Price, params.SoldAt); err != nil {
		return nil, err
	}
	s.leads[params.LeadID] = next

	if tx := transactionFrom(ctx); tx != nil {
		tx.AddCompensation("restore_lead", func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.leads[previous.ID] = previous
		})
	}
	return next.Clone(), nil
}

func matchesFilter(l *entity.Lead, f entity.LeadFilter) bool {
	if len(f.States) > 0 && !slices.Contains(f.States, l.State) {
		return false
	}
	if f.Specialty != "" && !strings.EqualFold(l.Specialty, f.Specialty) {
		return false
	}
	if f.Region != "" && !strings.EqualFold(l.Region, f.Region) {
		return false
	}
	if f.Urgency != "" && l.Urgency != f.Urgency {
		return false
	}
	if f.MaxPrice != nil && (l.BasePrice == nil || l.BasePrice.GreaterThan(*f.MaxPrice)) {
		return false
	}
	return true
}

func sortLeads(leads []*entity.Lead, key string, asc bool) {
	less := func(a, b *entity.Lead) bool {
		switch key {
		case "base_price":
			pa, pb := priceOf(a), priceOf(b)
			if !pa.Equal(pb) {
				return pa.LessThan(pb)
			}
		case "quality_score":
			if a.QualityScore != b.QualityScore {
				return a.QualityScore < b.QualityScore
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	}
	sort.SliceStable(leads, func(i, j int) bool {
		if asc {
			return less(leads[i], leads[j])
		}
		return less(leads[j], leads[i])
	})
}

func priceOf(l *entity.Lead) decimal.Decimal {
	if l.BasePrice == nil {
		return decimal.Zero
	}
	return *l.BasePrice
}
