package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

type PurchaseStore struct {
	mu        sync.RWMutex
	purchases map[string]*entity.Purchase
}

func NewPurchaseStore() *PurchaseStore {
	return &PurchaseStore{purchases: make(map[string]*entity.Purchase)}
}

func (s *PurchaseStore) Create(ctx context.Context, p *entity.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.purchases[p.ID]; exists {
		return fmt.Errorf("memory: purchase %s already exists", p.ID)
	}
	for _, existing := range s.purchases {
		if existing.LeadID == p.LeadID {
			return fmt.Errorf("memory: lead %s already has a purchase", p.LeadID)
		}
	}
	s.purchases[p.ID] = clonePurchase(p)

	if tx := transactionFrom(ctx); tx != nil {
		id := p.ID
		tx.AddCompensation("delete_purchase", func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.purchases, id)
		})
	}
	return nil
}

func (s *PurchaseStore) ListByBuyer(_ context.Context, buyerID string) ([]*entity.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*entity.Purchase{}
	for _, p := range s.purchases {
		if p.BuyerID == buyerID {
			out = append(out, clonePurchase(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *PurchaseStore) CountByLead(_ context.Context, leadID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.purchases {
		if p.LeadID == leadID {
			n++
		}
	}
	return n, nil
}

func clonePurchase(p *entity.Purchase) *entity.Purchase {
	c := *p
	c.Snapshot = *p.Snapshot.Clone()
	return &c
}
