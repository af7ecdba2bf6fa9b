package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseType string

const PurchaseTypeExclusive PurchaseType = "exclusive"

type PurchaseStatus string

const PurchaseStatusCompleted PurchaseStatus = "completed"

// Purchase records a sale together with the lead exactly as it was sold.
// The snapshot is never updated afterwards.
type Purchase struct {
	ID        string          `json:"id"`
	LeadID    string          `json:"lead_id"`
	BuyerID   string          `json:"buyer_id"`
	Type      PurchaseType    `json:"type"`
	PricePaid decimal.Decimal `json:"price_paid"`
	Snapshot  Lead            `json:"snapshot"`
	Status    PurchaseStatus  `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewPurchase(sold *Lead, buyerID string, price decimal.Decimal, now time.Time) *Purchase {
	return &Purchase{
		ID:        uuid.New().String(),
		LeadID:    sold.ID,
		BuyerID:   buyerID,
		Type:      PurchaseTypeExclusive,
		PricePaid: price,
		Snapshot:  *sold.Clone(),
		Status:    PurchaseStatusCompleted,
		CreatedAt: now,
	}
}

type PurchaseRepository interface {
	Create(ctx context.Context, p *Purchase) error
	ListByBuyer(ctx context.Context, buyerID string) ([]*Purchase, error)
	CountByLead(ctx context.Context, leadID string) (int, error)
}
