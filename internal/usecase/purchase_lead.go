package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-marketplace/internal/entity"
	"github.com/xavierca1/lead-marketplace/internal/infra/metrics"
)

type PurchaseLeadUseCase struct {
	Leads     entity.LeadRepository
	Purchases entity.PurchaseRepository
	UoW       entity.UnitOfWork
	Notifier  Notifier
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewPurchaseLeadUseCase(
	leads entity.LeadRepository,
	purchases entity.PurchaseRepository,
	uow entity.UnitOfWork,
	notifier Notifier,
	logger *zap.Logger,
) *PurchaseLeadUseCase {
	return &PurchaseLeadUseCase{
		Leads:     leads,
		Purchases: purchases,
		UoW:       uow,
		Notifier:  notifier,
		Logger:    logger.Named("purchase"),
		Now:       time.Now,
	}
}

type PurchaseLeadOutput struct {
	Lead     *entity.Lead     `json:"lead"`
	Purchase *entity.Purchase `json:"purchase"`
}

// Execute sells a processed lead to buyerID. The conditional state write is
// the only arbiter between concurrent buyers; the loser gets CodeAlreadySold.
// Notifications go out after commit and cannot undo the sale.
func (uc *PurchaseLeadUseCase) Execute(ctx context.Context, leadID, buyerID string) (*PurchaseLeadOutput, error) {
	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, uc.fail(mapLeadError(err, "failed to load lead"))
	}
	switch lead.State {
	case entity.LeadStateProcessed:
	case entity.LeadStateSold:
		return nil, uc.fail(alreadySold(leadID))
	default:
		return nil, uc.fail(notAvailable(leadID, lead.State))
	}

	price := entity.DefaultSalePrice
	if lead.BasePrice != nil {
		price = *lead.BasePrice
	}
	now := uc.Now().UTC()

	var (
		sold     *entity.Lead
		purchase *entity.Purchase
	)
	err = uc.UoW.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sold, err = uc.Leads.MarkSold(ctx, entity.SaleParams{
			LeadID:  leadID,
			BuyerID: buyerID,
			Price:   price,
			SoldAt:  now,
		})
		if err != nil {
			return err
		}
		purchase = entity.NewPurchase(sold, buyerID, price, now)
		return uc.Purchases.Create(ctx, purchase)
	})
	if err != nil {
		return nil, uc.fail(mapLeadError(err, "failed to record purchase"))
	}

	metrics.RecordPurchase("sold")
	uc.Logger.Info("lead sold",
		zap.String("lead_id", sold.ID),
		zap.String("buyer_id", buyerID),
		zap.String("price", price.String()),
		zap.String("purchase_id", purchase.ID),
	)

	if uc.Notifier != nil {
		uc.Notifier.LeadPurchased(ctx, sold, purchase)
	}
	return &PurchaseLeadOutput{Lead: sold, Purchase: purchase}, nil
}

func (uc *PurchaseLeadUseCase) fail(err error) error {
	switch ErrorCode(err) {
	case CodeAlreadySold:
		metrics.RecordPurchase("already_sold")
	case CodeLeadNotAvailable:
		metrics.RecordPurchase("not_available")
	case CodeLeadNotFound:
		metrics.RecordPurchase("not_found")
	default:
		metrics.RecordPurchase("error")
	}
	return err
}

func mapLeadError(err error, op string) error {
	switch {
	case errors.Is(err, entity.ErrLeadNotFound):
		return &DomainError{Code: CodeLeadNotFound, Message: "lead not found", Err: err}
	case errors.Is(err, entity.ErrAlreadySold):
		return &DomainError{Code: CodeAlreadySold, Message: "lead has already been sold", Err: err}
	case errors.Is(err, entity.ErrLeadNotAvailable), errors.Is(err, entity.ErrInvalidTransition):
		return &DomainError{Code: CodeLeadNotAvailable, Message: "lead is not available for purchase", Err: err}
	default:
		return newPersistenceError(op, err)
	}
}

func alreadySold(leadID string) error {
	return &DomainError{Code: CodeAlreadySold, Message: "lead " + leadID + " has already been sold", Err: entity.ErrAlreadySold}
}

func notAvailable(leadID string, state entity.LeadState) error {
	return &DomainError{
		Code:    CodeLeadNotAvailable,
		Message: "lead " + leadID + " is not available for purchase (state=" + string(state) + ")",
		Err:     entity.ErrLeadNotAvailable,
	}
}
