package memory

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type txKey struct{}

// Transaction collects compensations registered by the stores while a unit of
// work runs, and replays them in reverse when the work fails.
type Transaction struct {
	mu            sync.Mutex
	compensations []Compensation
}

type Compensation struct {
	Name string
	Fn   func()
}

func (t *Transaction) AddCompensation(name string, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.compensations = append(t.compensations, Compensation{name, fn})
}

func (t *Transaction) rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.compensations) - 1; i >= 0; i-- {
		t.compensations[i].Fn()
	}
	t.compensations = nil
}

// transactionFrom returns the unit of work bound to ctx, if any.
func transactionFrom(ctx context.Context) *Transaction {
	tx, _ := ctx.Value(txKey{}).(*Transaction)
	return tx
}

// UnitOfWork implements entity.UnitOfWork for the in-memory stores.
type UnitOfWork struct {
	Logger *zap.Logger
}

func NewUnitOfWork(logger *zap.Logger) *UnitOfWork {
	return &UnitOfWork{Logger: logger.Named("memory-uow")}
}

func (u *UnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if transactionFrom(ctx) != nil {
		return fn(ctx)
	}

	tx := &Transaction{}
	ctx = context.WithValue(ctx, txKey{}, tx)

	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			err = fmt.Errorf("memory: unit of work panicked: %v", r)
		}
	}()

	if err := fn(ctx); err != nil {
		u.Logger.Debug("rolling back unit of work", zap.Int("compensations", len(tx.compensations)), zap.Error(err))
		tx.rollback()
		return err
	}
	return nil
}
