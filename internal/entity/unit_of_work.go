package entity

import "context"

// UnitOfWork runs fn atomically: either every write inside it is kept or none is.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
