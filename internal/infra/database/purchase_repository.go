package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

const uniqueViolation = "23505"

type PurchaseRepository struct {
	DB *sql.DB
}

func NewPurchaseRepository(db *sql.DB) *PurchaseRepository {
	return &PurchaseRepository{DB: db}
}

// Create stores the purchase. A second purchase of the same lead violates
// the unique lead_id constraint and reports ErrAlreadySold.
func (r *PurchaseRepository) Create(ctx context.Context, p *entity.Purchase) error {
	snapshot, err := json.Marshal(p.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	query := `
		INSERT INTO purchases (id, lead_id, buyer_id, type, price_paid, snapshot, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = conn(ctx, r.DB).ExecContext(ctx, query,
		p.ID,
		p.LeadID,
		p.BuyerID,
		string(p.Type),
		p.PricePaid,
		string(snapshot),
		string(p.Status),
		p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return entity.ErrAlreadySold
		}
		return err
	}
	return nil
}

func (r *PurchaseRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*entity.Purchase, error) {
	query := `
		SELECT id, lead_id, buyer_id, type, price_paid, snapshot, status, created_at
		FROM purchases
		WHERE buyer_id = $1
		ORDER BY created_at DESC
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*entity.Purchase{}
	for rows.Next() {
		var (
			p        entity.Purchase
			typ      string
			status   string
			snapshot []byte
		)
		if err := rows.Scan(&p.ID, &p.LeadID, &p.BuyerID, &typ, &p.PricePaid, &snapshot, &status, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapshot, &p.Snapshot); err != nil {
			return nil, fmt.Errorf("decode snapshot of purchase %s: %w", p.ID, err)
		}
		p.Type = entity.PurchaseType(typ)
		p.Status = entity.PurchaseStatus(status)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *PurchaseRepository) CountByLead(ctx context.Context, leadID string) (int, error) {
	var n int
	err := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM purchases WHERE lead_id = $1`, leadID).Scan(&n)
	return n, err
}
