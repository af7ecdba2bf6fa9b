package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

const leadColumns = `id, name, email, phone, message, source_url, source_title, source_tag, tags,
	consent_privacy, consent_marketing, specialty, region, locality, urgency, summary,
	estimated_value, keywords, quality_score, detail_level, state, base_price, buyer_id,
	sale_price, sold_at, approval, created_at, updated_at, processed_at`

var leadSortColumns = map[string]string{
	"created_at":    "created_at",
	"base_price":    "base_price",
	"quality_score": "quality_score",
}

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	approval, err := approvalJSON(lead.Approval)
	if err != nil {
		return fmt.Errorf("encode approval: %w", err)
	}

	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
	`
	_, err = conn(ctx, r.DB).ExecContext(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Message,
		lead.SourceURL,
		lead.SourceTitle,
		lead.SourceTag,
		pq.Array(nonNil(lead.Tags)),
		lead.ConsentPrivacy,
		lead.ConsentMarketing,
		lead.Specialty,
		lead.Region,
		lead.Locality,
		string(lead.Urgency),
		lead.Summary,
		lead.EstimatedValue,
		pq.Array(nonNil(lead.Keywords)),
		lead.QualityScore,
		string(lead.DetailLevel),
		string(lead.State),
		nullDecimal(lead.BasePrice),
		lead.BuyerID,
		nullDecimal(lead.SalePrice),
		lead.SoldAt,
		approval,
		lead.CreatedAt,
		lead.UpdatedAt,
		lead.ProcessedAt,
	)
	return err
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	row := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	return lead, err
}

func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]*entity.Lead, int, error) {
	filter.Normalize()

	where, args := leadWhere(filter)

	var total int
	if err := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := strings.ToUpper(filter.SortOrder)
	query := `SELECT ` + leadColumns + ` FROM leads` + where +
		` ORDER BY ` + leadSortColumns[filter.SortKey] + ` ` + order + ` NULLS LAST, created_at ` + order + `, id ` + order +
		` LIMIT ` + placeholder(len(args)+1) + ` OFFSET ` + placeholder(len(args)+2)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := []*entity.Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	return leads, total, rows.Err()
}

// MarkSold flips processed to sold in one conditional UPDATE. When no row
// matches, the current state decides which error the loser gets.
func (r *LeadRepository) MarkSold(ctx context.Context, params entity.SaleParams) (*entity.Lead, error) {
	q := conn(ctx, r.DB)
	query := `
		UPDATE leads
		SET state = 'sold', buyer_id = $2, sale_price = $3, sold_at = $4, updated_at = $4
		WHERE id = $1 AND state = 'processed'
		RETURNING ` + leadColumns

	lead, err := scanLead(q.QueryRowContext(ctx, query, params.LeadID, params.BuyerID, params.Price, params.SoldAt))
	if err == nil {
		return lead, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var state string
	err = q.QueryRowContext(ctx, `SELECT state FROM leads WHERE id = $1`, params.LeadID).Scan(&state)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, entity.ErrLeadNotFound
	case err != nil:
		return nil, err
	case entity.LeadState(state) == entity.LeadStateSold:
		return nil, entity.ErrAlreadySold
	default:
		return nil, fmt.Errorf("%w: state is %s", entity.ErrLeadNotAvailable, state)
	}
}

func leadWhere(f entity.LeadFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, strings.ReplaceAll(clause, "?", placeholder(len(args))))
	}

	if len(f.States) > 0 {
		states := make([]string, len(f.States))
		for i, s := range f.States {
			states[i] = string(s)
		}
		add("state = ANY(?)", pq.Array(states))
	}
	if f.Specialty != "" {
		add("lower(specialty) = lower(?)", f.Specialty)
	}
	if f.Region != "" {
		add("lower(region) = lower(?)", f.Region)
	}
	if f.Urgency != "" {
		add("urgency = ?", string(f.Urgency))
	}
	if f.MaxPrice != nil {
		add("base_price <= ?", *f.MaxPrice)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		l           entity.Lead
		tags        pq.StringArray
		keywords    pq.StringArray
		urgency     string
		detail      string
		state       string
		basePrice   decimal.NullDecimal
		salePrice   decimal.NullDecimal
		buyerID     sql.NullString
		soldAt      sql.NullTime
		approval    []byte
		processedAt sql.NullTime
	)
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Email,
		&l.Phone,
		&l.Message,
		&l.SourceURL,
		&l.SourceTitle,
		&l.SourceTag,
		&tags,
		&l.ConsentPrivacy,
		&l.ConsentMarketing,
		&l.Specialty,
		&l.Region,
		&l.Locality,
		&urgency,
		&l.Summary,
		&l.EstimatedValue,
		&keywords,
		&l.QualityScore,
		&detail,
		&state,
		&basePrice,
		&buyerID,
		&salePrice,
		&soldAt,
		&approval,
		&l.CreatedAt,
		&l.UpdatedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Tags = []string(tags)
	l.Keywords = nonNil([]string(keywords))
	l.Urgency = entity.Urgency(urgency)
	l.DetailLevel = entity.DetailLevel(detail)
	l.State = entity.LeadState(state)
	l.BasePrice = decimalPtr(basePrice)
	l.SalePrice = decimalPtr(salePrice)
	l.BuyerID = stringPtr(buyerID)
	l.SoldAt = timePtr(soldAt)
	l.ProcessedAt = timePtr(processedAt)
	if len(approval) > 0 {
		var trace entity.ApprovalTrace
		if err := json.Unmarshal(approval, &trace); err != nil {
			return nil, fmt.Errorf("decode approval: %w", err)
		}
		l.Approval = &trace
	}
	return &l, nil
}

// approvalJSON encodes the trace for a JSONB column, or NULL when absent.
func approvalJSON(a *entity.ApprovalTrace) (any, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
