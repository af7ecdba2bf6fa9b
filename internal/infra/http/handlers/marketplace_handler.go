package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-marketplace/internal/entity"
	"github.com/xavierca1/lead-marketplace/internal/infra/http/middleware"
	"github.com/xavierca1/lead-marketplace/internal/usecase"
)

type MarketplaceHandler struct {
	Marketplace *usecase.MarketplaceService
	Purchase    *usecase.PurchaseLeadUseCase
	Logger      *zap.Logger
}

func NewMarketplaceHandler(m *usecase.MarketplaceService, p *usecase.PurchaseLeadUseCase, logger *zap.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{Marketplace: m, Purchase: p, Logger: logger.Named("marketplace_handler")}
}

// List handles GET /marketplace/leads.
func (h *MarketplaceHandler) List(w http.ResponseWriter, r *http.Request) {
	input, fields := parseListQuery(r)
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    usecase.CodeValidation,
			Message: "invalid query parameters",
			Fields:  fields,
		})
		return
	}

	out, err := h.Marketplace.ListAvailable(r.Context(), input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /leads/{id}. Anonymous callers get the redacted view.
func (h *MarketplaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.Marketplace.GetLead(r.Context(), chi.URLParam(r, "id"), middleware.Requester(r.Context()))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Buy handles POST /leads/{id}/purchase.
func (h *MarketplaceHandler) Buy(w http.ResponseWriter, r *http.Request) {
	out, err := h.Purchase.Execute(r.Context(), chi.URLParam(r, "id"), middleware.Requester(r.Context()))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// Purchases handles GET /purchases.
func (h *MarketplaceHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	items, err := h.Marketplace.ListPurchases(r.Context(), middleware.Requester(r.Context()))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func parseListQuery(r *http.Request) (usecase.ListLeadsInput, []usecase.FieldError) {
	q := r.URL.Query()
	in := usecase.ListLeadsInput{
		Specialty: q.Get("specialty"),
		Region:    q.Get("region"),
		SortKey:   q.Get("sort"),
		SortOrder: q.Get("order"),
	}
	var fields []usecase.FieldError

	if v := q.Get("urgency"); v != "" {
		u, ok := entity.ParseUrgency(v)
		if !ok {
			fields = append(fields, usecase.FieldError{Field: "urgency", Message: "must be one of low, medium, high, urgent"})
		}
		in.Urgency = u
	}
	if v := q.Get("max_price"); v != "" {
		p, err := decimal.NewFromString(v)
		if err != nil || p.IsNegative() {
			fields = append(fields, usecase.FieldError{Field: "max_price", Message: "must be a non-negative number"})
		} else {
			in.MaxPrice = &p
		}
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &in.Page}, {"page_size", &in.PageSize}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fields = append(fields, usecase.FieldError{Field: p.name, Message: "must be a positive integer"})
			continue
		}
		*p.dst = n
	}
	return in, fields
}
