package handlers

import (
	"encoding/json"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-marketplace/internal/infra/ratelimit"
	"github.com/xavierca1/lead-marketplace/internal/usecase"
)

// maxSubmissionBytes bounds the intake body; the message itself is capped at 10k chars.
const maxSubmissionBytes = 64 << 10

type LeadHandler struct {
	CreateLead *usecase.CreateLeadUseCase
	Limiter    ratelimit.Limiter
	Logger     *zap.Logger
}

func NewLeadHandler(uc *usecase.CreateLeadUseCase, limiter ratelimit.Limiter, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{CreateLead: uc, Limiter: limiter, Logger: logger.Named("lead_handler")}
}

// Capture handles POST /leads from the public site.
func (h *LeadHandler) Capture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Limiter != nil {
		ip := ClientIP(r)
		allowed, err := h.Limiter.Allow(ctx, ip)
		if err != nil {
			// Fail open: a limiter outage must not stop intake.
			h.Logger.Warn("rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			writeProblem(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, try again later")
			return
		}
	}

	var input usecase.RawSubmission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBytes)).Decode(&input); err != nil {
		writeProblem(w, http.StatusBadRequest, usecase.CodeValidation, "invalid JSON body")
		return
	}

	lead, err := h.CreateLead.Execute(ctx, input)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, usecase.CreateLeadOutput{ID: lead.ID, State: lead.State})
}

// ClientIP returns the connection address without its port. Forwarding
// headers are never read here; when the router trusts a proxy, chi's RealIP
// has already rewritten RemoteAddr.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
