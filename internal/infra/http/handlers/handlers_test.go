package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-marketplace/internal/entity"
	"github.com/xavierca1/lead-marketplace/internal/infra/http/middleware"
	"github.com/xavierca1/lead-marketplace/internal/infra/memory"
	"github.com/xavierca1/lead-marketplace/internal/infra/ratelimit"
	"github.com/xavierca1/lead-marketplace/internal/usecase"
)

type analyzerFunc func(ctx context.Context, data entity.LeadData) (*entity.LeadAnalysis, error)

func (f analyzerFunc) Analyze(ctx context.Context, data entity.LeadData) (*entity.LeadAnalysis, error) {
	return f(ctx, data)
}

func acceptAll(_ context.Context, _ entity.LeadData) (*entity.LeadAnalysis, error) {
	return &entity.LeadAnalysis{
		Summary:        strings.Repeat("Tenant asks about an unannounced rent increase. ", 2),
		Specialty:      "tenancy_law",
		Region:         "Berlin",
		Urgency:        entity.UrgencyHigh,
		EstimatedValue: decimal.NewFromInt(1000),
		Keywords:       []string{"rent"},
		QualityScore:   80,
		DetailLevel:    entity.DetailLevelHigh,
	}, nil
}

type server struct {
	handler http.Handler
	leads   *memory.LeadStore
	inbox   *memory.NotificationStore
}

func newServer(t *testing.T, analyzer analyzerFunc, limit int) *server {
	t.Helper()
	return newServerWithProxy(t, analyzer, limit, false)
}

func newServerWithProxy(t *testing.T, analyzer analyzerFunc, limit int, trustProxy bool) *server {
	t.Helper()
	logger := zap.NewNop()
	leads := memory.NewLeadStore()
	purchases := memory.NewPurchaseStore()
	notifications := memory.NewNotificationStore()

	createLead := usecase.NewCreateLeadUseCase(analyzer, leads, nil, time.Second, logger)
	purchase := usecase.NewPurchaseLeadUseCase(leads, purchases, memory.NewUnitOfWork(logger), nil, logger)
	marketplace := usecase.NewMarketplaceService(leads, purchases)

	h := NewRouter(RouterConfig{
		Leads:             NewLeadHandler(createLead, ratelimit.NewMemoryLimiter(limit, time.Minute), logger),
		Marketplace:       NewMarketplaceHandler(marketplace, purchase, logger),
		Notifications:     NewNotificationHandler(usecase.NewNotificationInbox(notifications), logger),
		Health:            NewHealthHandler(nil, nil, nil, "test"),
		AllowedOrigins:    []string{"*"},
		TrustProxyHeaders: trustProxy,
		Logger:            logger,
	})
	return &server{handler: h, leads: leads, inbox: notifications}
}

func (s *server) do(method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(middleware.UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

const submission = `{
	"name": "Jane Doe",
	"email": "jane@example.com",
	"phone": "+49 30 1234567",
	"message": "My landlord raised the rent without notice.",
	"source_url": "https://example.com/tenancy",
	"source_title": "Tenancy law",
	"consent_privacy": true
}`

func createLead(t *testing.T, s *server) string {
	t.Helper()
	rec := s.do(http.MethodPost, "/leads", "", submission)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out usecase.CreateLeadOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, entity.LeadStateProcessed, out.State)
	return out.ID
}

func TestCaptureLead(t *testing.T) {
	s := newServer(t, acceptAll, 10)
	id := createLead(t, s)

	lead, err := s.leads.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", lead.Email)
}

func TestCaptureLeadErrors(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		s := newServer(t, acceptAll, 10)
		rec := s.do(http.MethodPost, "/leads", "", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validation lists fields", func(t *testing.T) {
		s := newServer(t, acceptAll, 10)
		rec := s.do(http.MethodPost, "/leads", "", `{"name":"Jane","email":"nope"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, usecase.CodeValidation, body.Code)
		names := make([]string, 0, len(body.Fields))
		for _, f := range body.Fields {
			names = append(names, f.Field)
		}
		assert.ElementsMatch(t, []string{"email", "message"}, names)
	})

	t.Run("analysis failure is a bad gateway", func(t *testing.T) {
		s := newServer(t, func(context.Context, entity.LeadData) (*entity.LeadAnalysis, error) {
			return nil, errors.New("upstream exploded: secret detail")
		}, 10)
		rec := s.do(http.MethodPost, "/leads", "", submission)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), usecase.CodeAnalysisService)
		assert.NotContains(t, rec.Body.String(), "secret detail")
	})

	t.Run("rate limited", func(t *testing.T) {
		s := newServer(t, acceptAll, 1)
		createLead(t, s)
		rec := s.do(http.MethodPost, "/leads", "", submission)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestLeadDetailRedaction(t *testing.T) {
	s := newServer(t, acceptAll, 10)
	id := createLead(t, s)

	for _, user := range []string{"", "buyer-2"} {
		rec := s.do(http.MethodGet, "/leads/"+id, user, "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.NotContains(t, body, "jane@example.com")
		assert.NotContains(t, body, "Jane Doe")
		assert.NotContains(t, body, "landlord raised")
		assert.Contains(t, body, `"redacted":true`)
	}

	rec := s.do(http.MethodPost, "/leads/"+id+"/purchase", "buyer-1", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/leads/"+id, "buyer-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jane@example.com")
	assert.Contains(t, rec.Body.String(), `"redacted":false`)

	rec = s.do(http.MethodGet, "/leads/"+id, "buyer-2", "")
	assert.NotContains(t, rec.Body.String(), "jane@example.com")
}

func TestPurchaseFlow(t *testing.T) {
	s := newServer(t, acceptAll, 10)
	id := createLead(t, s)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/leads/"+id+"/purchase", "", "").Code)
	assert.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/leads/"+id+"/purchase", "buyer-1", "").Code)

	rec := s.do(http.MethodPost, "/leads/"+id+"/purchase", "buyer-2", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), usecase.CodeAlreadySold)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/leads/missing/purchase", "buyer-1", "").Code)

	rec = s.do(http.MethodGet, "/purchases", "buyer-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Items []entity.Purchase `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, id, out.Items[0].LeadID)
	assert.Equal(t, "jane@example.com", out.Items[0].Snapshot.Email)
}

func TestMarketplaceList(t *testing.T) {
	s := newServer(t, acceptAll, 10)
	id := createLead(t, s)
	sold := createLead(t, s)
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/leads/"+sold+"/purchase", "buyer-1", "").Code)

	rec := s.do(http.MethodGet, "/marketplace/leads?specialty=tenancy_law&urgency=high&page_size=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "jane@example.com")

	var out usecase.ListLeadsOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, id, out.Items[0].ID)
	assert.Equal(t, 5, out.PageSize)

	rec = s.do(http.MethodGet, "/marketplace/leads?max_price=1", "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Empty(t, out.Items)

	rec = s.do(http.MethodGet, "/marketplace/leads?urgency=whenever&max_price=abc&page=0", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Fields, 3)
}

func TestNotificationInbox(t *testing.T) {
	s := newServer(t, acceptAll, 10)
	ctx := context.Background()
	n := entity.NewNotification("buyer-1", entity.Message{Kind: entity.NotificationLeadAvailable, Title: "New lead"}, time.Now())
	require.NoError(t, s.inbox.Create(ctx, n))

	rec := s.do(http.MethodGet, "/notifications?unread=true", "buyer-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), n.ID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/notifications/"+n.ID+"/read", "buyer-2", "").Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/notifications/"+n.ID+"/read", "buyer-1", "").Code)

	rec = s.do(http.MethodGet, "/notifications?unread=true", "buyer-1", "")
	assert.NotContains(t, rec.Body.String(), n.ID)

	rec = s.do(http.MethodPost, "/notifications/read-all", "buyer-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":0}`, rec.Body.String())

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/notifications/"+n.ID, "buyer-1", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/notifications/"+n.ID, "buyer-1", "").Code)
}

func TestHealthInMemory(t *testing.T) {
	s := newServer(t, acceptAll, 10)
	rec := s.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "healthy", out.Status)
	assert.Equal(t, "in-memory", out.Dependencies["database"])
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/leads", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req.RemoteAddr = "10.0.0.9"
	assert.Equal(t, "10.0.0.9", ClientIP(req))
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	s := newServer(t, acceptAll, 1)
	createLead(t, s)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(submission))
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i)+", 10.0.0.1")
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	}
}

func TestRateLimitUsesForwardedForBehindTrustedProxy(t *testing.T) {
	s := newServerWithProxy(t, acceptAll, 1, true)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader(submission))
		req.Header.Set("X-Forwarded-For", "198.51.100."+strconv.Itoa(i))
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
}
