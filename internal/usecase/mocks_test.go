package usecase_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

type MockAnalysisClient struct {
	mock.Mock
}

func (m *MockAnalysisClient) Analyze(ctx context.Context, data entity.LeadData) (*entity.LeadAnalysis, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.LeadAnalysis), args.Error(1)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]*entity.Lead, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.Lead), args.Int(1), args.Error(2)
}

func (m *MockLeadRepository) MarkSold(ctx context.Context, params entity.SaleParams) (*entity.Lead, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

// recordingNotifier captures events; the fan-out itself is tested in notify.
type recordingNotifier struct {
	mu        sync.Mutex
	accepted  []*entity.Lead
	purchased []*entity.Purchase
}

func (n *recordingNotifier) LeadAccepted(_ context.Context, lead *entity.Lead) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accepted = append(n.accepted, lead)
}

func (n *recordingNotifier) LeadPurchased(_ context.Context, _ *entity.Lead, p *entity.Purchase) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.purchased = append(n.purchased, p)
}

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.accepted), len(n.purchased)
}
