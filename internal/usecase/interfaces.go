package usecase

import (
	"context"

	"github.com/xavierca1/lead-marketplace/internal/entity"
)

// AnalysisClient classifies one inquiry. Implementations return an analysis
// whose fields are already inside their domains.
type AnalysisClient interface {
	Analyze(ctx context.Context, data entity.LeadData) (*entity.LeadAnalysis, error)
}

// Notifier fans events out to interested users. Both methods return
// immediately; delivery failures never reach the caller.
type Notifier interface {
	LeadAccepted(ctx context.Context, lead *entity.Lead)
	LeadPurchased(ctx context.Context, lead *entity.Lead, purchase *entity.Purchase)
}
