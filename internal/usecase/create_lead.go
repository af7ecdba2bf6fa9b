package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-marketplace/internal/entity"
	"github.com/xavierca1/lead-marketplace/internal/infra/metrics"
)

const DefaultAnalysisTimeout = 30 * time.Second

type CreateLeadUseCase struct {
	Normalizer      *InquiryNormalizer
	Analyzer        AnalysisClient
	Repo            entity.LeadRepository
	Notifier        Notifier
	AnalysisTimeout time.Duration
	Logger          *zap.Logger
	Now             func() time.Time
}

func NewCreateLeadUseCase(
	analyzer AnalysisClient,
	repo entity.LeadRepository,
	notifier Notifier,
	analysisTimeout time.Duration,
	logger *zap.Logger,
) *CreateLeadUseCase {
	if analysisTimeout <= 0 {
		analysisTimeout = DefaultAnalysisTimeout
	}
	return &CreateLeadUseCase{
		Normalizer:      NewInquiryNormalizer(),
		Analyzer:        analyzer,
		Repo:            repo,
		Notifier:        notifier,
		AnalysisTimeout: analysisTimeout,
		Logger:          logger.Named("intake"),
		Now:             time.Now,
	}
}

// Execute runs intake end to end. Nothing is stored unless the analysis
// succeeded; the lead is written once, already processed or discarded.
func (uc *CreateLeadUseCase) Execute(ctx context.Context, raw RawSubmission) (*entity.Lead, error) {
	data, err := uc.Normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}

	analysis, err := uc.analyze(ctx, data)
	if err != nil {
		return nil, err
	}

	now := uc.Now().UTC()
	lead := entity.NewLead(data, now)
	decision := entity.EvaluateQuality(*analysis)
	if err := lead.ApplyAnalysis(*analysis, decision, now); err != nil {
		return nil, err
	}

	if err := uc.Repo.Create(ctx, lead); err != nil {
		return nil, newPersistenceError("failed to persist lead", err)
	}
	metrics.RecordLeadIngested(string(lead.State))

	uc.Logger.Info("lead ingested",
		zap.String("lead_id", lead.ID),
		zap.String("state", string(lead.State)),
		zap.String("specialty", lead.Specialty),
		zap.Int("quality_score", lead.QualityScore),
		zap.Strings("failed_clauses", decision.FailedClauses),
	)

	if lead.State == entity.LeadStateProcessed && uc.Notifier != nil {
		uc.Notifier.LeadAccepted(ctx, lead)
	}
	return lead, nil
}

func (uc *CreateLeadUseCase) analyze(ctx context.Context, data entity.LeadData) (*entity.LeadAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.AnalysisTimeout)
	defer cancel()

	start := time.Now()
	analysis, err := uc.Analyzer.Analyze(ctx, data)
	metrics.ObserveAnalysis(time.Since(start), err)
	if err != nil {
		uc.Logger.Warn("lead analysis failed", zap.Error(err))
		return nil, newAnalysisServiceError(err)
	}
	if analysis == nil {
		return nil, newAnalysisServiceError(errors.New("classifier returned no analysis"))
	}
	return analysis, nil
}
