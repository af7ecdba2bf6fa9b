package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLead() *Lead {
	return NewLead(LeadData{
		Name:      "Jane Roe",
		Email:     "jane@example.com",
		Phone:     "+49 30 1234567",
		Message:   "My landlord keeps my deposit.",
		SourceURL: "https://example.com/tenancy",
		Tags:      []string{"utm:ads"},
	}, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
}

func acceptedAnalysis() LeadAnalysis {
	return LeadAnalysis{
		Summary:        longSummary,
		Specialty:      "tenancy_law",
		Region:         "Berlin",
		Urgency:        UrgencyUrgent,
		EstimatedValue: decimal.NewFromInt(1000),
		Keywords:       []string{"deposit"},
		QualityScore:   85,
		DetailLevel:    DetailLevelHigh,
	}
}

func TestLeadStateTransitions(t *testing.T) {
	allowed := map[[2]LeadState]bool{
		{LeadStatePending, LeadStateProcessed}: true,
		{LeadStatePending, LeadStateDiscarded}: true,
		{LeadStateProcessed, LeadStateSold}:    true,
	}
	states := []LeadState{LeadStatePending, LeadStateProcessed, LeadStateDiscarded, LeadStateSold}

	for _, from := range states {
		for _, to := range states {
			err := ValidateTransition(from, to)
			if allowed[[2]LeadState{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			var te *TransitionError
			require.ErrorAs(t, err, &te, "%s -> %s", from, to)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
			assert.Equal(t, from, te.From)
			assert.Equal(t, to, te.To)
		}
	}
}

func TestApplyAnalysisAccepted(t *testing.T) {
	lead := newTestLead()
	now := lead.CreatedAt.Add(time.Second)
	a := acceptedAnalysis()

	require.NoError(t, lead.ApplyAnalysis(a, EvaluateQuality(a), now))

	assert.Equal(t, LeadStateProcessed, lead.State)
	require.NotNil(t, lead.BasePrice)
	assert.Equal(t, "195", lead.BasePrice.String())
	require.NotNil(t, lead.Approval)
	assert.True(t, lead.Approval.Accepted)
	assert.Equal(t, now, *lead.ProcessedAt)
	assert.Equal(t, "tenancy_law", lead.Specialty)
}

func TestApplyAnalysisDiscardedHasNoPrice(t *testing.T) {
	lead := newTestLead()
	a := acceptedAnalysis()
	a.QualityScore = 12

	require.NoError(t, lead.ApplyAnalysis(a, EvaluateQuality(a), time.Now()))

	assert.Equal(t, LeadStateDiscarded, lead.State)
	assert.Nil(t, lead.BasePrice)
	assert.Equal(t, []string{ClauseQualityScore}, lead.Approval.FailedClauses)
}

func TestApplyAnalysisOnlyOnce(t *testing.T) {
	lead := newTestLead()
	a := acceptedAnalysis()
	require.NoError(t, lead.ApplyAnalysis(a, EvaluateQuality(a), time.Now()))

	err := lead.ApplyAnalysis(a, EvaluateQuality(a), time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkSold(t *testing.T) {
	lead := newTestLead()
	a := acceptedAnalysis()
	require.NoError(t, lead.ApplyAnalysis(a, EvaluateQuality(a), time.Now()))

	soldAt := time.Now()
	require.NoError(t, lead.MarkSold("buyer-1", *lead.BasePrice, soldAt))
	assert.Equal(t, LeadStateSold, lead.State)
	assert.True(t, lead.IsOwnedBy("buyer-1"))
	assert.False(t, lead.IsOwnedBy("buyer-2"))
	assert.False(t, lead.IsOwnedBy(""))

	assert.ErrorIs(t, lead.MarkSold("buyer-2", decimal.NewFromInt(1), soldAt), ErrAlreadySold)
	assert.Equal(t, "buyer-1", *lead.BuyerID)
}

func TestMarkSoldRequiresProcessed(t *testing.T) {
	lead := newTestLead()
	assert.ErrorIs(t, lead.MarkSold("buyer-1", decimal.NewFromInt(10), time.Now()), ErrInvalidTransition)
}

func TestCloneIsDeep(t *testing.T) {
	lead := newTestLead()
	a := acceptedAnalysis()
	require.NoError(t, lead.ApplyAnalysis(a, EvaluateQuality(a), time.Now()))

	c := lead.Clone()
	c.Keywords[0] = "changed"
	c.Tags[0] = "changed"
	*c.BasePrice = decimal.NewFromInt(1)

	assert.Equal(t, "deposit", lead.Keywords[0])
	assert.Equal(t, "utm:ads", lead.Tags[0])
	assert.Equal(t, "195", lead.BasePrice.String())
}

func TestLeadFilterNormalize(t *testing.T) {
	f := LeadFilter{PageSize: 500, SortKey: "name; DROP TABLE", SortOrder: "sideways"}
	f.Normalize()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageSize, f.PageSize)
	assert.Equal(t, "created_at", f.SortKey)
	assert.Equal(t, "desc", f.SortOrder)
}

func TestUserInterestedIn(t *testing.T) {
	assert.True(t, User{}.InterestedIn("family_law"))
	u := User{Specialties: []string{"Family_Law", "tenancy_law"}}
	assert.True(t, u.InterestedIn("family_law"))
	assert.False(t, u.InterestedIn("criminal_law"))
}
