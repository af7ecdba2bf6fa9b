package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var longSummary = strings.Repeat("Tenant disputes a withheld rental deposit. ", 2)

func TestEvaluateQuality(t *testing.T) {
	t.Run("accepts when every clause holds", func(t *testing.T) {
		d := EvaluateQuality(LeadAnalysis{QualityScore: 30, Specialty: "tenancy_law", Summary: longSummary})
		assert.True(t, d.Accepted)
		assert.Empty(t, d.FailedClauses)
	})

	t.Run("rejects generic specialty", func(t *testing.T) {
		for _, s := range []string{"general", "General", " GENERAL ", ""} {
			d := EvaluateQuality(LeadAnalysis{QualityScore: 90, Specialty: s, Summary: longSummary})
			assert.False(t, d.Accepted, s)
			assert.Equal(t, []string{ClauseSpecialty}, d.FailedClauses)
		}
	})

	t.Run("rejects short summary", func(t *testing.T) {
		d := EvaluateQuality(LeadAnalysis{QualityScore: 90, Specialty: "tenancy_law", Summary: strings.Repeat("x", 49)})
		assert.False(t, d.Accepted)
		assert.Equal(t, []string{ClauseSummary}, d.FailedClauses)
	})

	t.Run("records every failed clause", func(t *testing.T) {
		d := EvaluateQuality(LeadAnalysis{QualityScore: 10, Specialty: "general", Summary: "short"})
		assert.False(t, d.Accepted)
		assert.Equal(t, []string{ClauseQualityScore, ClauseSpecialty, ClauseSummary}, d.FailedClauses)
	})
}

func TestEvaluateQualityMonotonicInScore(t *testing.T) {
	accepted := false
	for score := MinQualityScore; score <= MaxQualityScore; score++ {
		d := EvaluateQuality(LeadAnalysis{QualityScore: score, Specialty: "family_law", Summary: longSummary})
		if accepted {
			assert.True(t, d.Accepted, "score %d flipped back to rejected", score)
		}
		if d.Accepted && !accepted {
			assert.Equal(t, MinAcceptedQualityScore, score)
			accepted = true
		}
	}
	assert.True(t, accepted)
}
