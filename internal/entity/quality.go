package entity

import "unicode/utf8"

const (
	MinAcceptedQualityScore = 30
	MinSummaryLength        = 50
)

// Names of the gate clauses recorded in the approval trace.
const (
	ClauseQualityScore = "quality_score"
	ClauseSpecialty    = "specialty"
	ClauseSummary      = "summary_length"
)

type QualityDecision struct {
	Accepted      bool
	FailedClauses []string
}

// EvaluateQuality accepts a lead only when all clauses hold.
func EvaluateQuality(a LeadAnalysis) QualityDecision {
	var failed []string
	if a.QualityScore < MinAcceptedQualityScore {
		failed = append(failed, ClauseQualityScore)
	}
	if IsGenericSpecialty(a.Specialty) {
		failed = append(failed, ClauseSpecialty)
	}
	if utf8.RuneCountInString(a.Summary) < MinSummaryLength {
		failed = append(failed, ClauseSummary)
	}
	return QualityDecision{Accepted: len(failed) == 0, FailedClauses: failed}
}
