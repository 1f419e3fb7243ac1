package verification

import "github.com/shopspring/decimal"

// Decision thresholds.
var (
	riskThreshold        = decimal.NewFromInt(30)
	autoApproveThreshold = decimal.NewFromInt(80)
)

// Penalty and bonus contributions.
var (
	penaltyParentageMismatch = decimal.NewFromInt(40)
	penaltyMissingDocuments  = decimal.NewFromInt(10)
	penaltyNoDeclaration     = decimal.NewFromInt(50)
	penaltyOtherApplications = decimal.NewFromInt(20)
	bonusParentageVerified   = decimal.NewFromInt(20)
	bonusDocumentsProvided   = decimal.NewFromInt(10)

	scoreFloor   = decimal.Zero
	scoreCeiling = decimal.NewFromInt(100)
)

// ScoringInput carries the facts the scoring formulas consume.
type ScoringInput struct {
	ParentNINSupplied      bool
	ParentageValid         bool
	HasSupportingDocuments bool
	DeclarationAccepted    bool
	HasOtherApplications   bool
}

// ComputeRiskScore accumulates independent penalty contributions and clamps
// the sum to [0,100].
func ComputeRiskScore(in ScoringInput) decimal.Decimal {
	risk := decimal.Zero

	if in.ParentNINSupplied && !in.ParentageValid {
		risk = risk.Add(penaltyParentageMismatch)
	}
	if !in.HasSupportingDocuments {
		risk = risk.Add(penaltyMissingDocuments)
	}
	if !in.DeclarationAccepted {
		risk = risk.Add(penaltyNoDeclaration)
	}
	if in.HasOtherApplications {
		risk = risk.Add(penaltyOtherApplications)
	}

	return clamp(risk)
}

// ComputeConfidenceScore starts at 100, subtracts the risk score, then adds
// back bonuses for verified parentage and supplied documents. The bonuses can
// push confidence above 100-risk; that asymmetry is load-bearing for the
// decision thresholds and is kept as-is.
func ComputeConfidenceScore(in ScoringInput, risk decimal.Decimal) decimal.Decimal {
	confidence := scoreCeiling.Sub(risk)

	if in.ParentNINSupplied && in.ParentageValid {
		confidence = confidence.Add(bonusParentageVerified)
	}
	if in.HasSupportingDocuments {
		confidence = confidence.Add(bonusDocumentsProvided)
	}

	return clamp(confidence)
}

// needsManualReview is the ExceptionReview predicate.
func needsManualReview(risk, confidence decimal.Decimal, issueCount int) bool {
	return risk.GreaterThan(riskThreshold) ||
		confidence.LessThan(autoApproveThreshold) ||
		issueCount > 0
}

func clamp(score decimal.Decimal) decimal.Decimal {
	if score.LessThan(scoreFloor) {
		return scoreFloor
	}
	if score.GreaterThan(scoreCeiling) {
		return scoreCeiling
	}
	return score
}
