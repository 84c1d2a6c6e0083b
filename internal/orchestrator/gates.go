package orchestrator

// ReviewThreshold is the confidence below which a parsed problem needs human review.
const ReviewThreshold = 0.8

// Decision is the outcome of the confidence gate.
type Decision int

const (
	// Proceed routes the problem straight to solving.
	Proceed Decision = iota

	// RequireReview suspends the session for human verification.
	RequireReview
)

func (d Decision) String() string {
	if d == RequireReview {
		return "require_review"
	}
	return "proceed"
}

// ConfidenceGate decides whether a parsed problem is trusted enough to solve.
// The decision depends on confidence alone.
type ConfidenceGate struct{}

// Name returns the gate identifier.
func (ConfidenceGate) Name() string {
	return "confidence"
}

// Decide returns RequireReview unless confidence >= ReviewThreshold. NaN requires review.
func (ConfidenceGate) Decide(confidence float64) Decision {
	if !(confidence >= ReviewThreshold) {
		return RequireReview
	}
	return Proceed
}
