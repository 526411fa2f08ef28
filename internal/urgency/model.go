package urgency

import "github.com/linnemanlabs/urgency/internal/taxonomy"

// Result is a fully validated classification. Urgency always equals the tier
// of Subcategory and SLA always equals the SLA of Urgency.
type Result struct {
	Urgency     taxonomy.Urgency `json:"urgency"`
	Subcategory string           `json:"subcategory"`
	Confidence  float64          `json:"confidence"`
	Reasoning   string           `json:"reasoning"`
	SLA         taxonomy.SLA     `json:"sla"`
}

// Outcome describes how a Classify call produced its result.
type Outcome string

const (
	// OutcomeClassified means the model answered and the answer validated
	OutcomeClassified Outcome = "classified"

	// OutcomeCached means the result came from the cache
	OutcomeCached Outcome = "cached"

	// OutcomeShared means the result was computed by a concurrent call for
	// the same email
	OutcomeShared Outcome = "shared"

	// OutcomeFallback means the degraded result was returned
	OutcomeFallback Outcome = "fallback"
)
