package urgency

import (
	"fmt"

	"github.com/linnemanlabs/urgency/internal/taxonomy"
)

// Cause identifies why the fallback result was returned.
type Cause string

const (
	CauseEmptyInput Cause = "empty input"
	CauseParseError Cause = "JSON parse error"
	CauseAPIError   Cause = "API error"
)

const (
	FallbackUrgency     = taxonomy.Medium
	FallbackSubcategory = "Feature_Malfunction"
	FallbackSLA         = taxonomy.SLA24Hours
)

// Fallback returns the degraded result. Only Reasoning varies with the cause;
// every structured field is constant.
func Fallback(cause Cause, detail string) Result {
	reason := string(cause)
	if detail != "" {
		reason += ": " + detail
	}
	return Result{
		Urgency:     FallbackUrgency,
		Subcategory: FallbackSubcategory,
		Confidence:  0,
		Reasoning:   fmt.Sprintf("Classification unavailable (%s), defaulted to %s urgency.", reason, FallbackUrgency),
		SLA:         FallbackSLA,
	}
}
