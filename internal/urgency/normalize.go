package urgency

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/linnemanlabs/urgency/internal/taxonomy"
)

const (
	defaultUrgency     = taxonomy.Medium
	defaultConfidence  = 0.5
	defaultReasoning   = "No reasoning provided."
	maxParseDetailSize = 80
)

// Normalization is the outcome of one validation pass over model output,
// including which repairs were applied.
type Normalization struct {
	Result Result

	// UrgencyDefaulted is set when the stated urgency was missing or unknown.
	UrgencyDefaulted bool

	// SubcategoryRepaired is set when the stated subcategory was missing or
	// unknown and the first subcategory of the tier was substituted.
	SubcategoryRepaired bool

	// UrgencyOverridden is set when the subcategory's tier replaced the
	// stated urgency.
	UrgencyOverridden bool

	// StatedUrgency is the urgency after defaulting, before the override.
	StatedUrgency taxonomy.Urgency
}

// Normalize parses raw model output and repairs it against reg. It fails only
// when the text is not a JSON object; every field-level problem is repaired.
func Normalize(reg *taxonomy.Registry, raw string) (*Normalization, error) {
	text := stripCodeFence(raw)

	if !gjson.Valid(text) {
		return nil, &ParseError{Err: fmt.Errorf("invalid JSON: %q", truncate(text, maxParseDetailSize))}
	}
	doc := gjson.Parse(text)
	if !doc.IsObject() {
		return nil, &SchemaError{Reason: fmt.Sprintf("expected JSON object, got %s", doc.Type)}
	}

	fields := lastFields(doc)
	n := &Normalization{}

	u := defaultUrgency
	if v := fields["urgency"]; v.Type == gjson.String && reg.ValidUrgency(taxonomy.Urgency(v.Str)) {
		u = taxonomy.Urgency(v.Str)
	} else {
		n.UrgencyDefaulted = true
	}
	n.StatedUrgency = u

	sub := ""
	if v := fields["subcategory"]; v.Type == gjson.String && reg.ValidSubcategory(v.Str) {
		sub = v.Str
	} else {
		sub, _ = reg.FirstSubcategory(u)
		n.SubcategoryRepaired = true
	}

	// the subcategory is more specific than the stated tier and always wins
	if owner, ok := reg.TierOf(sub); ok && owner != u {
		u = owner
		n.UrgencyOverridden = true
	}

	n.Result = Result{
		Urgency:     u,
		Subcategory: sub,
		Confidence:  parseConfidence(fields["confidence"]),
		Reasoning:   parseReasoning(fields["reasoning"]),
		SLA:         reg.SLA(u),
	}
	return n, nil
}

// lastFields indexes the top-level members of obj. A repeated key keeps its
// last value.
func lastFields(obj gjson.Result) map[string]gjson.Result {
	m := make(map[string]gjson.Result)
	obj.ForEach(func(k, v gjson.Result) bool {
		m[k.Str] = v
		return true
	})
	return m
}

// stripCodeFence removes a ```json ... ``` wrapper the model may add despite
// being told not to.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}
	if strings.HasSuffix(text, "```") {
		text = text[:strings.LastIndex(text, "```")]
	}
	return strings.TrimSpace(text)
}

func parseConfidence(v gjson.Result) float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return defaultConfidence
		}
		f = parsed
	default:
		return defaultConfidence
	}
	if math.IsNaN(f) {
		return defaultConfidence
	}
	return clamp01(f)
}

func parseReasoning(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return defaultReasoning
	case gjson.String:
		return v.Str
	default:
		return v.Raw
	}
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}

// truncate shortens s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	i := limit - 3
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i] + "..."
}
