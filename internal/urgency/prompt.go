package urgency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/linnemanlabs/urgency/internal/taxonomy"
)

const ruleLine = "=================================================="

var tierMarker = map[taxonomy.Urgency]string{
	taxonomy.High:   "RED",
	taxonomy.Medium: "YELLOW",
	taxonomy.Low:    "GREEN",
}

// BuildSystemPrompt renders the taxonomy into the fixed instruction text sent
// with every request. It depends only on reg.
func BuildSystemPrompt(reg *taxonomy.Registry) string {
	var b strings.Builder

	b.WriteString("You are an expert financial support urgency classifier used inside a " +
		"high-frequency triage pipeline. Given a customer email you MUST return " +
		"ONLY a valid JSON object. No markdown, no backticks, no explanation " +
		"outside the JSON.\n\n")
	b.WriteString("CLASSIFICATION TAXONOMY\n")
	b.WriteString(ruleLine + "\n")

	tiers := reg.Tiers()
	urgencies := make([]string, 0, len(tiers))
	slas := make([]string, 0, len(tiers))

	for _, t := range tiers {
		marker := tierMarker[t.Urgency]
		if marker == "" {
			marker = strings.ToUpper(string(t.Urgency))
		}
		fmt.Fprintf(&b, "\n[%s] %s URGENCY (SLA: %s)\n", marker, strings.ToUpper(string(t.Urgency)), t.SLA)
		fmt.Fprintf(&b, "Definition: %s\n", t.Description)
		b.WriteString("Sub-categories:\n")
		for _, s := range t.Subcategories {
			fmt.Fprintf(&b, "  - %s: %s\n", s.Name, s.Rules)
		}
		urgencies = append(urgencies, string(t.Urgency))
		slas = append(slas, string(t.SLA))
	}

	b.WriteString("\n" + ruleLine + "\n")
	b.WriteString("\nCLASSIFICATION RULES:\n" +
		"1. First determine the urgency level (" + strings.Join(urgencies, " / ") + ") based on " +
		"financial impact and time-sensitivity.\n" +
		"2. Then pick the BEST matching sub-category from that urgency tier.\n" +
		"3. If the email spans multiple sub-categories, pick the one with the " +
		"HIGHEST urgency.\n" +
		"4. Assign a confidence score (0.0-1.0) reflecting how clearly the " +
		"email maps to that sub-category.\n" +
		"5. Write a concise 1-sentence reasoning.\n" +
		"6. Determine the SLA deadline based on urgency tier.\n\n")

	subs := reg.Subcategories()
	sort.Strings(subs)

	b.WriteString("REQUIRED OUTPUT FORMAT (pure JSON, nothing else):\n")
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  \"urgency\": \"<%s>\",\n", strings.Join(urgencies, "|"))
	fmt.Fprintf(&b, "  \"subcategory\": \"<one of: %s>\",\n", strings.Join(subs, ", "))
	b.WriteString("  \"confidence\": <float 0.0-1.0>,\n")
	b.WriteString("  \"reasoning\": \"<one concise sentence>\",\n")
	fmt.Fprintf(&b, "  \"sla\": \"<%s>\"\n", strings.Join(slas, "|"))
	b.WriteString("}")

	return b.String()
}

// buildUserMessage wraps the email body for the single user turn.
func buildUserMessage(email string) string {
	return "Classify this customer email:\n\n" + email
}
