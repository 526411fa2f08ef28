package urgency

import (
	"strings"
	"testing"

	"github.com/linnemanlabs/urgency/internal/taxonomy"
)

func TestBuildSystemPrompt_Deterministic(t *testing.T) {
	t.Parallel()

	a := BuildSystemPrompt(taxonomy.Default())
	b := BuildSystemPrompt(taxonomy.Default())
	if a != b {
		t.Error("BuildSystemPrompt is not deterministic")
	}
}

func TestBuildSystemPrompt_ListsTaxonomy(t *testing.T) {
	t.Parallel()

	reg := taxonomy.Default()
	p := BuildSystemPrompt(reg)

	for _, tier := range reg.Tiers() {
		header := strings.ToUpper(string(tier.Urgency)) + " URGENCY (SLA: " + string(tier.SLA) + ")"
		if !strings.Contains(p, header) {
			t.Errorf("prompt missing tier header %q", header)
		}
		if !strings.Contains(p, tier.Description) {
			t.Errorf("prompt missing description for %q", tier.Urgency)
		}
		for _, s := range tier.Subcategories {
			line := "  - " + s.Name + ": " + s.Rules
			if !strings.Contains(p, line) {
				t.Errorf("prompt missing subcategory line for %q", s.Name)
			}
		}
	}
}

func TestBuildSystemPrompt_SubcategoriesUnderTheirTier(t *testing.T) {
	t.Parallel()

	p := BuildSystemPrompt(taxonomy.Default())

	high := strings.Index(p, "HIGH URGENCY")
	medium := strings.Index(p, "MEDIUM URGENCY")
	low := strings.Index(p, "LOW URGENCY")
	if high < 0 || medium < 0 || low < 0 || !(high < medium && medium < low) {
		t.Fatalf("tier order wrong: high=%d medium=%d low=%d", high, medium, low)
	}

	if i := strings.Index(p, "  - Security_Breach:"); i < high || i > medium {
		t.Errorf("Security_Breach listed outside the High section")
	}
	if i := strings.Index(p, "  - KYC_Compliance:"); i < medium || i > low {
		t.Errorf("KYC_Compliance listed outside the Medium section")
	}
	if i := strings.Index(p, "  - Status_Check:"); i < low {
		t.Errorf("Status_Check listed outside the Low section")
	}
}

func TestBuildSystemPrompt_OutputContract(t *testing.T) {
	t.Parallel()

	p := BuildSystemPrompt(taxonomy.Default())

	for _, want := range []string{
		`"urgency": "<High|Medium|Low>"`,
		`"confidence": <float 0.0-1.0>`,
		`"reasoning": "<one concise sentence>"`,
		`"sla": "<Immediate|24 hours|48 hours>"`,
		"pick the one with the HIGHEST urgency",
		"ONLY a valid JSON object",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if !strings.Contains(p, "Account_Lockout, Billing_Error, Dispute_Initiation") {
		t.Error("subcategory list in output contract is not sorted")
	}
	if !strings.HasSuffix(p, "}") {
		t.Error("prompt should end with the JSON contract")
	}
}

func TestBuildUserMessage(t *testing.T) {
	t.Parallel()

	got := buildUserMessage("hello")
	if got != "Classify this customer email:\n\nhello" {
		t.Errorf("buildUserMessage = %q", got)
	}
}
