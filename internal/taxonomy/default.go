package taxonomy

import "sync"

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the built-in financial-support taxonomy. The registry is
// built once per process and shared.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = MustNew(DefaultTiers())
	})
	return defaultReg
}

// DefaultTiers returns a fresh copy of the built-in tier data.
func DefaultTiers() []Tier {
	return []Tier{
		{
			Urgency:     High,
			SLA:         SLAImmediate,
			Description: "Financial loss occurring, security breached, or user completely unable to access funds.",
			Subcategories: []Subcategory{
				{
					Name: "Security_Breach",
					Rules: "Account hacked, unauthorized login from unknown location, " +
						"OTP received without request, password changed without consent.",
				},
				{
					Name: "Fraud_Report",
					Rules: "Unauthorized purchases, stolen card, unrecognized transactions, " +
						"identity theft, card cloning.",
				},
				{
					Name: "Transaction_Failure_Critical",
					Rules: "Large transfer ($1k+) failed but money deducted, salary payment " +
						"didn't go through, refund not received, refund not credited, " +
						"refund delayed beyond promised date, payment stuck in limbo, " +
						"payment failed but amount debited. NOTE: If the customer says " +
						"they have NOT received a refund that was promised, this is " +
						"Transaction_Failure_Critical (High), NOT Dispute_Initiation.",
				},
				{
					Name: "Account_Lockout",
					Rules: "Locked out of account with urgent financial need (rent, bills due), " +
						"frozen account with no explanation, can't access funds.",
				},
				{
					Name: "Billing_Error",
					Rules: "Charged for cancelled subscription, double-charged on recurring " +
						"payment, unauthorized recurring charge, incorrect fee applied, " +
						"subscription fee after cancellation. NOTE: If user explicitly says " +
						"they cancelled but were still charged, this is Billing_Error (High), " +
						"NOT Dispute_Initiation.",
				},
			},
		},
		{
			Urgency:     Medium,
			SLA:         SLA24Hours,
			Description: "User is inconvenienced or frustrated, but money is safe. Needs resolving but not a panic situation.",
			Subcategories: []Subcategory{
				{
					Name: "Dispute_Initiation",
					Rules: "Wants to dispute a charge, double charge on statement, " +
						"merchant overcharge, chargeback request. NOTE: If the customer " +
						"is complaining about a refund not received or money not returned, " +
						"that is Transaction_Failure_Critical (High), NOT Dispute_Initiation.",
				},
				{
					Name: "Feature_Malfunction",
					Rules: "App crashes, can't download statement, can't update address, " +
						"feature not working as expected, UI bug.",
				},
				{
					Name: "KYC_Compliance",
					Rules: "Document rejected, need to update passport/ID details, " +
						"verification pending, compliance hold on account.",
				},
			},
		},
		{
			Urgency:     Low,
			SLA:         SLA48Hours,
			Description: "General questions, feedback, or non-critical administrative tasks. No financial impact.",
			Subcategories: []Subcategory{
				{
					Name: "General_Inquiry",
					Rules: "Interest rates, product features, supported transfers, " +
						"eligibility questions, how-to questions.",
				},
				{
					Name: "Statement_Request",
					Rules: "Tax certificate, account statement, transaction history, " +
						"audit documents.",
				},
				{
					Name: "Feedback_Feature_Request",
					Rules: "Feature suggestion, UI feedback, compliment, general opinion, " +
						"dark mode request.",
				},
				{
					Name: "Status_Check",
					Rules: "Card delivery status, application status, transfer status, " +
						"refund processing update.",
				},
			},
		},
	}
}
