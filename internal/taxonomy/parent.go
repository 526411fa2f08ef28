package taxonomy

// Category is the coarse grouping used for display. It plays no part in
// classification.
type Category string

const (
	CategoryFraud        Category = "Fraud"
	CategoryPaymentIssue Category = "Payment Issue"
	CategoryGeneral      Category = "General"
)

var parentCategories = map[string]Category{
	"Security_Breach":              CategoryFraud,
	"Fraud_Report":                 CategoryFraud,
	"Transaction_Failure_Critical": CategoryPaymentIssue,
	"Account_Lockout":              CategoryPaymentIssue,
	"Billing_Error":                CategoryPaymentIssue,
	"Dispute_Initiation":           CategoryPaymentIssue,
	"Feature_Malfunction":          CategoryGeneral,
	"KYC_Compliance":               CategoryGeneral,
	"General_Inquiry":              CategoryGeneral,
	"Statement_Request":            CategoryGeneral,
	"Feedback_Feature_Request":     CategoryGeneral,
	"Status_Check":                 CategoryGeneral,
}

// ParentCategory maps a subcategory to its display group. Unknown input maps
// to CategoryGeneral.
func ParentCategory(subcategory string) Category {
	if c, ok := parentCategories[subcategory]; ok {
		return c
	}
	return CategoryGeneral
}
