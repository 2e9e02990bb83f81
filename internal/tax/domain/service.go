package domain

import "github.com/shopspring/decimal"

// Calculator is the GST arithmetic used by invoicing and the HTTP layer.
// All methods are pure and safe for concurrent use.
type Calculator interface {
	CalculateTax(amount, rate decimal.Decimal) decimal.Decimal
	CalculateCGSTSGST(amount, rate decimal.Decimal) SplitResult
	CalculateIGST(amount, rate decimal.Decimal) IGSTResult
	IsInterState(sellerState, buyerState string) bool
	CalculateGSTBreakdown(amount, rate decimal.Decimal, sellerState, buyerState string) Breakdown
	ValidateGSTNumber(value string) bool
	StateCodeFromGST(value string) string
	ReverseCalculate(totalAmount, rate decimal.Decimal) ReverseResult

	CheckTaxRate(rate decimal.Decimal) error
	CheckGSTNumber(value string) error
	CheckState(code string) error

	RateSlabs() []RateSlab
	IsStandardRate(rate decimal.Decimal) bool
	States() []State
	StateName(code string) (string, bool)
}

// BreakdownRequest is the body accepted by the breakdown endpoint.
type BreakdownRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	TaxRate     decimal.Decimal `json:"tax_rate" binding:"gst_rate"`
	SellerState string          `json:"seller_state"`
	BuyerState  string          `json:"buyer_state"`
}

type ReverseRequest struct {
	TotalAmount decimal.Decimal `json:"total_amount"`
	TaxRate     decimal.Decimal `json:"tax_rate" binding:"gst_rate"`
}

type GSTNumberResponse struct {
	GSTNumber string `json:"gst_number"`
	Valid     bool   `json:"valid"`
	StateCode string `json:"state_code,omitempty"`
	StateName string `json:"state_name,omitempty"`
}
