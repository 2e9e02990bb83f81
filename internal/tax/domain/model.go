package domain

import "github.com/shopspring/decimal"

// TaxType identifies which GST components apply to a supply.
type TaxType string

const (
	// TaxTypeIGST applies to inter-state supplies.
	TaxTypeIGST TaxType = "igst"
	// TaxTypeCGSTSGST applies to intra-state supplies, split evenly between centre and state.
	TaxTypeCGSTSGST TaxType = "cgst_sgst"
)

// Breakdown is the GST split for a single taxable amount.
// Exactly one of IGST or (CGST, SGST) is non-zero depending on Type.
type Breakdown struct {
	Amount      decimal.Decimal `json:"amount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Type        TaxType         `json:"type"`
	CGST        decimal.Decimal `json:"cgst"`
	SGST        decimal.Decimal `json:"sgst"`
	IGST        decimal.Decimal `json:"igst"`
	TotalTax    decimal.Decimal `json:"total_tax"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type SplitResult struct {
	CGST  decimal.Decimal `json:"cgst"`
	SGST  decimal.Decimal `json:"sgst"`
	Total decimal.Decimal `json:"total"`
}

type IGSTResult struct {
	IGST  decimal.Decimal `json:"igst"`
	Total decimal.Decimal `json:"total"`
}

// ReverseResult backs a base amount out of a tax-inclusive figure.
type ReverseResult struct {
	BaseAmount decimal.Decimal `json:"base_amount"`
	TaxAmount  decimal.Decimal `json:"tax_amount"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
}

type RateSlab struct {
	Rate  decimal.Decimal `json:"rate"`
	Label string          `json:"label"`
}

// State is an Indian state or union territory keyed by its two-digit GST code.
type State struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
