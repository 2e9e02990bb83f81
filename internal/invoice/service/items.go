package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstinvoice/internal/invoice/domain"
	"gorm.io/gorm"
)

var maxTaxRate = decimal.NewFromInt(100)

// Scales of the quantity and money columns. Line amounts are computed from
// the same values RecalculateTotals later reads back.
const (
	moneyScale    = 2
	quantityScale = 3
)

func fitsScale(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Round(places))
}

// AddItem appends a line to an invoice. Totals are not refreshed; callers
// run RecalculateTotals once they are done mutating items.
func (s *Service) AddItem(ctx context.Context, invoiceID string, input domain.ItemInput) (*domain.ItemResponse, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID(invoiceID)
	if err != nil {
		return nil, err
	}

	item, err := s.newItem(orgID, id, input)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.repo.FindByID(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}

		position, err := s.repo.MaxItemPosition(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		item.Position = position + 1
		return s.repo.InsertItem(ctx, tx, item)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceItemAdded(ctx, item.TaxRate.String())
	resp := toItemResponse(item)
	return &resp, nil
}

// RecalculateTotals rebuilds subtotal, tax_amount and total_amount from the
// persisted items.
func (s *Service) RecalculateTotals(ctx context.Context, invoiceID string) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}
	id, err := parseID(invoiceID)
	if err != nil {
		return err
	}

	inv, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return err
	}
	if inv == nil {
		return domain.ErrNotFound
	}

	_, err = s.recalculate(ctx, s.db, orgID, id)
	return err
}

func (s *Service) recalculate(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) (domain.Totals, error) {
	items, err := s.repo.ListItems(ctx, db, orgID, invoiceID)
	if err != nil {
		return domain.Totals{}, err
	}

	totals := sumItems(items)
	affected, err := s.repo.UpdateTotals(ctx, db, orgID, invoiceID, totals, s.clock.Now())
	if err != nil {
		return domain.Totals{}, err
	}
	if affected == 0 {
		return domain.Totals{}, domain.ErrPersistence
	}
	return totals, nil
}

// sumItems adds up the pre-tax line amounts and the stored per-line tax.
func sumItems(items []domain.InvoiceItem) domain.Totals {
	subtotal := decimal.Zero
	taxAmount := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineAmount())
		taxAmount = taxAmount.Add(item.TaxAmount)
	}

	subtotal = subtotal.Round(2)
	taxAmount = taxAmount.Round(2)
	return domain.Totals{
		Subtotal:    subtotal,
		TaxAmount:   taxAmount,
		TotalAmount: subtotal.Add(taxAmount),
	}
}

func (s *Service) newItem(orgID, invoiceID snowflake.ID, input domain.ItemInput) (*domain.InvoiceItem, error) {
	settings := s.gstSettings()

	name := strings.TrimSpace(input.ProductName)
	if name == "" {
		return nil, domain.ErrInvalidItemName
	}
	if !input.Quantity.IsPositive() || !fitsScale(input.Quantity, quantityScale) {
		return nil, domain.ErrInvalidQuantity
	}
	if input.Rate.IsNegative() || !fitsScale(input.Rate, moneyScale) {
		return nil, domain.ErrInvalidRate
	}

	taxRate := decimal.NewFromFloat(settings.DefaultTaxRate)
	if input.TaxRate != nil {
		taxRate = *input.TaxRate
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(maxTaxRate) || !fitsScale(taxRate, moneyScale) {
		return nil, domain.ErrInvalidTaxRate
	}

	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = settings.DefaultUnit
	}

	var productID *snowflake.ID
	if raw := strings.TrimSpace(input.ProductID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidProductID
		}
		productID = &parsed
	}

	lineAmount := input.Quantity.Mul(input.Rate)
	lineTax := s.tax.CalculateTax(lineAmount, taxRate)

	return &domain.InvoiceItem{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		InvoiceID:   invoiceID,
		ProductID:   productID,
		ProductName: name,
		Description: strings.TrimSpace(input.Description),
		HSNSAC:      strings.TrimSpace(input.HSNSAC),
		Quantity:    input.Quantity,
		Unit:        unit,
		Rate:        input.Rate,
		TaxRate:     taxRate,
		TaxAmount:   lineTax,
		Amount:      lineAmount.Add(lineTax).Round(2),
		CreatedAt:   s.clock.Now(),
	}, nil
}
