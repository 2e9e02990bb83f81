package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstinvoice/internal/invoice/domain"
	"github.com/smallbiznis/gstinvoice/internal/invoice/format"
	"github.com/smallbiznis/gstinvoice/internal/providers/pdf"
	taxdomain "github.com/smallbiznis/gstinvoice/internal/tax/domain"
)

const dateLayout = "02 Jan 2006"

func (s *Service) RenderPDF(ctx context.Context, invoiceID string) (*domain.Document, error) {
	data, inv, err := s.loadDocumentData(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.GenerateInvoice(ctx, data)
	if err != nil {
		return nil, err
	}
	return &domain.Document{
		Filename:    inv.InvoiceNumber + ".pdf",
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func (s *Service) RenderReceipt(ctx context.Context, invoiceID string) (*domain.Document, error) {
	data, inv, err := s.loadDocumentData(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.PaymentStatus != domain.PaymentStatusPaid {
		return nil, domain.ErrNotPaid
	}

	content, err := s.pdf.GenerateReceipt(ctx, pdf.ReceiptData{
		InvoiceData: data,
		DatePaid:    inv.UpdatedAt.Format(dateLayout),
	})
	if err != nil {
		return nil, err
	}
	return &domain.Document{
		Filename:    inv.InvoiceNumber + "-receipt.pdf",
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func (s *Service) loadDocumentData(ctx context.Context, invoiceID string) (pdf.InvoiceData, *domain.Invoice, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return pdf.InvoiceData{}, nil, err
	}
	id, err := parseID(invoiceID)
	if err != nil {
		return pdf.InvoiceData{}, nil, err
	}

	inv, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return pdf.InvoiceData{}, nil, err
	}
	if inv == nil {
		return pdf.InvoiceData{}, nil, domain.ErrNotFound
	}
	items, err := s.repo.ListItems(ctx, s.db, orgID, id)
	if err != nil {
		return pdf.InvoiceData{}, nil, err
	}
	seller, err := s.repo.FindSeller(ctx, s.db, orgID)
	if err != nil {
		return pdf.InvoiceData{}, nil, err
	}

	return s.documentData(inv, items, seller), inv, nil
}

func (s *Service) documentData(inv *domain.Invoice, items []domain.InvoiceItem, seller *domain.Seller) pdf.InvoiceData {
	summary := s.gstSummary(inv, items, seller)

	data := pdf.InvoiceData{
		SellerName:    "-",
		InvoiceNumber: inv.InvoiceNumber,
		InvoiceDate:   inv.InvoiceDate.Format(dateLayout),
		DueDate:       "-",
		PlaceOfSupply: s.stateLabel(inv.CustomerState),
		BillToName:    inv.CustomerName,
		BillToAddress: inv.CustomerAddress,
		BillToGSTIN:   orDash(inv.CustomerGST),
		BillToEmail:   inv.CustomerEmail,
		BillToPhone:   inv.CustomerPhone,
		Subtotal:      format.FormatAmount(inv.Subtotal),
		CGST:          format.FormatAmount(summary.CGST),
		SGST:          format.FormatAmount(summary.SGST),
		IGST:          format.FormatAmount(summary.IGST),
		InterState:    summary.Type == taxdomain.TaxTypeIGST,
		TaxTotal:      format.FormatAmount(inv.TaxAmount),
		Total:         "Rs. " + format.FormatAmount(inv.TotalAmount),
		Notes:         inv.Notes,
	}
	if inv.DueDate != nil {
		data.DueDate = inv.DueDate.Format(dateLayout)
	}
	if seller != nil {
		data.SellerName = seller.BusinessName
		data.SellerAddress = joinNonEmpty(", ", seller.Address, seller.City, seller.Pincode)
		data.SellerGSTIN = orDash(seller.GSTNumber)
		data.SellerPhone = seller.Phone
	}

	data.Items = make([]pdf.InvoiceItem, 0, len(items))
	for _, item := range items {
		description := item.ProductName
		if item.Description != "" {
			description += " - " + item.Description
		}
		data.Items = append(data.Items, pdf.InvoiceItem{
			Description: description,
			HSNSAC:      item.HSNSAC,
			Quantity:    item.Quantity.String(),
			Unit:        item.Unit,
			Rate:        format.FormatAmount(item.Rate),
			TaxRate:     item.TaxRate.String() + "%",
			TaxAmount:   format.FormatAmount(item.TaxAmount),
			Amount:      format.FormatAmount(item.Amount),
		})
	}
	return data
}

// gstSummary splits each line by the seller and buyer states. The sum is
// for display; stored totals stay authoritative.
func (s *Service) gstSummary(inv *domain.Invoice, items []domain.InvoiceItem, seller *domain.Seller) domain.GSTSummary {
	sellerState := ""
	if seller != nil {
		sellerState = strings.TrimSpace(seller.State)
		if sellerState == "" {
			sellerState = s.tax.StateCodeFromGST(seller.GSTNumber)
		}
	}
	buyerState := inv.CustomerState

	summary := domain.GSTSummary{
		Type:        s.tax.CalculateGSTBreakdown(decimal.Zero, decimal.Zero, sellerState, buyerState).Type,
		SellerState: sellerState,
		BuyerState:  buyerState,
		CGST:        decimal.Zero,
		SGST:        decimal.Zero,
		IGST:        decimal.Zero,
	}
	for _, item := range items {
		b := s.tax.CalculateGSTBreakdown(item.LineAmount(), item.TaxRate, sellerState, buyerState)
		summary.CGST = summary.CGST.Add(b.CGST)
		summary.SGST = summary.SGST.Add(b.SGST)
		summary.IGST = summary.IGST.Add(b.IGST)
	}
	return summary
}

func (s *Service) stateLabel(code string) string {
	if code == "" {
		return "-"
	}
	if name, ok := s.tax.StateName(code); ok {
		return code + " - " + name
	}
	return code
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
