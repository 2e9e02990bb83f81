package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstinvoice/internal/invoice/domain"
	"github.com/smallbiznis/gstinvoice/pkg/db/option"
	"gorm.io/gorm"
)

const invoiceColumns = `id, org_id, invoice_number, customer_name, customer_email, customer_phone,
	customer_gst, customer_address, customer_state, invoice_date, due_date, subtotal, tax_amount,
	total_amount, status, payment_status, notes, created_at, updated_at`

const itemColumns = `id, org_id, invoice_id, product_id, product_name, description, hsn_sac, quantity,
	unit, rate, tax_rate, tax_amount, amount, position, created_at`

var sortableColumns = map[string]bool{
	"created_at":     true,
	"invoice_date":   true,
	"invoice_number": true,
	"customer_name":  true,
	"total_amount":   true,
	"status":         true,
}

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (`+invoiceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.OrgID,
		inv.InvoiceNumber,
		inv.CustomerName,
		inv.CustomerEmail,
		inv.CustomerPhone,
		inv.CustomerGST,
		inv.CustomerAddress,
		inv.CustomerState,
		inv.InvoiceDate,
		inv.DueDate,
		inv.Subtotal,
		inv.TaxAmount,
		inv.TotalAmount,
		inv.Status,
		inv.PaymentStatus,
		inv.Notes,
		inv.CreatedAt,
		inv.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT `+invoiceColumns+` FROM invoices WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, nil
	}
	return &inv, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter) ([]domain.Invoice, error) {
	var items []domain.Invoice
	stmt := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("org_id = ?", orgID)

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		stmt = stmt.Where("payment_status = ?", filter.PaymentStatus)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		stmt = stmt.Where("(LOWER(customer_name) LIKE ? OR LOWER(invoice_number) LIKE ?)", like, like)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, sortableColumns)).Apply(stmt)
	stmt = option.ApplyPagination(option.Page{Limit: filter.Limit, Offset: filter.Offset}).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) CountByOrg(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM invoices WHERE org_id = ?`,
		orgID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) NumberExists(ctx context.Context, db *gorm.DB, orgID snowflake.ID, number string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM invoices WHERE org_id = ? AND invoice_number = ?`,
		orgID, number,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, inv *domain.Invoice) (int64, error) {
	if inv == nil {
		return 0, gorm.ErrInvalidData
	}
	res := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET customer_name = ?, customer_email = ?, customer_phone = ?, customer_gst = ?,
		     customer_address = ?, customer_state = ?, status = ?, payment_status = ?,
		     due_date = ?, notes = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		inv.CustomerName,
		inv.CustomerEmail,
		inv.CustomerPhone,
		inv.CustomerGST,
		inv.CustomerAddress,
		inv.CustomerState,
		inv.Status,
		inv.PaymentStatus,
		inv.DueDate,
		inv.Notes,
		inv.UpdatedAt,
		inv.OrgID,
		inv.ID,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) UpdateTotals(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, totals domain.Totals, updatedAt time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invoices SET subtotal = ?, tax_amount = ?, total_amount = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		totals.Subtotal,
		totals.TaxAmount,
		totals.TotalAmount,
		updatedAt,
		orgID,
		id,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) MarkAsPaid(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, updatedAt time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invoices SET payment_status = ?, status = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		domain.PaymentStatusPaid,
		domain.StatusCompleted,
		updatedAt,
		orgID,
		id,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM invoices WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *domain.InvoiceItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoice_items (`+itemColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.OrgID,
		item.InvoiceID,
		item.ProductID,
		item.ProductName,
		item.Description,
		item.HSNSAC,
		item.Quantity,
		item.Unit,
		item.Rate,
		item.TaxRate,
		item.TaxAmount,
		item.Amount,
		item.Position,
		item.CreatedAt,
	).Error
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) ([]domain.InvoiceItem, error) {
	var items []domain.InvoiceItem
	err := db.WithContext(ctx).Raw(
		`SELECT `+itemColumns+` FROM invoice_items
		 WHERE org_id = ? AND invoice_id = ?
		 ORDER BY position ASC, id ASC`,
		orgID,
		invoiceID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MaxItemPosition(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) (int, error) {
	var position int
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(position), 0) FROM invoice_items WHERE org_id = ? AND invoice_id = ?`,
		orgID,
		invoiceID,
	).Scan(&position).Error
	return position, err
}

func (r *repo) DeleteItems(ctx context.Context, db *gorm.DB, orgID, invoiceID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM invoice_items WHERE org_id = ? AND invoice_id = ?`,
		orgID,
		invoiceID,
	).Error
}

func (r *repo) FindSeller(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.Seller, error) {
	var seller domain.Seller
	res := db.WithContext(ctx).Raw(
		`SELECT business_name, gst_number, pan_number, address, city, state, pincode, phone
		 FROM business_profiles WHERE org_id = ?`,
		orgID,
	).Scan(&seller)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &seller, nil
}
