package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gstinvoice/internal/product/domain"
	"github.com/smallbiznis/gstinvoice/pkg/db/option"
	"gorm.io/gorm"
)

const productColumns = `id, org_id, name, sku, hsn_sac, description, price, tax_rate, stock, unit, status,
	metadata, created_at, updated_at`

var sortableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"sku":        true,
	"price":      true,
	"stock":      true,
}

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (`+productColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.OrgID,
		p.Name,
		p.SKU,
		p.HSNSAC,
		p.Description,
		p.Price,
		p.TaxRate,
		p.Stock,
		p.Unit,
		p.Status,
		p.Metadata,
		p.CreatedAt,
		p.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListFilter) ([]domain.Product, error) {
	var items []domain.Product
	stmt := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("org_id = ?", orgID)

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		stmt = stmt.Where("(LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(hsn_sac) LIKE ?)", like, like, like)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, sortableColumns)).Apply(stmt)
	stmt = option.ApplyPagination(option.Page{Limit: filter.Limit, Offset: filter.Offset}).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, p *domain.Product) (int64, error) {
	if p == nil {
		return 0, gorm.ErrInvalidData
	}
	res := db.WithContext(ctx).Exec(
		`UPDATE products
		 SET name = ?, sku = ?, hsn_sac = ?, description = ?, price = ?, tax_rate = ?, stock = ?,
		     unit = ?, status = ?, metadata = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		p.Name,
		p.SKU,
		p.HSNSAC,
		p.Description,
		p.Price,
		p.TaxRate,
		p.Stock,
		p.Unit,
		p.Status,
		p.Metadata,
		p.UpdatedAt,
		p.OrgID,
		p.ID,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM products WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) AdjustStock(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID, delta int64, updatedAt time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock + ?, updated_at = ?
		 WHERE org_id = ? AND id = ? AND stock + ? >= 0`,
		delta,
		updatedAt,
		orgID,
		id,
		delta,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) CountSKU(ctx context.Context, db *gorm.DB, orgID snowflake.ID, sku string, excludeID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM products WHERE org_id = ? AND sku = ? AND id <> ?`,
		orgID,
		sku,
		excludeID,
	).Scan(&count).Error
	return count, err
}

func (r *repo) LowStock(ctx context.Context, db *gorm.DB, orgID snowflake.ID, threshold int64) ([]domain.Product, error) {
	var items []domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products
		 WHERE org_id = ? AND stock <= ? AND status = ?
		 ORDER BY stock ASC, name ASC`,
		orgID,
		threshold,
		domain.StatusActive,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
