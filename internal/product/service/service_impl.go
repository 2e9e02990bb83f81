package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstinvoice/internal/clock"
	"github.com/smallbiznis/gstinvoice/internal/config"
	"github.com/smallbiznis/gstinvoice/internal/observability/metrics"
	"github.com/smallbiznis/gstinvoice/internal/orgcontext"
	"github.com/smallbiznis/gstinvoice/internal/product/domain"
	pkgdb "github.com/smallbiznis/gstinvoice/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var maxTaxRate = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Clock    clock.Clock
	Settings *config.GSTSettingsHolder `optional:"true"`
	Metrics  *metrics.Metrics          `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	genID    *snowflake.Node
	clock    clock.Clock
	settings *config.GSTSettingsHolder
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("product.service"),
		repo:     p.Repo,
		genID:    p.GenID,
		clock:    p.Clock,
		settings: p.Settings,
		metrics:  p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	filter := domain.ListFilter{
		Search:  strings.TrimSpace(req.Search),
		SortBy:  strings.TrimSpace(req.SortBy),
		OrderBy: strings.TrimSpace(req.OrderBy),
		Limit:   req.Limit,
		Offset:  req.Offset,
	}
	if strings.TrimSpace(req.Status) != "" {
		status, ok := domain.ParseStatus(req.Status)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		filter.Status = status
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	settings := s.settings.Get()
	now := s.clock.Now()
	p := &domain.Product{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        strings.TrimSpace(req.Name),
		SKU:         strings.TrimSpace(req.SKU),
		HSNSAC:      strings.TrimSpace(req.HSNSAC),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		TaxRate:     decimal.NewFromFloat(settings.DefaultTaxRate),
		Stock:       req.Stock,
		Unit:        strings.TrimSpace(req.Unit),
		Status:      domain.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.TaxRate != nil {
		p.TaxRate = *req.TaxRate
	}
	if p.Unit == "" {
		p.Unit = settings.DefaultUnit
	}
	if strings.TrimSpace(req.Status) != "" {
		status, ok := domain.ParseStatus(req.Status)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		p.Status = status
	}
	if req.Metadata != nil {
		p.Metadata = datatypes.JSONMap(req.Metadata)
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureSKUAvailable(ctx, tx, orgID, p.SKU, 0); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, p)
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSKUExists
		}
		return nil, err
	}

	s.log.Info("product created",
		zap.String("org_id", orgID.String()),
		zap.String("product_id", p.ID.String()),
	)
	resp := toResponse(p)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	productID, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}

	var item *domain.Product
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err = s.repo.FindByID(ctx, tx, orgID, productID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		previousSKU := item.SKU
		if err := applyUpdate(item, req); err != nil {
			return err
		}
		if err := validateProduct(item); err != nil {
			return err
		}
		if item.SKU != previousSKU {
			if err := s.ensureSKUAvailable(ctx, tx, orgID, item.SKU, item.ID); err != nil {
				return err
			}
		}

		item.UpdatedAt = s.clock.Now()
		affected, err := s.repo.Update(ctx, tx, item)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrPersistence
		}
		return nil
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSKUExists
		}
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}
	productID, err := parseID(id)
	if err != nil {
		return err
	}

	affected, err := s.repo.Delete(ctx, s.db, orgID, productID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStock applies a signed delta in a single UPDATE so concurrent
// adjustments never overwrite each other. Stock never goes below zero.
func (s *Service) UpdateStock(ctx context.Context, id string, delta int64) (*domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, domain.ErrInvalidStock
	}

	var item *domain.Product
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, orgID, productID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}

		affected, err := s.repo.AdjustStock(ctx, tx, orgID, productID, delta, s.clock.Now())
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrInsufficientStock
		}

		item, err = s.repo.FindByID(ctx, tx, orgID, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	direction := "in"
	if delta < 0 {
		direction = "out"
	}
	s.metrics.RecordStockAdjustment(ctx, direction)
	s.log.Debug("stock adjusted",
		zap.String("product_id", productID.String()),
		zap.Int64("delta", delta),
		zap.Int64("stock", item.Stock),
	)

	resp := toResponse(item)
	return &resp, nil
}

// SKUExists reports whether another product of the organization already uses
// sku. excludeID may be empty.
func (s *Service) SKUExists(ctx context.Context, sku string, excludeID string) (bool, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return false, err
	}
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return false, domain.ErrInvalidSKU
	}

	var exclude snowflake.ID
	if strings.TrimSpace(excludeID) != "" {
		exclude, err = parseID(excludeID)
		if err != nil {
			return false, err
		}
	}

	count, err := s.repo.CountSKU(ctx, s.db, orgID, sku, exclude)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LowStock lists active products at or below threshold, lowest stock first.
// A nil threshold uses the configured default.
func (s *Service) LowStock(ctx context.Context, threshold *int64) ([]domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	limit := int64(s.settings.Get().LowStockThreshold)
	if threshold != nil {
		if *threshold < 0 {
			return nil, domain.ErrInvalidThreshold
		}
		limit = *threshold
	}

	items, err := s.repo.LowStock(ctx, s.db, orgID, limit)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) ensureSKUAvailable(ctx context.Context, db *gorm.DB, orgID snowflake.ID, sku string, excludeID snowflake.ID) error {
	count, err := s.repo.CountSKU(ctx, db, orgID, sku, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return domain.ErrSKUExists
	}
	return nil
}

func applyUpdate(p *domain.Product, req domain.UpdateRequest) error {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		p.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.HSNSAC != nil {
		p.HSNSAC = strings.TrimSpace(*req.HSNSAC)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.TaxRate != nil {
		p.TaxRate = *req.TaxRate
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Unit != nil {
		if unit := strings.TrimSpace(*req.Unit); unit != "" {
			p.Unit = unit
		}
	}
	if req.Status != nil {
		status, ok := domain.ParseStatus(*req.Status)
		if !ok {
			return domain.ErrInvalidStatus
		}
		p.Status = status
	}
	if req.Metadata != nil {
		p.Metadata = datatypes.JSONMap(req.Metadata)
	}
	return nil
}

func validateProduct(p *domain.Product) error {
	switch {
	case p.Name == "":
		return domain.ErrInvalidName
	case p.SKU == "":
		return domain.ErrInvalidSKU
	case p.Price.IsNegative() || !p.Price.Equal(p.Price.Round(2)):
		return domain.ErrInvalidPrice
	case p.TaxRate.IsNegative() || p.TaxRate.GreaterThan(maxTaxRate) || !p.TaxRate.Equal(p.TaxRate.Round(2)):
		return domain.ErrInvalidTaxRate
	case p.Stock < 0:
		return domain.ErrInvalidStock
	}
	return nil
}

func orgIDFromContext(ctx context.Context) (snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, domain.ErrInvalidOrganization
	}
	return orgID, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func toResponses(items []domain.Product) []domain.Response {
	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp
}

func toResponse(p *domain.Product) domain.Response {
	resp := domain.Response{
		ID:             p.ID.String(),
		OrganizationID: p.OrgID.String(),
		Name:           p.Name,
		SKU:            p.SKU,
		HSNSAC:         p.HSNSAC,
		Description:    p.Description,
		Price:          p.Price,
		TaxRate:        p.TaxRate,
		Stock:          p.Stock,
		Unit:           p.Unit,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if len(p.Metadata) > 0 {
		resp.Metadata = map[string]any(p.Metadata)
	}
	return resp
}
