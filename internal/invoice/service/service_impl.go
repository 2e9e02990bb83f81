package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/gstinvoice/internal/clock"
	"github.com/smallbiznis/gstinvoice/internal/config"
	"github.com/smallbiznis/gstinvoice/internal/invoice/domain"
	"github.com/smallbiznis/gstinvoice/internal/observability/metrics"
	"github.com/smallbiznis/gstinvoice/internal/orgcontext"
	"github.com/smallbiznis/gstinvoice/internal/providers/pdf"
	"github.com/smallbiznis/gstinvoice/internal/ratelimit"
	taxdomain "github.com/smallbiznis/gstinvoice/internal/tax/domain"
	pkgdb "github.com/smallbiznis/gstinvoice/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxNumberAttempts = 3

var validate = validator.New()

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Tax      taxdomain.Calculator
	Clock    clock.Clock
	PDF      pdf.Provider
	Settings *config.GSTSettingsHolder `optional:"true"`
	Guard    *ratelimit.Guard          `optional:"true"`
	Metrics  *metrics.Metrics          `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository

	tax      taxdomain.Calculator
	clock    clock.Clock
	pdf      pdf.Provider
	settings *config.GSTSettingsHolder
	guard    *ratelimit.Guard
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,
		repo:  p.Repo,

		tax:      p.Tax,
		clock:    p.Clock,
		pdf:      p.PDF,
		settings: p.Settings,
		guard:    p.Guard,
		metrics:  p.Metrics,
	}
}

// Create inserts the invoice, its items and the reconciled totals in one
// transaction. A generated number that collides with a concurrent create is
// regenerated up to maxNumberAttempts times.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	inv, err := s.newInvoice(orgID, req)
	if err != nil {
		return nil, err
	}
	items := make([]*domain.InvoiceItem, 0, len(req.Items))
	for _, input := range req.Items {
		item, err := s.newItem(orgID, inv.ID, input)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	release, err := s.guard.LockInvoiceNumbering(ctx, orgID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	explicitNumber := inv.InvoiceNumber != ""
	for attempt := 1; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if !explicitNumber {
				number, err := s.nextNumber(ctx, tx, orgID)
				if err != nil {
					return err
				}
				inv.InvoiceNumber = number
			}
			if err := s.repo.Insert(ctx, tx, inv); err != nil {
				return err
			}
			for i, item := range items {
				item.Position = i + 1
				if err := s.repo.InsertItem(ctx, tx, item); err != nil {
					return err
				}
			}
			_, err := s.recalculate(ctx, tx, orgID, inv.ID)
			return err
		})
		if err == nil {
			break
		}
		if !pkgdb.IsDuplicateKeyErr(err) {
			return nil, err
		}
		if explicitNumber || attempt >= maxNumberAttempts {
			return nil, domain.ErrDuplicateInvoiceNumber
		}
		s.log.Warn("invoice number collision, retrying",
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Int("attempt", attempt),
		)
	}

	resp, err := s.get(ctx, orgID, inv.ID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		s.metrics.RecordInvoiceItemAdded(ctx, item.TaxRate.String())
	}
	s.metrics.RecordInvoiceCreated(ctx, string(resp.GST.Type))
	s.log.Info("invoice created",
		zap.String("org_id", orgID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.Int("items", len(items)),
	)

	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, orgID, invoiceID)
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
	if strings.TrimSpace(req.PaymentStatus) != "" {
		paymentStatus, ok := domain.ParsePaymentStatus(req.PaymentStatus)
		if !ok {
			return nil, domain.ErrInvalidPaymentStatus
		}
		filter.PaymentStatus = paymentStatus
	}

	items, err := s.repo.List(ctx, s.db, orgID, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	invoiceID, err := parseID(req.ID)
	if err != nil {
		return nil, err
	}

	inv, err := s.repo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.applyUpdate(inv, req); err != nil {
		return nil, err
	}

	inv.UpdatedAt = s.clock.Now()
	affected, err := s.repo.Update(ctx, s.db, inv)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrPersistence
	}

	return s.get(ctx, orgID, invoiceID)
}

// Delete removes the items before the invoice they belong to.
func (s *Service) Delete(ctx context.Context, id string) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.repo.FindByID(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.DeleteItems(ctx, tx, orgID, invoiceID); err != nil {
			return err
		}
		affected, err := s.repo.Delete(ctx, tx, orgID, invoiceID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrPersistence
		}
		return nil
	})
}

// MarkAsPaid sets payment_status=paid and status=completed in one write.
func (s *Service) MarkAsPaid(ctx context.Context, id string) error {
	orgID, err := orgIDFromContext(ctx)
	if err != nil {
		return err
	}
	invoiceID, err := parseID(id)
	if err != nil {
		return err
	}

	affected, err := s.repo.MarkAsPaid(ctx, s.db, orgID, invoiceID, s.clock.Now())
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}

	s.metrics.RecordInvoicePaid(ctx)
	return nil
}

func (s *Service) get(ctx context.Context, orgID, invoiceID snowflake.ID) (*domain.Response, error) {
	inv, err := s.repo.FindByID(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}

	items, err := s.repo.ListItems(ctx, s.db, orgID, invoiceID)
	if err != nil {
		return nil, err
	}
	seller, err := s.repo.FindSeller(ctx, s.db, orgID)
	if err != nil {
		return nil, err
	}

	resp := toResponse(inv)
	resp.Items = make([]domain.ItemResponse, 0, len(items))
	for i := range items {
		resp.Items = append(resp.Items, toItemResponse(&items[i]))
	}
	summary := s.gstSummary(inv, items, seller)
	resp.GST = &summary
	return &resp, nil
}

func (s *Service) newInvoice(orgID snowflake.ID, req domain.CreateRequest) (*domain.Invoice, error) {
	now := s.clock.Now()
	inv := &domain.Invoice{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		InvoiceNumber:   strings.TrimSpace(req.InvoiceNumber),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerAddress: strings.TrimSpace(req.CustomerAddress),
		InvoiceDate:     now,
		DueDate:         req.DueDate,
		Subtotal:        decimal.Zero,
		TaxAmount:       decimal.Zero,
		TotalAmount:     decimal.Zero,
		Status:          domain.StatusDraft,
		PaymentStatus:   domain.PaymentStatusPending,
		Notes:           strings.TrimSpace(req.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.InvoiceDate != nil && !req.InvoiceDate.IsZero() {
		inv.InvoiceDate = req.InvoiceDate.UTC()
	}

	if inv.CustomerName == "" {
		return nil, domain.ErrInvalidCustomerName
	}
	if err := s.validateEmail(inv.CustomerEmail); err != nil {
		return nil, err
	}

	gst, state, err := s.customerTaxIdentity(req.CustomerGST, req.CustomerState)
	if err != nil {
		return nil, err
	}
	inv.CustomerGST = gst
	inv.CustomerState = state

	if strings.TrimSpace(req.Status) != "" {
		status, ok := domain.ParseStatus(req.Status)
		if !ok {
			return nil, domain.ErrInvalidStatus
		}
		inv.Status = status
	}
	if strings.TrimSpace(req.PaymentStatus) != "" {
		paymentStatus, ok := domain.ParsePaymentStatus(req.PaymentStatus)
		if !ok {
			return nil, domain.ErrInvalidPaymentStatus
		}
		inv.PaymentStatus = paymentStatus
	}
	if inv.DueDate != nil {
		due := inv.DueDate.UTC()
		if due.Before(truncateDay(inv.InvoiceDate)) {
			return nil, domain.ErrInvalidDueDate
		}
		inv.DueDate = &due
	}

	return inv, nil
}

func (s *Service) applyUpdate(inv *domain.Invoice, req domain.UpdateRequest) error {
	if req.CustomerName != nil {
		name := strings.TrimSpace(*req.CustomerName)
		if name == "" {
			return domain.ErrInvalidCustomerName
		}
		inv.CustomerName = name
	}
	if req.CustomerEmail != nil {
		email := strings.TrimSpace(*req.CustomerEmail)
		if err := s.validateEmail(email); err != nil {
			return err
		}
		inv.CustomerEmail = email
	}
	if req.CustomerPhone != nil {
		inv.CustomerPhone = strings.TrimSpace(*req.CustomerPhone)
	}
	if req.CustomerAddress != nil {
		inv.CustomerAddress = strings.TrimSpace(*req.CustomerAddress)
	}
	if req.CustomerGST != nil || req.CustomerState != nil {
		gst, state := inv.CustomerGST, inv.CustomerState
		if req.CustomerGST != nil {
			gst = *req.CustomerGST
			if req.CustomerState == nil {
				state = ""
			}
		}
		if req.CustomerState != nil {
			state = *req.CustomerState
		}
		gst, state, err := s.customerTaxIdentity(gst, state)
		if err != nil {
			return err
		}
		inv.CustomerGST = gst
		inv.CustomerState = state
	}
	if req.Status != nil {
		status, ok := domain.ParseStatus(*req.Status)
		if !ok {
			return domain.ErrInvalidStatus
		}
		inv.Status = status
	}
	if req.PaymentStatus != nil {
		paymentStatus, ok := domain.ParsePaymentStatus(*req.PaymentStatus)
		if !ok {
			return domain.ErrInvalidPaymentStatus
		}
		inv.PaymentStatus = paymentStatus
	}
	if req.DueDate != nil {
		due := req.DueDate.UTC()
		if due.Before(truncateDay(inv.InvoiceDate)) {
			return domain.ErrInvalidDueDate
		}
		inv.DueDate = &due
	}
	if req.Notes != nil {
		inv.Notes = strings.TrimSpace(*req.Notes)
	}
	return nil
}

// customerTaxIdentity normalizes the GSTIN and derives the buyer state from
// it when no state was given.
func (s *Service) customerTaxIdentity(gst, state string) (string, string, error) {
	gst = strings.ToUpper(strings.TrimSpace(gst))
	state = strings.TrimSpace(state)

	if gst != "" && !s.tax.ValidateGSTNumber(gst) {
		return "", "", domain.ErrInvalidCustomerGST
	}
	if state == "" && gst != "" {
		state = s.tax.StateCodeFromGST(gst)
	}
	if state != "" {
		if _, ok := s.tax.StateName(state); !ok {
			return "", "", domain.ErrInvalidCustomerState
		}
	}
	return gst, state, nil
}

func (s *Service) validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if err := validate.Var(email, "email"); err != nil {
		return domain.ErrInvalidCustomerEmail
	}
	return nil
}

func (s *Service) gstSettings() config.GSTSettings {
	return s.settings.Get()
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

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func toResponse(inv *domain.Invoice) domain.Response {
	return domain.Response{
		ID:              inv.ID.String(),
		OrganizationID:  inv.OrgID.String(),
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerName:    inv.CustomerName,
		CustomerEmail:   inv.CustomerEmail,
		CustomerPhone:   inv.CustomerPhone,
		CustomerGST:     inv.CustomerGST,
		CustomerAddress: inv.CustomerAddress,
		CustomerState:   inv.CustomerState,
		InvoiceDate:     inv.InvoiceDate,
		DueDate:         inv.DueDate,
		Subtotal:        inv.Subtotal,
		TaxAmount:       inv.TaxAmount,
		TotalAmount:     inv.TotalAmount,
		Status:          inv.Status,
		PaymentStatus:   inv.PaymentStatus,
		Notes:           inv.Notes,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

func toItemResponse(item *domain.InvoiceItem) domain.ItemResponse {
	resp := domain.ItemResponse{
		ID:          item.ID.String(),
		InvoiceID:   item.InvoiceID.String(),
		ProductName: item.ProductName,
		Description: item.Description,
		HSNSAC:      item.HSNSAC,
		Quantity:    item.Quantity,
		Unit:        item.Unit,
		Rate:        item.Rate,
		TaxRate:     item.TaxRate,
		TaxAmount:   item.TaxAmount,
		Amount:      item.Amount,
		Position:    item.Position,
		CreatedAt:   item.CreatedAt,
	}
	if item.ProductID != nil && *item.ProductID != 0 {
		productID := item.ProductID.String()
		resp.ProductID = &productID
	}
	return resp
}
