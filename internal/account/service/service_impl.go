package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/gstinvoice/internal/account/domain"
	"github.com/smallbiznis/gstinvoice/internal/clock"
	"github.com/smallbiznis/gstinvoice/internal/orgcontext"
	taxdomain "github.com/smallbiznis/gstinvoice/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var validate = validator.New()

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Tax   taxdomain.Calculator
	Clock clock.Clock
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	tax   taxdomain.Calculator
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		repo:  p.Repo,
		tax:   p.Tax,
		clock: p.Clock,
	}
}

func (s *service) Provision(ctx context.Context, tx *gorm.DB, userID snowflake.ID, name string) (*domain.Organization, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if tx == nil {
		tx = s.db
	}

	now := s.clock.Now()
	orgID := s.genID.Generate()
	org := domain.Organization{
		ID:        orgID,
		Name:      name,
		Slug:      slug.Make(name) + "-" + orgID.Base36(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	repo := s.repo.WithTx(tx)
	if err := repo.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}
	if err := repo.AddMember(ctx, domain.OrganizationMember{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		UserID:    userID,
		Role:      domain.RoleOwner,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	s.log.Info("organization provisioned",
		zap.String("org_id", orgID.String()),
		zap.String("user_id", userID.String()),
	)
	return &org, nil
}

func (s *service) OrganizationForUser(ctx context.Context, userID snowflake.ID) (*domain.Organization, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	member, err := s.repo.FindMembershipByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotFound
	}
	return s.findOrganization(ctx, member.OrgID)
}

func (s *service) Get(ctx context.Context) (*domain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.findOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	profile, err := s.repo.FindProfile(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, org, profile)
}

// Update replaces the business profile. The state defaults to the one
// encoded in the GSTIN.
func (s *service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.findOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	profile := domain.BusinessProfile{
		OrgID:        orgID,
		BusinessName: strings.TrimSpace(req.BusinessName),
		GSTNumber:    strings.ToUpper(strings.TrimSpace(req.GSTNumber)),
		PANNumber:    strings.ToUpper(strings.TrimSpace(req.PANNumber)),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		Pincode:      strings.TrimSpace(req.Pincode),
		Phone:        strings.TrimSpace(req.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.validateProfile(&profile); err != nil {
		return nil, err
	}

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}

	stored, err := s.repo.FindProfile(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, org, stored)
}

func (s *service) validateProfile(p *domain.BusinessProfile) error {
	if p.GSTNumber != "" {
		if err := s.tax.CheckGSTNumber(p.GSTNumber); err != nil {
			return err
		}
		if p.State == "" {
			p.State = s.tax.StateCodeFromGST(p.GSTNumber)
		}
	}
	if p.State != "" {
		if err := s.tax.CheckState(p.State); err != nil {
			return err
		}
	}
	if p.PANNumber != "" {
		if err := validate.Var(p.PANNumber, "len=10,alphanum"); err != nil {
			return domain.ErrInvalidPANNumber
		}
		// A GSTIN embeds the holder's PAN in characters 3 to 12.
		if p.GSTNumber != "" && p.GSTNumber[2:12] != p.PANNumber {
			return domain.ErrInvalidPANNumber
		}
	}
	if p.Pincode != "" {
		if err := validate.Var(p.Pincode, "numeric,len=6"); err != nil {
			return domain.ErrInvalidPincode
		}
	}
	return nil
}

func (s *service) findOrganization(ctx context.Context, orgID snowflake.ID) (*domain.Organization, error) {
	org, err := s.repo.FindOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

func (s *service) toResponse(ctx context.Context, org *domain.Organization, profile *domain.BusinessProfile) (*domain.Response, error) {
	resp := &domain.Response{
		OrganizationID:   org.ID.String(),
		OrganizationName: org.Name,
		Slug:             org.Slug,
	}

	if userID, ok := orgcontext.UserIDFromContext(ctx); ok && userID != 0 {
		owner, err := s.repo.FindOwner(ctx, userID)
		if err != nil {
			return nil, err
		}
		if owner != nil {
			resp.Name = owner.DisplayName
			resp.Email = owner.Email
		}
	}

	if profile == nil {
		return resp, nil
	}
	resp.BusinessName = profile.BusinessName
	resp.GSTNumber = profile.GSTNumber
	resp.PANNumber = profile.PANNumber
	resp.Address = profile.Address
	resp.City = profile.City
	resp.State = profile.State
	resp.Pincode = profile.Pincode
	resp.Phone = profile.Phone
	if name, ok := s.tax.StateName(profile.State); ok {
		resp.StateName = name
	}
	updatedAt := profile.UpdatedAt
	resp.UpdatedAt = &updatedAt
	return resp, nil
}
