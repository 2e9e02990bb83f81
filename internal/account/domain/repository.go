package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	AddMember(ctx context.Context, member OrganizationMember) error
	FindOrganization(ctx context.Context, id snowflake.ID) (*Organization, error)
	FindMembershipByUser(ctx context.Context, userID snowflake.ID) (*OrganizationMember, error)
	FindProfile(ctx context.Context, orgID snowflake.ID) (*BusinessProfile, error)
	UpsertProfile(ctx context.Context, profile BusinessProfile) error
	FindOwner(ctx context.Context, userID snowflake.ID) (*Owner, error)
}
