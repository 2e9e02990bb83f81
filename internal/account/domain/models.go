// Package domain contains persistence models for organizations and their
// business profiles.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const RoleOwner = "OWNER"

// Organization is a tenant. Products and invoices are scoped to it.
type Organization struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"column:name;size:255;not null"`
	Slug      string       `gorm:"column:slug;size:255;not null;uniqueIndex:ux_organizations_slug"`
	CreatedAt time.Time    `gorm:"column:created_at;not null"`
	UpdatedAt time.Time    `gorm:"column:updated_at;not null"`
}

func (Organization) TableName() string { return "organizations" }

// OrganizationMember links a user to the organization it signs in to.
type OrganizationMember struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"column:org_id;not null;index;uniqueIndex:ux_org_user,priority:1"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index;uniqueIndex:ux_org_user,priority:2"`
	Role      string       `gorm:"column:role;size:32;not null"`
	CreatedAt time.Time    `gorm:"column:created_at;not null"`
}

func (OrganizationMember) TableName() string { return "organization_members" }

// BusinessProfile is the seller identity printed on invoices.
type BusinessProfile struct {
	OrgID        snowflake.ID `gorm:"primaryKey;column:org_id"`
	BusinessName string       `gorm:"column:business_name;size:255;not null;default:''"`
	GSTNumber    string       `gorm:"column:gst_number;size:15;not null;default:''"`
	PANNumber    string       `gorm:"column:pan_number;size:10;not null;default:''"`
	Address      string       `gorm:"column:address;size:512;not null;default:''"`
	City         string       `gorm:"column:city;size:128;not null;default:''"`
	State        string       `gorm:"column:state;size:8;not null;default:''"`
	Pincode      string       `gorm:"column:pincode;size:16;not null;default:''"`
	Phone        string       `gorm:"column:phone;size:32;not null;default:''"`
	CreatedAt    time.Time    `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time    `gorm:"column:updated_at;not null"`
}

func (BusinessProfile) TableName() string { return "business_profiles" }

// Owner is the signed-in user as shown on the account page.
type Owner struct {
	DisplayName string `gorm:"column:display_name"`
	Email       string `gorm:"column:email"`
}
