package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// Provision creates an organization owned by userID using tx, so the
	// caller can create the user in the same transaction.
	Provision(ctx context.Context, tx *gorm.DB, userID snowflake.ID, name string) (*Organization, error)
	// OrganizationForUser returns the organization a user signs in to.
	OrganizationForUser(ctx context.Context, userID snowflake.ID) (*Organization, error)

	Get(ctx context.Context) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
}

// UpdateRequest replaces the business profile.
type UpdateRequest struct {
	BusinessName string `json:"business_name"`
	GSTNumber    string `json:"gst_number" binding:"omitempty,gstin"`
	PANNumber    string `json:"pan_number"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Phone        string `json:"phone"`
}

type Response struct {
	OrganizationID   string     `json:"organization_id"`
	OrganizationName string     `json:"organization_name"`
	Slug             string     `json:"slug"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	BusinessName     string     `json:"business_name"`
	GSTNumber        string     `json:"gst_number"`
	PANNumber        string     `json:"pan_number"`
	Address          string     `json:"address"`
	City             string     `json:"city"`
	State            string     `json:"state"`
	StateName        string     `json:"state_name,omitempty"`
	Pincode          string     `json:"pincode"`
	Phone            string     `json:"phone"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}
