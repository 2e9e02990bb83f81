// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const ProviderGoogle = "google"

// User is a person signed in through an identity provider.
type User struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	Email       string       `gorm:"column:email;size:320;not null;uniqueIndex"`
	Provider    string       `gorm:"column:provider;size:32;not null;uniqueIndex:ux_users_provider_external,priority:1"`
	ExternalID  string       `gorm:"column:external_id;size:255;not null;uniqueIndex:ux_users_provider_external,priority:2"`
	DisplayName string       `gorm:"column:display_name;size:255;not null;default:''"`
	AvatarURL   string       `gorm:"column:avatar_url;size:1024;not null;default:''"`
	LastLoginAt *time.Time   `gorm:"column:last_login_at"`
	CreatedAt   time.Time    `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session represents a persisted login session. Only the SHA-256 of the
// token is stored.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	OrgID            snowflake.ID `gorm:"column:org_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;size:64;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;size:512;not null;default:''"`
	IPAddress        string       `gorm:"column:ip_address;size:64;not null;default:''"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// Identity is the verified subject of a Google ID token.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}
