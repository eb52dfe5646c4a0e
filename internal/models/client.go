package models

import (
	"time"

	"github.com/google/uuid"
)

// ClientStatus represents the lifecycle state of a client record
type ClientStatus string

const (
	// ClientStatusPendingVerification is the state after registration, before the email is verified
	ClientStatusPendingVerification ClientStatus = "pending_verification"
	// ClientStatusPendingApproval is the state after email verification, awaiting admin review
	ClientStatusPendingApproval ClientStatus = "pending_approval"
	// ClientStatusActive is an approved client
	ClientStatusActive ClientStatus = "active"
	// ClientStatusRejected is a client rejected by an admin
	ClientStatusRejected ClientStatus = "rejected"
	// ClientStatusSuspended is a client soft-deleted by an admin
	ClientStatusSuspended ClientStatus = "suspended"
)

// Client represents a client record in the system.
// Records are never hard-deleted; removal is a transition to suspended.
type Client struct {
	ID                  uuid.UUID    `json:"id"`
	Email               string       `json:"email"`
	FullName            *string      `json:"full_name,omitempty"`
	CompanyName         *string      `json:"company_name,omitempty"`
	Status              ClientStatus `json:"status"`
	GoogleID            *string      `json:"google_id,omitempty"`
	LinkedInID          *string      `json:"linkedin_id,omitempty"`
	AvatarURL           *string      `json:"avatar_url,omitempty"`
	EmailVerified       bool         `json:"email_verified"`
	FailedLoginAttempts int          `json:"failed_login_attempts"`
	LastLoginAt         *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// ClientStats summarizes client counts per lifecycle state
type ClientStats struct {
	Total           int `json:"total"`
	PendingApproval int `json:"pending_approval"`
	Active          int `json:"active"`
	Rejected        int `json:"rejected"`
	Suspended       int `json:"suspended"`
}
