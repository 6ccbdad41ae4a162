// Package model holds the catalog row types and request shapes.
package model

import "time"

// Airdrop statuses.
const (
	StatusActive   = "active"
	StatusUpcoming = "upcoming"
	StatusEnded    = "ended"
)

// Verification statuses.
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

// Airdrop is one listed airdrop campaign.
type Airdrop struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	RewardAmount string     `json:"reward_amount"`
	LogoURL      string     `json:"logo_url,omitempty"`
	WebsiteURL   string     `json:"website_url,omitempty"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AirdropTask is one task a user completes to qualify for an airdrop.
type AirdropTask struct {
	ID        string    `json:"id"`
	AirdropID string    `json:"airdrop_id"`
	Title     string    `json:"title"`
	TaskType  string    `json:"task_type"` // social | onchain | quiz | referral
	Points    int       `json:"points"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Verification is a user's claim of having completed an airdrop task.
type Verification struct {
	ID         string    `json:"id"`
	AirdropID  string    `json:"airdrop_id"`
	TaskID     string    `json:"task_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	ProofURL   string    `json:"proof_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// UserReward is the running point total per user.
type UserReward struct {
	UserID      string    `json:"user_id"`
	TotalPoints int       `json:"total_points"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuditRecord captures one admin mutation for the audit trail.
type AuditRecord struct {
	ID         string    `json:"id"`
	ActionType string    `json:"action_type"` // create | update | delete | approve | reject
	TargetType string    `json:"target_type"` // airdrop | task | verification
	TargetID   string    `json:"target_id"`
	OldData    []byte    `json:"old_data,omitempty"`
	NewData    []byte    `json:"new_data,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AirdropQuery filters the public listing.
type AirdropQuery struct {
	Status   string
	Category string
	Limit    int
	Offset   int
}

// UpsertAirdropRequest is the admin create/update body.
type UpsertAirdropRequest struct {
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	RewardAmount string     `json:"reward_amount"`
	LogoURL      string     `json:"logo_url"`
	WebsiteURL   string     `json:"website_url"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
}

// UpsertTaskRequest is the admin task create/update body.
type UpsertTaskRequest struct {
	Title    string `json:"title"`
	TaskType string `json:"task_type"`
	Points   int    `json:"points"`
	URL      string `json:"url"`
}
