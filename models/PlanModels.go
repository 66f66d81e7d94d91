package models

import (
	"time"

	"github.com/lib/pq"
)

// Plan represents a subscription plan offered to users.
type Plan struct {
	ID            int            `json:"id" example:"1"`
	Name          string         `json:"name" example:"Pro"`
	Description   string         `json:"description" example:"For power users"`
	PriceMonthly  float64        `json:"price_monthly" example:"29.90"`
	PriceYearly   float64        `json:"price_yearly" example:"299.00"`
	DocumentLimit int            `json:"document_limit" example:"200"`
	AILimit       int            `json:"ai_limit" example:"100"`
	Features      pq.StringArray `json:"features" swaggertype:"array,string"`
	IsActive      bool           `json:"is_active" example:"true"`
	CreatedAt     time.Time      `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt     time.Time      `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// Subscription ties a user to a plan for a billing period. Expired
// subscriptions are suspended by the daily maintenance job.
type Subscription struct {
	ID            int       `json:"id" example:"1"`
	UserID        int       `json:"user_id" example:"1"`
	PlanID        int       `json:"plan_id" example:"1"`
	PlanName      string    `json:"plan_name,omitempty" example:"Pro"`
	Status        string    `json:"status" example:"active"` // active, cancelled, expired
	BillingCycle  string    `json:"billing_cycle" example:"monthly"`
	StartDate     time.Time `json:"start_date" example:"2024-01-15T00:00:00Z"`
	EndDate       time.Time `json:"end_date" example:"2024-02-15T00:00:00Z"`
	CancelledAt   time.Time `json:"cancelled_at,omitempty"`
	DocumentsUsed int       `json:"documents_used" example:"12"`
	AIUsed        int       `json:"ai_used" example:"4"`
	CreatedAt     time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt     time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

type PlanRequest struct {
	Name          string   `json:"name" binding:"required" example:"Pro"`
	Description   string   `json:"description" example:"For power users"`
	PriceMonthly  float64  `json:"price_monthly" example:"29.90"`
	PriceYearly   float64  `json:"price_yearly" example:"299.00"`
	DocumentLimit int      `json:"document_limit" example:"200"`
	AILimit       int      `json:"ai_limit" example:"100"`
	Features      []string `json:"features"`
	IsActive      bool     `json:"is_active" example:"true"`
}

type SubscribeRequest struct {
	PlanID       int    `json:"plan_id" binding:"required" example:"1"`
	BillingCycle string `json:"billing_cycle" example:"monthly"`
}
