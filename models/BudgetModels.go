package models

import (
	"time"

	"github.com/lib/pq"
)

// Quote represents a single vendor offer inside a budget group.
type Quote struct {
	ID               int            `json:"id" example:"1"`
	GroupID          string         `json:"group_id" example:"notebook-dell-inspiron-group"`
	Provider         string         `json:"provider" example:"Amazon Brasil"`
	TotalAmount      float64        `json:"total_amount" example:"4499.90"`
	WarrantyMonths   int            `json:"warranty_months" example:"12"`
	DeliveryTime     int            `json:"delivery_time" example:"3"`
	ReclameAquiScore float64        `json:"reclame_aqui_score" example:"8.2"`
	ProductRating    float64        `json:"product_rating" example:"4.5"`
	RiskFactors      pq.StringArray `json:"risk_factors" swaggertype:"array,string"`
	DocumentID       int            `json:"document_id,omitempty" example:"10"`
	CreatedAt        time.Time      `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt        time.Time      `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

// BudgetGroup is a set of competing quotes for the same logical item.
// Relative scoring is only defined over a group with at least two quotes.
type BudgetGroup struct {
	GroupID   string    `json:"group_id" example:"notebook-dell-inspiron-group"`
	Title     string    `json:"title" example:"Notebook Dell Inspiron 15"`
	Category  string    `json:"category" example:"electronics"`
	Status    string    `json:"status" example:"open"`
	UserID    int       `json:"user_id" example:"1"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
	Quotes    []Quote   `json:"quotes,omitempty"`
}

// QuoteScores holds the five normalized criterion scores plus the weighted
// total, each a percentage in [0,100].
type QuoteScores struct {
	Price         float64 `json:"price" example:"100"`
	Warranty      float64 `json:"warranty" example:"100"`
	Delivery      float64 `json:"delivery" example:"100"`
	Reputation    float64 `json:"reputation" example:"82"`
	ProductRating float64 `json:"product_rating" example:"90"`
	Total         float64 `json:"total" example:"95.9"`
}

// ScoredQuote is a Quote augmented with its computed scores. It is derived
// on demand and never persisted.
type ScoredQuote struct {
	Quote
	Scores QuoteScores `json:"scores"`
}

// ComparisonResult is the payload returned by the comparison endpoint:
// every quote of the group scored and ranked, best first.
type ComparisonResult struct {
	GroupID             string        `json:"group_id" example:"notebook-dell-inspiron-group"`
	Title               string        `json:"title" example:"Notebook Dell Inspiron 15"`
	RecommendedQuoteID  int           `json:"recommended_quote_id" example:"3"`
	RecommendedProvider string        `json:"recommended_provider" example:"Amazon Brasil"`
	Quotes              []ScoredQuote `json:"quotes"`
	GeneratedAt         time.Time     `json:"generated_at" example:"2024-01-15T10:30:00Z"`
}

type BudgetGroupRequest struct {
	Title    string `json:"title" binding:"required" example:"Notebook Dell Inspiron 15"`
	Category string `json:"category" example:"electronics"`
}

type QuoteRequest struct {
	Provider         string   `json:"provider" binding:"required" example:"Amazon Brasil"`
	TotalAmount      float64  `json:"total_amount" binding:"required" example:"4499.90"`
	WarrantyMonths   int      `json:"warranty_months" example:"12"`
	DeliveryTime     int      `json:"delivery_time" example:"3"`
	ReclameAquiScore float64  `json:"reclame_aqui_score" example:"8.2"`
	ProductRating    float64  `json:"product_rating" example:"4.5"`
	RiskFactors      []string `json:"risk_factors"`
	DocumentID       int      `json:"document_id" example:"10"`
}
