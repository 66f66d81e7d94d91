package models

import "time"

// AIProvider is an admin-configured AI endpoint used by the analysis
// service. Exactly one provider is active at a time; the service falls
// back to environment variables when none is configured.
type AIProvider struct {
	ID        int       `json:"id" example:"1"`
	Name      string    `json:"name" example:"OpenAI"`
	BaseURL   string    `json:"base_url" example:"https://api.openai.com/v1"`
	APIKey    string    `json:"api_key,omitempty" example:""`
	Model     string    `json:"model" example:"gpt-4o-mini"`
	IsActive  bool      `json:"is_active" example:"true"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

type AIProviderRequest struct {
	Name    string `json:"name" binding:"required" example:"OpenAI"`
	BaseURL string `json:"base_url" binding:"required" example:"https://api.openai.com/v1"`
	APIKey  string `json:"api_key" example:"sk-..."`
	Model   string `json:"model" binding:"required" example:"gpt-4o-mini"`
}
