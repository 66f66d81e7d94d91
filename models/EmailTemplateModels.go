package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// EmailTemplate represents the email_templates table
type EmailTemplate struct {
	ID           int             `json:"id" example:"1"`
	Name         string          `json:"name" example:"Welcome Email"`
	Subject      string          `json:"subject" example:"Welcome to Doc.AI"`
	Body         string          `json:"body" example:"Hello {{user_name}}"`
	TemplateType string          `json:"template_type" example:"welcome"`
	IsDefault    bool            `json:"is_default" example:"false"`
	IsActive     bool            `json:"is_active" example:"true"`
	Variables    json.RawMessage `json:"variables"`
	CC           []string        `json:"cc,omitempty"`
	BCC          []string        `json:"bcc,omitempty"`
	CreatedBy    *int            `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt    time.Time       `json:"updated_at" example:"2024-01-15T10:30:00Z"`
	UpdatedBy    *int            `json:"updated_by"`
}

// EmailData represents the data structure for email sending with template variables
type EmailData struct {
	UserName     string `json:"user_name"`
	Email        string `json:"email"`
	PlanName     string `json:"plan_name"`
	ExpiryDate   string `json:"expiry_date"`
	DocumentName string `json:"document_name"`
	LoginURL     string `json:"login_url"`
	SupportEmail string `json:"support_email"`
}

// GetDefaultTemplate retrieves the default template for a given type
func GetDefaultTemplate(db *sql.DB, templateType string) (*EmailTemplate, error) {
	var template EmailTemplate
	query := `
		SELECT id, name, subject, body, template_type, is_default, is_active,
		       variables, cc, bcc, created_by, created_at, updated_at, updated_by
		FROM email_templates
		WHERE template_type = $1 AND is_default = TRUE AND is_active = TRUE
		LIMIT 1
	`
	err := db.QueryRow(query, templateType).Scan(
		&template.ID, &template.Name, &template.Subject, &template.Body,
		&template.TemplateType, &template.IsDefault, &template.IsActive,
		&template.Variables, pq.Array(&template.CC), pq.Array(&template.BCC),
		&template.CreatedBy, &template.CreatedAt, &template.UpdatedAt, &template.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// GetTemplateByID retrieves a template by its ID
func GetTemplateByID(db *sql.DB, id int) (*EmailTemplate, error) {
	var template EmailTemplate
	query := `
		SELECT id, name, subject, body, template_type, is_default, is_active,
		       variables, cc, bcc, created_by, created_at, updated_at, updated_by
		FROM email_templates
		WHERE id = $1
	`
	err := db.QueryRow(query, id).Scan(
		&template.ID, &template.Name, &template.Subject, &template.Body,
		&template.TemplateType, &template.IsDefault, &template.IsActive,
		&template.Variables, pq.Array(&template.CC), pq.Array(&template.BCC),
		&template.CreatedBy, &template.CreatedAt, &template.UpdatedAt, &template.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &template, nil
}
