package models

import "time"

// Document represents an uploaded user document (invoice, quote, medical
// report, contract). The stored file lives on disk under a uuid name; the
// extracted text is kept in content_text for AI analysis.
type Document struct {
	ID          int       `json:"id" example:"1"`
	UserID      int       `json:"user_id" example:"1"`
	Title       string    `json:"title" example:"Orcamento Notebook Dell"`
	DocType     string    `json:"doc_type" example:"budget"`
	FileName    string    `json:"file_name" example:"orcamento.pdf"`
	FilePath    string    `json:"file_path" example:"uploads/3f1b2c.pdf"`
	FileSize    int64     `json:"file_size" example:"204800"`
	ContentText string    `json:"content_text,omitempty"`
	Status      string    `json:"status" example:"analyzed"` // uploaded, analyzing, analyzed, failed
	AnalyzedAt  time.Time `json:"analyzed_at,omitempty" example:"2024-01-15T10:30:00Z"`
	CreatedAt   time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt   time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
	AnalysisID  int       `json:"analysis_id,omitempty" example:"5"`
	GroupID     string    `json:"group_id,omitempty" example:"notebook-dell-inspiron-group"`
}

// DocumentAnalysis is the stored result of one AI analysis pass.
type DocumentAnalysis struct {
	ID         int       `json:"id" example:"1"`
	DocumentID int       `json:"document_id" example:"1"`
	ProviderID int       `json:"provider_id" example:"1"`
	Model      string    `json:"model" example:"gpt-4o-mini"`
	Summary    string    `json:"summary" example:"Quote for a Dell Inspiron notebook at R$ 4499.90"`
	Insights   string    `json:"insights,omitempty"`
	CreatedAt  time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

type DocumentUploadResponse struct {
	DocumentID int    `json:"document_id" example:"1"`
	FilePath   string `json:"file_path" example:"uploads/3f1b2c.pdf"`
	Message    string `json:"message" example:"Document uploaded successfully"`
}
