package models

import (
	"time"
)

// GORM-compatible models with proper tags

// AnalysisJobGorm represents the analysis_jobs table with GORM tags
type AnalysisJobGorm struct {
	ID          uint       `gorm:"primaryKey;column:id" json:"id"`
	DocumentID  int        `gorm:"column:document_id;not null" json:"document_id"`
	UserID      int        `gorm:"column:user_id;not null" json:"user_id"`
	ProviderID  int        `gorm:"column:provider_id" json:"provider_id"`
	Status      string     `gorm:"column:status;not null;default:'pending'" json:"status"`
	Progress    int        `gorm:"column:progress;default:0" json:"progress"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
	StartedAt   *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Error       *string    `gorm:"column:error" json:"error,omitempty"`
	Result      *string    `gorm:"column:result" json:"result,omitempty"`
}

// TableName specifies the table name for AnalysisJobGorm
func (AnalysisJobGorm) TableName() string {
	return "analysis_jobs"
}
