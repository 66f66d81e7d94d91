package models

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

type User struct {
	ID            int       `json:"id" example:"1"`
	Email         string    `json:"email" example:"user@example.com"`
	Password      string    `json:"password" example:""`
	FullName      string    `json:"full_name" example:"Maria Silva"`
	CreatedAt     time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt     time.Time `json:"updated_at" example:"2024-01-15T10:30:00Z"`
	FirstAccess   time.Time `json:"first_access,omitempty" example:"2024-01-15T10:30:00Z"`
	LastAccess    time.Time `json:"last_access,omitempty" example:"2024-01-15T10:30:00Z"`
	ProfilePic    string    `json:"profile_picture" example:""`
	IsAdmin       bool      `json:"is_admin" example:"false"`
	Phone         string    `json:"phone" example:"+55 11 98765-4321"`
	City          string    `json:"city" example:"Sao Paulo"`
	State         string    `json:"state" example:"SP"`
	Country       string    `json:"country" example:"Brazil"`
	RoleName      string    `json:"role_name" example:"user"`
	Suspended     bool      `json:"suspended" example:"false"`
	PlanID        int       `json:"plan_id" example:"1"`
	PlanName      string    `json:"plan_name,omitempty" example:"Pro"`
	DocumentCount int       `json:"document_count,omitempty" example:"12"`
}

type Session struct {
	UserID                int       `json:"user_id"`
	SessionID             string    `json:"session_id"`
	HostName              string    `json:"host_name"`
	IPAddress             string    `json:"ip_address"`
	Timestamp             time.Time `json:"timestp"`
	ExpiresAt             time.Time `json:"expires_at"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
}

func GetSessionBySessionID(db *sql.DB, sessionID string) (*Session, error) {
	query := `SELECT session_id, user_id, host_name, ip_address, timestp FROM session WHERE session_id = $1`

	var session Session
	err := db.QueryRow(query, sessionID).Scan(
		&session.SessionID,
		&session.UserID,
		&session.HostName,
		&session.IPAddress,
		&session.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:"secret"`
	IP       string `json:"ip" example:"192.168.1.10"`
}

type LoginResponse struct {
	Message      string `json:"message" example:"User successfully logged in"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
	User         User   `json:"user"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:"secret"`
	FullName string `json:"full_name" binding:"required" example:"Maria Silva"`
	Phone    string `json:"phone" example:"+55 11 98765-4321"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"Invalid input"`
	Details string `json:"details,omitempty" example:"field email is required"`
}

type MessageResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
}

type ActivityLog struct {
	ID                int       `json:"id" example:"1"`
	CreatedAt         time.Time `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UserName          string    `json:"user_name" example:"Maria Silva"`
	HostName          string    `json:"host_name" example:"workstation-01"`
	EventContext      string    `json:"event_context" example:"Document"`
	IPAddress         string    `json:"ip_address" example:"192.168.1.1"`
	Description       string    `json:"description" example:"Uploaded document"`
	EventName         string    `json:"event_name" example:"Create"`
	AffectedUserName  string    `json:"affected_user_name,omitempty" example:"Jane Doe"`
	AffectedUserEmail string    `json:"affected_user_email,omitempty" example:"jane@example.com"`
	UserID            int       `json:"user_id" example:"1"`
}

// DashboardSummary aggregates the counters shown on the user dashboard.
type DashboardSummary struct {
	TotalDocuments     int           `json:"total_documents" example:"42"`
	AnalyzedDocuments  int           `json:"analyzed_documents" example:"30"`
	PendingAnalyses    int           `json:"pending_analyses" example:"2"`
	BudgetGroups       int           `json:"budget_groups" example:"5"`
	ComparableGroups   int           `json:"comparable_groups" example:"3"`
	ActivePlanName     string        `json:"active_plan_name" example:"Pro"`
	SubscriptionStatus string        `json:"subscription_status" example:"active"`
	RecentActivity     []ActivityLog `json:"recent_activity"`
}
