package storage

import (
	"backend/models"
	"backend/utils"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

var db *sql.DB

func InitDB() *sql.DB {
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")

	connStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable",
		user, password, dbname, host, port)

	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Set connection pool settings optimized for light server load
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	return db
}

func GetDB() *sql.DB {
	return db
}

// SaveSession saves a new session for a user, handling multiple device support.
// If allowMultipleSessions is true, it allows multiple devices to be logged in simultaneously.
// If false, it deletes all existing sessions before creating a new one.
func SaveSession(db *sql.DB, session *models.Session, allowMultipleSessions bool) error {
	if !allowMultipleSessions {
		deleteAllQuery := `DELETE FROM session WHERE user_id = $1`
		_, err := db.Exec(deleteAllQuery, session.UserID)
		if err != nil {
			return fmt.Errorf("failed to delete all user sessions: %v", err)
		}
	}

	insertQuery := `INSERT INTO session (user_id, session_id, host_name, ip_address, timestp, expires_at, refresh_token, refresh_token_expires_at)
                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := db.Exec(insertQuery, session.UserID, session.SessionID, session.HostName, session.IPAddress, session.Timestamp, session.ExpiresAt, session.RefreshToken, session.RefreshTokenExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert new session: %v", err)
	}
	return nil
}

// SaveRefreshToken stores a refresh token in the session table bound to a session.
// This allows each device/session to have its own refresh token.
func SaveRefreshToken(db *sql.DB, userID int, sessionID string, refreshToken string, expiresAt time.Time) error {
	updateQuery := `UPDATE session SET refresh_token = $1, refresh_token_expires_at = $2 WHERE session_id = $3 AND user_id = $4`

	result, err := db.Exec(updateQuery, refreshToken, expiresAt, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %v", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("session not found for session_id: %s and user_id: %d", sessionID, userID)
	}

	return nil
}

// GetRefreshTokenBySession retrieves a refresh token for a specific session
func GetRefreshTokenBySession(db *sql.DB, sessionID string) (string, error) {
	var refreshToken string
	err := db.QueryRow(`
		SELECT refresh_token FROM session
		WHERE session_id = $1 AND refresh_token_expires_at > NOW()`, sessionID).Scan(&refreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh token not found: %v", err)
	}
	return refreshToken, nil
}

// DeleteRefreshToken removes a refresh token for a session (for logout)
func DeleteRefreshToken(db *sql.DB, sessionID string) error {
	_, err := db.Exec(`UPDATE session SET refresh_token = NULL, refresh_token_expires_at = NULL WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %v", err)
	}
	return nil
}

func DeleteSession(db *sql.DB, userID int) error {
	query := `DELETE FROM session WHERE user_id = $1`
	_, err := db.Exec(query, userID)
	return err
}

// DeleteSessionByID deletes a specific session by session_id
func DeleteSessionByID(db *sql.DB, sessionID string, userID int) error {
	query := `DELETE FROM session WHERE session_id = $1 AND user_id = $2`
	result, err := db.Exec(query, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %v", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("session not found or already deleted")
	}

	return nil
}

func GetUserByEmail(db *sql.DB, email string) (*models.User, error) {
	var user models.User
	query := `SELECT id, email, password, suspended, is_admin FROM users WHERE LOWER(email) = LOWER($1)`

	err := db.QueryRow(query, email).Scan(&user.ID, &user.Email, &user.Password, &user.Suspended, &user.IsAdmin)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user with email %s not found", email)
		}
		return nil, fmt.Errorf("failed to query user: %v", err)
	}

	return &user, nil
}

func CleanupExpiredSessions(db *sql.DB) error {
	ctx, cancel := utils.GetDefaultQueryContext(nil)
	defer cancel()
	threshold := time.Now().Add(-24 * time.Hour)
	_, err := db.ExecContext(ctx, "DELETE FROM session WHERE expires_at < $1", threshold)
	return err
}

// GetUserBySessionID retrieves a User by the given session ID from the database.
func GetUserBySessionID(db *sql.DB, sessionID string) (*models.User, error) {
	query := `
		SELECT u.id, u.email, u.full_name, u.created_at, u.updated_at,
			   u.first_access, u.last_access, u.profile_picture, u.is_admin,
			   u.phone, u.city, u.state, u.country, u.role_name, u.suspended,
			   COALESCE(u.plan_id, 0)
		FROM session s
		JOIN users u ON s.user_id = u.id
		WHERE s.session_id = $1 AND s.expires_at > NOW()
	`

	var user models.User
	var firstAccess, lastAccess sql.NullTime

	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()
	err := db.QueryRowContext(ctx, query, sessionID).Scan(
		&user.ID, &user.Email, &user.FullName, &user.CreatedAt, &user.UpdatedAt,
		&firstAccess, &lastAccess, &user.ProfilePic, &user.IsAdmin,
		&user.Phone, &user.City, &user.State, &user.Country, &user.RoleName,
		&user.Suspended, &user.PlanID,
	)
	if err != nil || user.Suspended {
		if err == sql.ErrNoRows {
			return nil, errors.New("user not found for the given session ID or account suspended")
		}
		if err == nil {
			return nil, errors.New("account suspended")
		}
		return nil, err
	}

	// Handle sql.NullTime for FirstAccess and LastAccess
	user.FirstAccess = firstAccess.Time
	if !firstAccess.Valid {
		user.FirstAccess = time.Time{}
	}

	user.LastAccess = lastAccess.Time
	if !lastAccess.Valid {
		user.LastAccess = time.Time{}
	}

	return &user, nil
}

// GetActiveSubscription returns the current active subscription for a user,
// or sql.ErrNoRows when the user has none.
func GetActiveSubscription(db *sql.DB, userID int) (*models.Subscription, error) {
	var sub models.Subscription
	query := `
		SELECT s.id, s.user_id, s.plan_id, p.name, s.status, s.billing_cycle,
		       s.start_date, s.end_date, s.documents_used, s.ai_used,
		       s.created_at, s.updated_at
		FROM subscriptions s
		JOIN plans p ON s.plan_id = p.id
		WHERE s.user_id = $1 AND s.status = 'active'
		ORDER BY s.start_date DESC
		LIMIT 1
	`
	err := db.QueryRow(query, userID).Scan(
		&sub.ID, &sub.UserID, &sub.PlanID, &sub.PlanName, &sub.Status,
		&sub.BillingCycle, &sub.StartDate, &sub.EndDate,
		&sub.DocumentsUsed, &sub.AIUsed, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetActiveAIProvider returns the AI provider marked active in the admin
// console, or sql.ErrNoRows when none is configured.
func GetActiveAIProvider(db *sql.DB) (*models.AIProvider, error) {
	var p models.AIProvider
	query := `
		SELECT id, name, base_url, api_key, model, is_active, created_at, updated_at
		FROM ai_providers
		WHERE is_active = TRUE
		LIMIT 1
	`
	err := db.QueryRow(query).Scan(
		&p.ID, &p.Name, &p.BaseURL, &p.APIKey, &p.Model, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
