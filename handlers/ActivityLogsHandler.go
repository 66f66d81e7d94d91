package handlers

import (
	"backend/models"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// GetSessionDetails resolves a session ID to its session row and the
// owning user's display name.
func GetSessionDetails(db *sql.DB, sessionID string) (models.Session, string, error) {
	var session models.Session
	var userName string

	query := `
        SELECT s.user_id, u.full_name AS user_name, s.host_name, s.ip_address
        FROM session s
        JOIN users u ON s.user_id = u.id
        WHERE s.session_id = $1`

	err := db.QueryRow(query, sessionID).Scan(
		&session.UserID,
		&userName,
		&session.HostName,
		&session.IPAddress,
	)
	if err != nil {
		return models.Session{}, "", err
	}
	session.SessionID = sessionID
	return session, userName, nil
}

// Helper to save activity logs
func SaveActivityLog(db *sql.DB, log models.ActivityLog) error {
	query := `
    INSERT INTO activity_logs (
        created_at, user_name, host_name, event_context, ip_address,
        description, event_name, affected_user_name, affected_user_email, user_id
    ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := db.Exec(query,
		log.CreatedAt, log.UserName, log.HostName, log.EventContext, log.IPAddress,
		log.Description, log.EventName, log.AffectedUserName, log.AffectedUserEmail, log.UserID,
	)
	return err
}

// logActivity builds the log row from the caller's session and writes it.
// Logging failures are swallowed so they never fail the request.
func logActivity(db *sql.DB, session models.Session, userName, context, event, description, affectedName, affectedEmail string) {
	_ = SaveActivityLog(db, models.ActivityLog{
		CreatedAt:         time.Now(),
		UserName:          userName,
		HostName:          session.HostName,
		EventContext:      context,
		IPAddress:         session.IPAddress,
		Description:       description,
		EventName:         event,
		AffectedUserName:  affectedName,
		AffectedUserEmail: affectedEmail,
		UserID:            session.UserID,
	})
}

// GetActivityLogsHandler godoc
// @Summary      Get activity logs
// @Tags         activity-logs
// @Param        page   query  int  false  "Page"
// @Param        limit  query  int  false  "Limit"
// @Success      200    {object}  object
// @Failure      401    {object}  models.ErrorResponse
// @Router       /api/logs [get]
func GetActivityLogsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session-id header is required"})
			return
		}

		if _, _, err := GetSessionDetails(db, sessionID); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		pageStr := c.DefaultQuery("page", "1")
		limitStr := c.DefaultQuery("limit", "10")

		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			page = 1
		}

		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			limit = 10
		}
		offset := (page - 1) * limit

		var total int
		if err := db.QueryRow(`SELECT COUNT(*) FROM activity_logs`).Scan(&total); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count logs", "details": err.Error()})
			return
		}

		query := `
			SELECT id, created_at, user_name, host_name, event_context, ip_address,
			       description, event_name, affected_user_name, affected_user_email, user_id
			FROM activity_logs
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`
		rows, err := db.Query(query, limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs", "details": err.Error()})
			return
		}
		defer rows.Close()

		var logs []models.ActivityLog
		for rows.Next() {
			var entry models.ActivityLog
			if err := rows.Scan(
				&entry.ID, &entry.CreatedAt, &entry.UserName, &entry.HostName,
				&entry.EventContext, &entry.IPAddress, &entry.Description,
				&entry.EventName, &entry.AffectedUserName, &entry.AffectedUserEmail,
				&entry.UserID,
			); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan log", "details": err.Error()})
				return
			}
			logs = append(logs, entry)
		}

		c.JSON(http.StatusOK, gin.H{
			"logs":  logs,
			"total": total,
			"page":  page,
			"limit": limit,
		})
	}
}
