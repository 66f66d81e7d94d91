package handlers

import (
	"backend/models"
	"backend/storage"
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDashboardSummaryHandler aggregates the counters for the user's
// dashboard in one round trip per counter.
// @Summary Dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} models.DashboardSummary
// @Failure 401 {object} models.ErrorResponse
// @Router /api/dashboard_summary [get]
func GetDashboardSummaryHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var summary models.DashboardSummary

		err = db.QueryRow(`
			SELECT
				COUNT(*),
				COUNT(*) FILTER (WHERE status = 'analyzed'),
				COUNT(*) FILTER (WHERE status IN ('uploaded', 'analyzing'))
			FROM documents WHERE user_id = $1
		`, session.UserID).Scan(&summary.TotalDocuments, &summary.AnalyzedDocuments, &summary.PendingAnalyses)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count documents", "details": err.Error()})
			return
		}

		err = db.QueryRow(`
			SELECT
				COUNT(*),
				COUNT(*) FILTER (WHERE (SELECT COUNT(*) FROM quotes q WHERE q.group_id = g.group_id) >= 2)
			FROM budget_groups g WHERE g.user_id = $1
		`, session.UserID).Scan(&summary.BudgetGroups, &summary.ComparableGroups)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count budget groups", "details": err.Error()})
			return
		}

		summary.SubscriptionStatus = "none"
		if sub, serr := storage.GetActiveSubscription(db, session.UserID); serr == nil {
			summary.SubscriptionStatus = sub.Status
			summary.ActivePlanName = sub.PlanName
		}

		rows, err := db.Query(`
			SELECT id, created_at, user_name, host_name, event_context, ip_address,
			       description, event_name, COALESCE(affected_user_name, ''),
			       COALESCE(affected_user_email, ''), user_id
			FROM activity_logs
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT 10
		`, session.UserID)
		if err == nil {
			defer rows.Close()
			for rows.Next() {
				var entry models.ActivityLog
				if err := rows.Scan(&entry.ID, &entry.CreatedAt, &entry.UserName, &entry.HostName,
					&entry.EventContext, &entry.IPAddress, &entry.Description, &entry.EventName,
					&entry.AffectedUserName, &entry.AffectedUserEmail, &entry.UserID); err == nil {
					summary.RecentActivity = append(summary.RecentActivity, entry)
				}
			}
		}

		c.JSON(http.StatusOK, summary)
	}
}
