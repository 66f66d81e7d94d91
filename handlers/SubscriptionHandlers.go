package handlers

import (
	"backend/services"
	"backend/storage"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SubscribeHandler starts a subscription to a plan for the caller.
// Any previous active subscription is cancelled first.
// @Summary Subscribe to a plan
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param request body models.SubscribeRequest true "Plan and billing cycle"
// @Success 201 {object} models.Subscription
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/subscriptions [post]
func SubscribeHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var req struct {
			PlanID       int    `json:"plan_id" binding:"required"`
			BillingCycle string `json:"billing_cycle"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		cycle := req.BillingCycle
		if cycle != "yearly" {
			cycle = "monthly"
		}

		var planName string
		if err := db.QueryRow(`SELECT name FROM plans WHERE id = $1 AND is_active = TRUE`, req.PlanID).Scan(&planName); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}

		endDate := time.Now().AddDate(0, 1, 0)
		if cycle == "yearly" {
			endDate = time.Now().AddDate(1, 0, 0)
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`
			UPDATE subscriptions SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
			WHERE user_id = $1 AND status = 'active'
		`, session.UserID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel previous subscription", "details": err.Error()})
			return
		}

		var subID int
		var startDate time.Time
		if err := tx.QueryRow(`
			INSERT INTO subscriptions (user_id, plan_id, status, billing_cycle, start_date, end_date, created_at, updated_at)
			VALUES ($1, $2, 'active', $3, NOW(), $4, NOW(), NOW())
			RETURNING id, start_date
		`, session.UserID, req.PlanID, cycle, endDate).Scan(&subID, &startDate); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create subscription", "details": err.Error()})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit", "details": err.Error()})
			return
		}

		// Welcome email is best-effort, never fails the request.
		go func() {
			user, err := fetchUserByID(db, session.UserID)
			if err != nil {
				log.Printf("Failed to load user %d for welcome email: %v", session.UserID, err)
				return
			}
			user.PlanName = planName
			if err := services.NewEmailService(db).SendWelcomeEmail(*user, nil); err != nil {
				log.Printf("Failed to send welcome email for user %d: %v", session.UserID, err)
			}
		}()

		logActivity(db, session, userName, "Subscription", "Create", "Subscribed to plan "+planName, "", "")
		c.JSON(http.StatusCreated, gin.H{
			"id":            subID,
			"plan_id":       req.PlanID,
			"plan_name":     planName,
			"status":        "active",
			"billing_cycle": cycle,
			"start_date":    startDate,
			"end_date":      endDate,
		})
	}
}

// GetCurrentSubscriptionHandler returns the caller's active subscription.
// @Summary Get current subscription
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} models.Subscription
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/subscriptions/current [get]
func GetCurrentSubscriptionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		sub, err := storage.GetActiveSubscription(db, session.UserID)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscription", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, sub)
	}
}

// CancelSubscriptionHandler cancels the caller's active subscription.
// Access continues until the paid period's end date.
// @Summary Cancel subscription
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/subscriptions/current [delete]
func CancelSubscriptionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		res, err := db.Exec(`
			UPDATE subscriptions SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
			WHERE user_id = $1 AND status = 'active'
		`, session.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel subscription", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription"})
			return
		}

		logActivity(db, session, userName, "Subscription", "Cancel", "Cancelled subscription", "", "")
		c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled successfully"})
	}
}

// GetSubscriptionsHandler lists all subscriptions (admin only).
// @Summary List subscriptions
// @Tags Subscriptions
// @Produce json
// @Success 200 {array} models.Subscription
// @Failure 403 {object} models.ErrorResponse
// @Router /api/subscriptions [get]
func GetSubscriptionsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}
		if !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		rows, err := db.Query(`
			SELECT s.id, s.user_id, s.plan_id, p.name, s.status, s.billing_cycle,
			       s.start_date, s.end_date, s.created_at, s.updated_at
			FROM subscriptions s
			JOIN plans p ON p.id = s.plan_id
			ORDER BY s.created_at DESC
		`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscriptions", "details": err.Error()})
			return
		}
		defer rows.Close()

		type subRow struct {
			ID           int       `json:"id"`
			UserID       int       `json:"user_id"`
			PlanID       int       `json:"plan_id"`
			PlanName     string    `json:"plan_name"`
			Status       string    `json:"status"`
			BillingCycle string    `json:"billing_cycle"`
			StartDate    time.Time `json:"start_date"`
			EndDate      time.Time `json:"end_date"`
			CreatedAt    time.Time `json:"created_at"`
			UpdatedAt    time.Time `json:"updated_at"`
		}
		subs := []subRow{}
		for rows.Next() {
			var s subRow
			if err := rows.Scan(&s.ID, &s.UserID, &s.PlanID, &s.PlanName, &s.Status, &s.BillingCycle,
				&s.StartDate, &s.EndDate, &s.CreatedAt, &s.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan subscription", "details": err.Error()})
				return
			}
			subs = append(subs, s)
		}

		c.JSON(http.StatusOK, subs)
	}
}
