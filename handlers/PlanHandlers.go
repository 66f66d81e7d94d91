package handlers

import (
	"backend/models"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// GetPlansHandler lists all available plans. Public endpoint.
// @Summary List plans
// @Tags Plans
// @Produce json
// @Success 200 {array} models.Plan
// @Failure 500 {object} models.ErrorResponse
// @Router /api/plans [get]
func GetPlansHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := db.Query(`
			SELECT id, name, COALESCE(description, ''), price_monthly, price_yearly,
			       COALESCE(features, '{}'), document_limit, ai_limit, is_active, created_at
			FROM plans
			WHERE is_active = TRUE
			ORDER BY price_monthly
		`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plans", "details": err.Error()})
			return
		}
		defer rows.Close()

		plans := []models.Plan{}
		for rows.Next() {
			var p models.Plan
			if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceMonthly, &p.PriceYearly,
				&p.Features, &p.DocumentLimit, &p.AILimit, &p.IsActive, &p.CreatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan plan", "details": err.Error()})
				return
			}
			plans = append(plans, p)
		}

		c.JSON(http.StatusOK, plans)
	}
}

// GetPlanHandler returns a single plan by ID.
// @Summary Get plan
// @Tags Plans
// @Produce json
// @Param id path int true "Plan ID"
// @Success 200 {object} models.Plan
// @Failure 404 {object} models.ErrorResponse
// @Router /api/plans/{id} [get]
func GetPlanHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan ID"})
			return
		}

		var p models.Plan
		err = db.QueryRow(`
			SELECT id, name, COALESCE(description, ''), price_monthly, price_yearly,
			       COALESCE(features, '{}'), document_limit, ai_limit, is_active, created_at
			FROM plans WHERE id = $1
		`, id).Scan(&p.ID, &p.Name, &p.Description, &p.PriceMonthly, &p.PriceYearly,
			&p.Features, &p.DocumentLimit, &p.AILimit, &p.IsActive, &p.CreatedAt)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plan", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, p)
	}
}

// CreatePlanHandler creates a plan (admin only).
// @Summary Create plan
// @Tags Plans
// @Accept json
// @Produce json
// @Param request body models.PlanRequest true "Plan data"
// @Success 201 {object} models.Plan
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/plans [post]
func CreatePlanHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}
		if !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		var req models.PlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		var p models.Plan
		err = db.QueryRow(`
			INSERT INTO plans (name, description, price_monthly, price_yearly, features, document_limit, ai_limit, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW())
			RETURNING id, name, COALESCE(description, ''), price_monthly, price_yearly,
			          COALESCE(features, '{}'), document_limit, ai_limit, is_active, created_at
		`, req.Name, req.Description, req.PriceMonthly, req.PriceYearly,
			pq.Array(req.Features), req.DocumentLimit, req.AILimit,
		).Scan(&p.ID, &p.Name, &p.Description, &p.PriceMonthly, &p.PriceYearly,
			&p.Features, &p.DocumentLimit, &p.AILimit, &p.IsActive, &p.CreatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan", "details": err.Error()})
			return
		}

		logActivity(db, session, userName, "Plan", "Create", "Created plan "+p.Name, "", "")
		c.JSON(http.StatusCreated, p)
	}
}

// UpdatePlanHandler updates a plan (admin only).
// @Summary Update plan
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path int true "Plan ID"
// @Param request body models.PlanRequest true "Plan data"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/plans/{id} [put]
func UpdatePlanHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}
		if !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan ID"})
			return
		}

		var req models.PlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		res, err := db.Exec(`
			UPDATE plans
			SET name = $1, description = $2, price_monthly = $3, price_yearly = $4,
			    features = $5, document_limit = $6, ai_limit = $7
			WHERE id = $8
		`, req.Name, req.Description, req.PriceMonthly, req.PriceYearly,
			pq.Array(req.Features), req.DocumentLimit, req.AILimit, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}

		logActivity(db, session, userName, "Plan", "Update", "Updated plan "+req.Name, "", "")
		c.JSON(http.StatusOK, gin.H{"message": "Plan updated successfully"})
	}
}

// DeletePlanHandler deactivates a plan (admin only). Plans with active
// subscriptions are soft-deleted so the subscriptions keep resolving.
// @Summary Delete plan
// @Tags Plans
// @Produce json
// @Param id path int true "Plan ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/plans/{id} [delete]
func DeletePlanHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}
		if !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}

		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan ID"})
			return
		}

		res, err := db.Exec(`UPDATE plans SET is_active = FALSE WHERE id = $1`, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete plan", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}

		logActivity(db, session, userName, "Plan", "Delete", "Deactivated plan "+c.Param("id"), "", "")
		c.JSON(http.StatusOK, gin.H{"message": "Plan deactivated successfully"})
	}
}
