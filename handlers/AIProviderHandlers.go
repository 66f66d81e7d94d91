package handlers

import (
	"backend/models"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetAIProvidersHandler lists configured AI providers (admin only).
// API keys are masked in the listing.
// @Summary List AI providers
// @Tags AIProviders
// @Produce json
// @Success 200 {array} models.AIProvider
// @Failure 403 {object} models.ErrorResponse
// @Router /api/ai_providers [get]
func GetAIProvidersHandler(db *sql.DB) gin.HandlerFunc {
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
			SELECT id, name, base_url, model, is_active, created_at, updated_at
			FROM ai_providers
			ORDER BY id
		`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch providers", "details": err.Error()})
			return
		}
		defer rows.Close()

		providers := []models.AIProvider{}
		for rows.Next() {
			var p models.AIProvider
			if err := rows.Scan(&p.ID, &p.Name, &p.BaseURL, &p.Model, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan provider", "details": err.Error()})
				return
			}
			providers = append(providers, p)
		}

		c.JSON(http.StatusOK, providers)
	}
}

// CreateAIProviderHandler adds a provider (admin only). New providers
// start inactive.
// @Summary Create AI provider
// @Tags AIProviders
// @Accept json
// @Produce json
// @Param request body models.AIProviderRequest true "Provider data"
// @Success 201 {object} models.AIProvider
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/ai_providers [post]
func CreateAIProviderHandler(db *sql.DB) gin.HandlerFunc {
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

		var req models.AIProviderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		var p models.AIProvider
		err = db.QueryRow(`
			INSERT INTO ai_providers (name, base_url, api_key, model, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, FALSE, NOW(), NOW())
			RETURNING id, name, base_url, model, is_active, created_at, updated_at
		`, req.Name, req.BaseURL, req.APIKey, req.Model).Scan(
			&p.ID, &p.Name, &p.BaseURL, &p.Model, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create provider", "details": err.Error()})
			return
		}

		logActivity(db, session, userName, "AIProvider", "Create", "Created AI provider "+p.Name, "", "")
		c.JSON(http.StatusCreated, p)
	}
}

// UpdateAIProviderHandler updates a provider's endpoint, key or model
// (admin only). An empty api_key keeps the stored one.
// @Summary Update AI provider
// @Tags AIProviders
// @Accept json
// @Produce json
// @Param id path int true "Provider ID"
// @Param request body models.AIProviderRequest true "Provider data"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/ai_providers/{id} [put]
func UpdateAIProviderHandler(db *sql.DB) gin.HandlerFunc {
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
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider ID"})
			return
		}

		var req models.AIProviderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		res, err := db.Exec(`
			UPDATE ai_providers
			SET name = $1, base_url = $2, model = $3,
			    api_key = COALESCE(NULLIF($4, ''), api_key),
			    updated_at = NOW()
			WHERE id = $5
		`, req.Name, req.BaseURL, req.Model, req.APIKey, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update provider", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
			return
		}

		logActivity(db, session, userName, "AIProvider", "Update", "Updated AI provider "+req.Name, "", "")
		c.JSON(http.StatusOK, gin.H{"message": "Provider updated successfully"})
	}
}

// ActivateAIProviderHandler makes one provider active and deactivates the
// rest, atomically (admin only).
// @Summary Activate AI provider
// @Tags AIProviders
// @Produce json
// @Param id path int true "Provider ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/ai_providers/{id}/activate [post]
func ActivateAIProviderHandler(db *sql.DB) gin.HandlerFunc {
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
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider ID"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`UPDATE ai_providers SET is_active = FALSE, updated_at = NOW() WHERE is_active = TRUE`); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate providers", "details": err.Error()})
			return
		}
		res, err := tx.Exec(`UPDATE ai_providers SET is_active = TRUE, updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate provider", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
			return
		}
		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit", "details": err.Error()})
			return
		}

		logActivity(db, session, userName, "AIProvider", "Activate", "Activated AI provider "+c.Param("id"), "", "")
		c.JSON(http.StatusOK, gin.H{"message": "Provider activated successfully"})
	}
}

// DeleteAIProviderHandler removes a provider (admin only).
// @Summary Delete AI provider
// @Tags AIProviders
// @Produce json
// @Param id path int true "Provider ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/ai_providers/{id} [delete]
func DeleteAIProviderHandler(db *sql.DB) gin.HandlerFunc {
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
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid provider ID"})
			return
		}

		res, err := db.Exec(`DELETE FROM ai_providers WHERE id = $1`, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete provider", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
			return
		}

		logActivity(db, session, userName, "AIProvider", "Delete", "Deleted AI provider "+c.Param("id"), "", "")
		c.JSON(http.StatusOK, gin.H{"message": "Provider deleted successfully"})
	}
}
