package handlers

import (
	"backend/models"
	"backend/repository"
	"backend/services"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// CreateBudgetGroupHandler creates a budget group. The group_id is a slug
// derived from the title.
// @Summary Create budget group
// @Tags Budgets
// @Accept json
// @Produce json
// @Param request body models.BudgetGroupRequest true "Group data"
// @Success 201 {object} models.BudgetGroup
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/budget_groups [post]
func CreateBudgetGroupHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var req models.BudgetGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		groupID := repository.GenerateGroupID(req.Title)
		category := req.Category
		if category == "" {
			category = "general"
		}

		var group models.BudgetGroup
		err = db.QueryRow(`
			INSERT INTO budget_groups (group_id, title, category, status, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, 'open', $4, NOW(), NOW())
			RETURNING group_id, title, category, status, user_id, created_at, updated_at
		`, groupID, req.Title, category, session.UserID).Scan(
			&group.GroupID, &group.Title, &group.Category, &group.Status,
			&group.UserID, &group.CreatedAt, &group.UpdatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				c.JSON(http.StatusConflict, gin.H{"error": "A group with this title already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create group", "details": err.Error()})
			return
		}

		logActivity(db, session, userName, "Budget", "Create", "Created budget group "+group.Title, "", "")
		c.JSON(http.StatusCreated, group)
	}
}

// GetBudgetGroupsHandler lists the caller's groups with their quote counts.
// @Summary List budget groups
// @Tags Budgets
// @Produce json
// @Success 200 {array} models.BudgetGroup
// @Failure 401 {object} models.ErrorResponse
// @Router /api/budget_groups [get]
func GetBudgetGroupsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		rows, err := db.Query(`
			SELECT g.group_id, g.title, COALESCE(g.category, 'general'), g.status,
			       g.user_id, g.created_at, g.updated_at,
			       (SELECT COUNT(*) FROM quotes q WHERE q.group_id = g.group_id) AS quote_count
			FROM budget_groups g
			WHERE g.user_id = $1
			ORDER BY g.created_at DESC
		`, session.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch groups", "details": err.Error()})
			return
		}
		defer rows.Close()

		type groupRow struct {
			models.BudgetGroup
			QuoteCount int `json:"quote_count"`
		}
		groups := []groupRow{}
		for rows.Next() {
			var g groupRow
			if err := rows.Scan(&g.GroupID, &g.Title, &g.Category, &g.Status,
				&g.UserID, &g.CreatedAt, &g.UpdatedAt, &g.QuoteCount); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan group", "details": err.Error()})
				return
			}
			groups = append(groups, g)
		}

		c.JSON(http.StatusOK, groups)
	}
}

// GetBudgetGroupHandler returns one group with its quotes.
// @Summary Get budget group
// @Tags Budgets
// @Produce json
// @Param group_id path string true "Group ID"
// @Success 200 {object} models.BudgetGroup
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/budget_groups/{group_id} [get]
func GetBudgetGroupHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		group, err := repository.FetchBudgetGroup(db, c.Param("group_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Budget group not found"})
			return
		}
		if group.UserID != session.UserID && !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Group belongs to another user"})
			return
		}

		c.JSON(http.StatusOK, group)
	}
}

// DeleteBudgetGroupHandler removes a group and its quotes.
// @Summary Delete budget group
// @Tags Budgets
// @Produce json
// @Param group_id path string true "Group ID"
// @Success 200 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/budget_groups/{group_id} [delete]
func DeleteBudgetGroupHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		group, err := repository.FetchBudgetGroup(db, c.Param("group_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Budget group not found"})
			return
		}
		if group.UserID != session.UserID && !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Group belongs to another user"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM quotes WHERE group_id = $1`, group.GroupID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete quotes", "details": err.Error()})
			return
		}
		if _, err := tx.Exec(`DELETE FROM budget_groups WHERE group_id = $1`, group.GroupID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete group", "details": err.Error()})
			return
		}
		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit", "details": err.Error()})
			return
		}

		logActivity(db, session, userName, "Budget", "Delete", "Deleted budget group "+group.Title, "", "")
		c.JSON(http.StatusOK, gin.H{"message": "Budget group deleted successfully"})
	}
}

// AddQuoteHandler adds a vendor quote to a group.
// @Summary Add quote to group
// @Tags Budgets
// @Accept json
// @Produce json
// @Param group_id path string true "Group ID"
// @Param request body models.QuoteRequest true "Quote data"
// @Success 201 {object} models.Quote
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/budget_groups/{group_id}/quotes [post]
func AddQuoteHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		group, err := repository.FetchBudgetGroup(db, c.Param("group_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Budget group not found"})
			return
		}
		if group.UserID != session.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Group belongs to another user"})
			return
		}

		var req models.QuoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}
		if req.TotalAmount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "total_amount must be positive"})
			return
		}
		if req.WarrantyMonths < 0 || req.DeliveryTime < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "warranty_months and delivery_time cannot be negative"})
			return
		}
		if req.ReclameAquiScore < 0 || req.ReclameAquiScore > 10 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reclame_aqui_score must be between 0 and 10"})
			return
		}
		if req.ProductRating < 0 || req.ProductRating > 5 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "product_rating must be between 0 and 5"})
			return
		}

		var docID interface{}
		if req.DocumentID > 0 {
			doc, derr := repository.FetchDocument(db, req.DocumentID)
			if derr != nil || doc.UserID != session.UserID {
				c.JSON(http.StatusBadRequest, gin.H{"error": "document_id does not reference an owned document"})
				return
			}
			docID = req.DocumentID
		}

		var quote models.Quote
		err = db.QueryRow(`
			INSERT INTO quotes (group_id, provider, total_amount, warranty_months, delivery_time,
			                    reclame_aqui_score, product_rating, risk_factors, document_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			RETURNING id, group_id, provider, total_amount, warranty_months, delivery_time,
			          reclame_aqui_score, product_rating, COALESCE(risk_factors, '{}'),
			          COALESCE(document_id, 0), created_at, updated_at
		`, group.GroupID, req.Provider, req.TotalAmount, req.WarrantyMonths, req.DeliveryTime,
			req.ReclameAquiScore, req.ProductRating, pq.Array(req.RiskFactors), docID,
		).Scan(&quote.ID, &quote.GroupID, &quote.Provider, &quote.TotalAmount, &quote.WarrantyMonths,
			&quote.DeliveryTime, &quote.ReclameAquiScore, &quote.ProductRating, &quote.RiskFactors,
			&quote.DocumentID, &quote.CreatedAt, &quote.UpdatedAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create quote", "details": err.Error()})
			return
		}

		logActivity(db, session, userName, "Budget", "Create",
			fmt.Sprintf("Added quote from %s to group %s", quote.Provider, group.Title), "", "")
		c.JSON(http.StatusCreated, quote)
	}
}

// UpdateQuoteHandler updates a quote's fields.
// @Summary Update quote
// @Tags Budgets
// @Accept json
// @Produce json
// @Param group_id path string true "Group ID"
// @Param id path int true "Quote ID"
// @Param request body models.QuoteRequest true "Quote data"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/budget_groups/{group_id}/quotes/{id} [put]
func UpdateQuoteHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		group, err := repository.FetchBudgetGroup(db, c.Param("group_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Budget group not found"})
			return
		}
		if group.UserID != session.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Group belongs to another user"})
			return
		}

		quoteID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
			return
		}

		var req models.QuoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		res, err := db.Exec(`
			UPDATE quotes
			SET provider = $1, total_amount = $2, warranty_months = $3, delivery_time = $4,
			    reclame_aqui_score = $5, product_rating = $6, risk_factors = $7, updated_at = NOW()
			WHERE id = $8 AND group_id = $9
		`, req.Provider, req.TotalAmount, req.WarrantyMonths, req.DeliveryTime,
			req.ReclameAquiScore, req.ProductRating, pq.Array(req.RiskFactors), quoteID, group.GroupID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update quote", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found in this group"})
			return
		}

		logActivity(db, session, userName, "Budget", "Update",
			fmt.Sprintf("Updated quote %d in group %s", quoteID, group.Title), "", "")
		c.JSON(http.StatusOK, gin.H{"message": "Quote updated successfully"})
	}
}

// DeleteQuoteHandler removes one quote from a group.
// @Summary Delete quote
// @Tags Budgets
// @Produce json
// @Param group_id path string true "Group ID"
// @Param id path int true "Quote ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/budget_groups/{group_id}/quotes/{id} [delete]
func DeleteQuoteHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		group, err := repository.FetchBudgetGroup(db, c.Param("group_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Budget group not found"})
			return
		}
		if group.UserID != session.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Group belongs to another user"})
			return
		}

		quoteID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid quote ID"})
			return
		}

		res, err := db.Exec(`DELETE FROM quotes WHERE id = $1 AND group_id = $2`, quoteID, group.GroupID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete quote", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quote not found in this group"})
			return
		}

		logActivity(db, session, userName, "Budget", "Delete",
			fmt.Sprintf("Deleted quote %d from group %s", quoteID, group.Title), "", "")
		c.JSON(http.StatusOK, gin.H{"message": "Quote deleted successfully"})
	}
}

// CompareQuotesHandler scores and ranks a group's quotes. Groups with fewer
// than two quotes are not comparable and return 422.
// @Summary Compare quotes in a group
// @Tags Budgets
// @Produce json
// @Param group_id path string true "Group ID"
// @Success 200 {object} models.ComparisonResult
// @Failure 404 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /api/budget_groups/{group_id}/comparison [get]
func CompareQuotesHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		group, err := repository.FetchBudgetGroup(db, c.Param("group_id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Budget group not found"})
			return
		}
		if group.UserID != session.UserID && !isAdmin(db, session.UserID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Group belongs to another user"})
			return
		}

		result := services.CompareQuotes(*group)
		if result == nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "Group is not comparable",
				"details": fmt.Sprintf("comparison needs at least %d quotes, group has %d", services.MinQuotesForComparison, len(group.Quotes)),
			})
			return
		}

		logActivity(db, session, userName, "Budget", "Compare",
			"Compared quotes in group "+group.Title, "", "")
		c.JSON(http.StatusOK, result)
	}
}
