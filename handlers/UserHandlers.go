package handlers

import (
	"backend/models"
	"backend/utils"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetUsersHandler lists all users (admin only).
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {array} models.User
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/users [get]
func GetUsersHandler(db *sql.DB) gin.HandlerFunc {
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

		query := `
			SELECT u.id, u.email, COALESCE(u.full_name, ''), u.created_at, u.updated_at,
			       COALESCE(u.profile_picture, ''), u.is_admin, COALESCE(u.phone, ''),
			       COALESCE(u.city, ''), COALESCE(u.state, ''), COALESCE(u.country, ''),
			       COALESCE(u.role_name, 'user'), u.suspended,
			       COALESCE(s.plan_id, 0), COALESCE(p.name, ''),
			       (SELECT COUNT(*) FROM documents d WHERE d.user_id = u.id) AS document_count
			FROM users u
			LEFT JOIN subscriptions s ON s.user_id = u.id AND s.status = 'active'
			LEFT JOIN plans p ON p.id = s.plan_id
			ORDER BY u.id
		`
		rows, err := db.Query(query)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users", "details": err.Error()})
			return
		}
		defer rows.Close()

		users := []models.User{}
		for rows.Next() {
			var u models.User
			if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.CreatedAt, &u.UpdatedAt,
				&u.ProfilePic, &u.IsAdmin, &u.Phone, &u.City, &u.State, &u.Country,
				&u.RoleName, &u.Suspended, &u.PlanID, &u.PlanName, &u.DocumentCount); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan user", "details": err.Error()})
				return
			}
			users = append(users, u)
		}

		logActivity(db, session, userName, "User", "List", "Listed all users", "", "")
		c.JSON(http.StatusOK, users)
	}
}

// GetUserProfileHandler returns the authenticated user's own profile.
// @Summary Get own profile
// @Tags Users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /api/users/me [get]
func GetUserProfileHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		user, err := fetchUserByID(db, session.UserID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// UpdateUserProfileHandler updates the authenticated user's own profile.
// @Summary Update own profile
// @Tags Users
// @Accept json
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/users/me [put]
func UpdateUserProfileHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		session, userName, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		var req struct {
			FullName   string `json:"full_name"`
			Phone      string `json:"phone"`
			City       string `json:"city"`
			State      string `json:"state"`
			Country    string `json:"country"`
			ProfilePic string `json:"profile_picture"`
			Password   string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		query := `
			UPDATE users
			SET full_name = COALESCE(NULLIF($1, ''), full_name),
			    phone = COALESCE(NULLIF($2, ''), phone),
			    city = COALESCE(NULLIF($3, ''), city),
			    state = COALESCE(NULLIF($4, ''), state),
			    country = COALESCE(NULLIF($5, ''), country),
			    profile_picture = COALESCE(NULLIF($6, ''), profile_picture),
			    updated_at = NOW()
			WHERE id = $7
		`
		if _, err := db.Exec(query, req.FullName, req.Phone, req.City, req.State, req.Country, req.ProfilePic, session.UserID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile", "details": err.Error()})
			return
		}

		if req.Password != "" {
			hashed, err := utils.HashPassword(req.Password)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password", "details": err.Error()})
				return
			}
			if _, err := db.Exec(`UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`, hashed, session.UserID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password", "details": err.Error()})
				return
			}
		}

		logActivity(db, session, userName, "User", "Update", "Updated own profile", "", "")
		c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
	}
}

// SuspendUserHandler toggles a user's suspended flag (admin only).
// @Summary Suspend or reactivate a user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/users/{id}/suspend [put]
func SuspendUserHandler(db *sql.DB) gin.HandlerFunc {
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

		targetID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}
		if targetID == session.UserID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot suspend your own account"})
			return
		}

		var suspended bool
		var targetEmail, targetName string
		err = db.QueryRow(`
			UPDATE users SET suspended = NOT suspended, updated_at = NOW()
			WHERE id = $1
			RETURNING suspended, email, COALESCE(full_name, '')
		`, targetID).Scan(&suspended, &targetEmail, &targetName)
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user", "details": err.Error()})
			return
		}

		action := "reactivated"
		if suspended {
			action = "suspended"
			// A suspended user loses all live sessions immediately.
			_, _ = db.Exec(`DELETE FROM session WHERE user_id = $1`, targetID)
		}

		logActivity(db, session, userName, "User", "Suspend",
			fmt.Sprintf("User %s was %s", targetEmail, action), targetName, targetEmail)
		c.JSON(http.StatusOK, gin.H{"message": "User " + action + " successfully"})
	}
}

// DeleteUserHandler removes a user and its owned rows (admin only).
// @Summary Delete user
// @Tags Users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/users/{id} [delete]
func DeleteUserHandler(db *sql.DB) gin.HandlerFunc {
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

		targetID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
			return
		}
		if targetID == session.UserID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
			return
		}

		var targetEmail string
		if err := db.QueryRow(`SELECT email FROM users WHERE id = $1`, targetID).Scan(&targetEmail); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		for _, q := range []string{
			`DELETE FROM document_analysis WHERE document_id IN (SELECT id FROM documents WHERE user_id = $1)`,
			`DELETE FROM quotes WHERE group_id IN (SELECT group_id FROM budget_groups WHERE user_id = $1)`,
			`DELETE FROM budget_groups WHERE user_id = $1`,
			`DELETE FROM documents WHERE user_id = $1`,
			`DELETE FROM subscriptions WHERE user_id = $1`,
			`DELETE FROM session WHERE user_id = $1`,
			`DELETE FROM users WHERE id = $1`,
		} {
			if _, err := tx.Exec(q, targetID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user data", "details": err.Error()})
				return
			}
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit", "details": err.Error()})
			return
		}

		logActivity(db, session, userName, "User", "Delete",
			fmt.Sprintf("Deleted user %s", targetEmail), "", targetEmail)
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
	}
}

func isAdmin(db *sql.DB, userID int) bool {
	var admin bool
	if err := db.QueryRow(`SELECT is_admin FROM users WHERE id = $1`, userID).Scan(&admin); err != nil {
		return false
	}
	return admin
}

func fetchUserByID(db *sql.DB, id int) (*models.User, error) {
	var u models.User
	query := `
		SELECT u.id, u.email, COALESCE(u.full_name, ''), u.created_at, u.updated_at,
		       COALESCE(u.profile_picture, ''), u.is_admin, COALESCE(u.phone, ''),
		       COALESCE(u.city, ''), COALESCE(u.state, ''), COALESCE(u.country, ''),
		       COALESCE(u.role_name, 'user'), u.suspended,
		       COALESCE(s.plan_id, 0), COALESCE(p.name, '')
		FROM users u
		LEFT JOIN subscriptions s ON s.user_id = u.id AND s.status = 'active'
		LEFT JOIN plans p ON p.id = s.plan_id
		WHERE u.id = $1
	`
	err := db.QueryRow(query, id).Scan(&u.ID, &u.Email, &u.FullName, &u.CreatedAt, &u.UpdatedAt,
		&u.ProfilePic, &u.IsAdmin, &u.Phone, &u.City, &u.State, &u.Country,
		&u.RoleName, &u.Suspended, &u.PlanID, &u.PlanName)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
