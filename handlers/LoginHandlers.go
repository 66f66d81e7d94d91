package handlers

import (
	"backend/models"
	"backend/storage"
	"backend/utils"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionTTL = 24 * time.Hour

// LoginHandler handles user authentication
// @Summary Login user
// @Description Authenticate user with a bearer token or email/password and return session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/login [post]
func LoginHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Token-based login first; fall through to email/password when the
		// token is missing or invalid so expired tokens don't lock users out.
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))

		if token != "" {
			parsedToken, err := utils.ValidateJWT(token)
			if err == nil && parsedToken.Valid {
				claims, ok := parsedToken.Claims.(jwt.MapClaims)
				if !ok {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims structure"})
					return
				}

				email, ok := claims["email"].(string)
				if !ok || email == "" {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "Email claim missing or invalid"})
					return
				}

				user, err := storage.GetUserByEmail(db, email)
				if err != nil {
					c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
					return
				}

				if user.Suspended {
					c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
					return
				}

				c.JSON(http.StatusOK, gin.H{
					"message":      "User successfully logged in via token",
					"access_token": token,
					"is_admin":     user.IsAdmin,
					"user": gin.H{
						"id":    user.ID,
						"email": user.Email,
					},
				})
				return
			}
		}

		var loginData models.LoginRequest
		if err := c.ShouldBindJSON(&loginData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		user, err := storage.GetUserByEmail(db, loginData.Email)
		if err != nil || !utils.ValidatePassword(user.Password, loginData.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if user.Suspended {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
			return
		}

		accessToken, err := utils.GenerateJWT(user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token", "details": err.Error()})
			return
		}

		sessionID := uuid.New().String()
		refreshToken, err := utils.GenerateRefreshToken(user.Email, sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token", "details": err.Error()})
			return
		}

		session := &models.Session{
			UserID:                user.ID,
			SessionID:             sessionID,
			HostName:              c.Request.Host,
			IPAddress:             loginData.IP,
			Timestamp:             time.Now(),
			ExpiresAt:             time.Now().Add(sessionTTL),
			RefreshToken:          refreshToken,
			RefreshTokenExpiresAt: time.Now().Add(15 * 24 * time.Hour),
		}
		if session.IPAddress == "" {
			session.IPAddress = c.ClientIP()
		}

		// Multiple devices are allowed by default.
		if err := storage.SaveSession(db, session, true); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session", "details": err.Error()})
			return
		}

		_, _ = db.Exec(`UPDATE users SET last_access = NOW(), first_access = COALESCE(first_access, NOW()) WHERE id = $1`, user.ID)

		c.JSON(http.StatusOK, gin.H{
			"message":       "User successfully logged in",
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"session_id":    sessionID,
			"is_admin":      user.IsAdmin,
			"user": gin.H{
				"id":    user.ID,
				"email": user.Email,
			},
		})
	}
}

// RegisterHandler creates a new user account.
// @Summary Register user
// @Description Creates a new user account with a bcrypt-hashed password.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration data"
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/register [post]
func RegisterHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON input", "details": err.Error()})
			return
		}

		var exists bool
		if err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`, req.Email).Scan(&exists); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check email", "details": err.Error()})
			return
		}
		if exists {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
			return
		}

		hashed, err := utils.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password", "details": err.Error()})
			return
		}

		var user models.User
		query := `
			INSERT INTO users (email, password, full_name, phone, role_name, is_admin, suspended, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'user', FALSE, FALSE, NOW(), NOW())
			RETURNING id, email, full_name, created_at
		`
		if err := db.QueryRow(query, req.Email, hashed, req.FullName, req.Phone).Scan(
			&user.ID, &user.Email, &user.FullName, &user.CreatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, user)
	}
}

// RefreshTokenHandler exchanges a valid refresh token for a new access token.
// @Summary Refresh access token
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 200 {object} models.LoginResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/refresh_token [post]
func RefreshTokenHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			SessionID    string `json:"session_id" binding:"required"`
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		stored, err := storage.GetRefreshTokenBySession(db, body.SessionID)
		if err != nil || stored != body.RefreshToken {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}

		parsedToken, err := utils.ValidateJWT(body.RefreshToken)
		if err != nil || !parsedToken.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
			return
		}
		claims, ok := parsedToken.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims structure"})
			return
		}
		email, _ := claims["email"].(string)
		tokenType, _ := claims["type"].(string)
		if email == "" || tokenType != "refresh" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not a refresh token"})
			return
		}

		accessToken, err := utils.GenerateJWT(email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"access_token": accessToken})
	}
}

// LogoutHandler removes the caller's session and refresh token.
// @Summary Logout user
// @Tags Authentication
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/logout [post]
func LogoutHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			utils.ErrorResponse(c, "session-id header is required", http.StatusBadRequest)
			return
		}

		session, _, err := GetSessionDetails(db, sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session", "details": err.Error()})
			return
		}

		if err := storage.DeleteRefreshToken(db, sessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear refresh token", "details": err.Error()})
			return
		}
		if err := storage.DeleteSessionByID(db, sessionID, session.UserID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session", "details": err.Error()})
			return
		}

		utils.SuccessResponse(c, "Logged out successfully", http.StatusOK)
	}
}

// ValidateSessionHandler checks whether the Authorization session is valid
// and returns the attached user.
// @Summary Validate session
// @Tags Authentication
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /api/validate_session [get]
func ValidateSessionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session-id header is required"})
			return
		}

		user, err := storage.GetUserBySessionID(db, sessionID)
		if err != nil || user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		c.JSON(http.StatusOK, user)
	}
}
