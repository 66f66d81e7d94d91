package handlers

import (
	"backend/models"
	"backend/storage"
	"backend/utils"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

func googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

type googleUserInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleLoginHandler redirects the browser to Google's consent screen.
// @Summary Start Google sign-in
// @Tags Authentication
// @Success 307
// @Router /api/auth/google [get]
func GoogleLoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := uuid.New().String()
		c.SetCookie("oauth_state", state, 300, "/", "", false, true)
		url := googleOAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOnline)
		c.Redirect(http.StatusTemporaryRedirect, url)
	}
}

// GoogleCallbackHandler exchanges the authorization code, provisions the
// user on first sign-in and returns the same payload as LoginHandler.
// @Summary Google sign-in callback
// @Tags Authentication
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "State"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/auth/google/callback [get]
func GoogleCallbackHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := c.Query("state")
		cookieState, err := c.Cookie("oauth_state")
		if err != nil || state == "" || state != cookieState {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
			return
		}

		code := c.Query("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Authorization code is required"})
			return
		}

		conf := googleOAuthConfig()
		token, err := conf.Exchange(c.Request.Context(), code)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to exchange authorization code", "details": err.Error()})
			return
		}

		client := conf.Client(c.Request.Context(), token)
		resp, err := client.Get(googleUserInfoURL)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch Google profile", "details": err.Error()})
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to read Google profile", "details": err.Error()})
			return
		}

		var info googleUserInfo
		if err := json.Unmarshal(body, &info); err != nil || info.Email == "" {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Invalid Google profile response"})
			return
		}

		user, err := storage.GetUserByEmail(db, info.Email)
		if err != nil {
			// First Google sign-in provisions the account with an unusable
			// random password, so password login stays disabled for it.
			hashed, hashErr := utils.HashPassword(uuid.New().String())
			if hashErr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to provision user", "details": hashErr.Error()})
				return
			}
			query := `
				INSERT INTO users (email, password, full_name, profile_picture, role_name, is_admin, suspended, created_at, updated_at)
				VALUES ($1, $2, $3, $4, 'user', FALSE, FALSE, NOW(), NOW())
				RETURNING id
			`
			var newID int
			if err := db.QueryRow(query, info.Email, hashed, info.Name, info.Picture).Scan(&newID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "details": err.Error()})
				return
			}
			user = &models.User{ID: newID, Email: info.Email, FullName: info.Name}
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
			IPAddress:             c.ClientIP(),
			Timestamp:             time.Now(),
			ExpiresAt:             time.Now().Add(sessionTTL),
			RefreshToken:          refreshToken,
			RefreshTokenExpiresAt: time.Now().Add(15 * 24 * time.Hour),
		}
		if err := storage.SaveSession(db, session, true); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":       "User successfully logged in via Google",
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
