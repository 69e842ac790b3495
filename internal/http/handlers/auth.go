package handlers

import (
	"net/http"
	"time"

	"taxibot/internal/http/middleware"
	"taxibot/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login exchanges the operator password for an admin token.
// POST /api/auth/login
func Login(passwordHash string, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !BindJSONOrError(c, &req) {
			return
		}
		if passwordHash == "" || len(secret) == 0 {
			RespondError(c, http.StatusServiceUnavailable, "admin login is not configured", nil)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
			utils.LogEvent(middleware.GetRequestID(c), "auth", "login", "rejected")
			RespondError(c, http.StatusUnauthorized, "invalid password", nil)
			return
		}

		now := time.Now()
		token, err := middleware.IssueToken(secret, "admin", middleware.RoleAdmin, now)
		if err != nil {
			RespondError(c, http.StatusInternalServerError, "failed to issue token", nil)
			return
		}
		utils.LogEvent(middleware.GetRequestID(c), "auth", "login", "ok")
		c.JSON(http.StatusOK, gin.H{
			"token":      token,
			"role":       middleware.RoleAdmin,
			"expires_at": now.Add(middleware.TokenTTL).UTC().Format(time.RFC3339),
		})
	}
}
