package middleware

import (
	"errors"
	"net/http"
	"strings"

	"dream/config"
	"dream/internal/auth"
	"dream/internal/domain"
	"dream/internal/models"
	"dream/internal/repository"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer access token and sets user_id in context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, domain.ErrTokenExpired) {
				msg = "token expired"
			} else if errors.Is(err, domain.ErrTokenTypeMismatch) {
				msg = "wrong token type"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Set("user_id", claims.UserID)
		c.Next()
	}
}

// ActiveUserRequired loads the user and rejects disabled accounts. Must run
// after AuthRequired.
func ActiveUserRequired(userRepo *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := userRepo.GetByID(GetUserID(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		if !u.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}
		c.Set("user", u)
		c.Next()
	}
}

// SuperuserRequired rejects non-superusers. Must run after ActiveUserRequired.
func SuperuserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := GetUser(c)
		if u == nil || !u.IsSuperuser {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "superuser required"})
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user ID from context.
func GetUserID(c *gin.Context) uint {
	v, _ := c.Get("user_id")
	if v == nil {
		return 0
	}
	return v.(uint)
}

// GetUser returns the loaded user set by ActiveUserRequired, or nil.
func GetUser(c *gin.Context) *models.User {
	v, _ := c.Get("user")
	if v == nil {
		return nil
	}
	return v.(*models.User)
}
