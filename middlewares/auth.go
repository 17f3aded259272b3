package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"nexura/utils"
)

// Context keys set by the auth middlewares
const (
	ContextID     = "id"
	ContextStatus = "status"
)

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Authenticate requires an access token issued to the given principal kind
func Authenticate(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization token"})
			return
		}

		claims, err := utils.ParseJWTToken(token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, utils.ErrTokenExpired) {
				msg = "Token has expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		if claims.Status != kind {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized for this resource"})
			return
		}

		c.Set(ContextID, claims.ID)
		c.Set(ContextStatus, claims.Status)
		c.Next()
	}
}

// AuthenticateOptional identifies a user when a valid user token is present
// and lets anonymous requests through otherwise
func AuthenticateOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := utils.ParseJWTToken(token); err == nil && claims.Status == utils.PrincipalUser {
				c.Set(ContextID, claims.ID)
				c.Set(ContextStatus, claims.Status)
			}
		}
		c.Next()
	}
}
