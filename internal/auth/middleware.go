package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"treinopp/internal/api"
	"treinopp/internal/apperr"
)

const (
	ctxUserID   = "user_id"
	ctxTenantID = "tenant_id"
	ctxEmail    = "user_email"
	ctxRole     = "user_role"
)

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, apperr.ErrUnauthorized, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			abort(c, apperr.ErrUnauthorized, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			abort(c, apperr.ErrUnauthorized, "Token is empty")
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				abort(c, apperr.ErrUnauthorized, "Token expired")
			case errors.Is(err, ErrMissingTenant):
				abort(c, apperr.ErrUnauthorized, "Token is not bound to a tenant")
			default:
				abort(c, apperr.ErrUnauthorized, "Invalid or malformed token")
			}
			return
		}

		if claims.TokenType != "access" {
			abort(c, apperr.ErrUnauthorized, "Access token required")
			return
		}

		SetIdentity(c, Identity{
			UserID:   claims.UserID,
			TenantID: claims.TenantID,
			Email:    claims.Email,
			Role:     claims.Role,
		})

		c.Next()
	}
}

// RequireRole lets the request through when the caller holds any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ctxRole)
		if !exists {
			abort(c, apperr.ErrUnauthorized, "User role not found")
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			abort(c, apperr.ErrUnauthorized, "Invalid role type")
			return
		}

		for _, r := range roles {
			if roleStr == r {
				c.Next()
				return
			}
		}

		abort(c, apperr.ErrForbidden, "Insufficient permissions")
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	return getString(c, ctxUserID)
}

func GetTenantID(c *gin.Context) (string, bool) {
	return getString(c, ctxTenantID)
}

// GetIdentity returns the caller identity stored by AuthMiddleware.
func GetIdentity(c *gin.Context) (Identity, bool) {
	userID, ok := GetUserID(c)
	if !ok {
		return Identity{}, false
	}
	tenantID, ok := GetTenantID(c)
	if !ok {
		return Identity{}, false
	}
	email, _ := getString(c, ctxEmail)
	role, _ := getString(c, ctxRole)

	return Identity{UserID: userID, TenantID: tenantID, Email: email, Role: role}, true
}

// SetIdentity stores id the way AuthMiddleware does.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(ctxUserID, id.UserID)
	c.Set(ctxTenantID, id.TenantID)
	c.Set(ctxEmail, id.Email)
	c.Set(ctxRole, id.Role)
}

func abort(c *gin.Context, kind *apperr.Error, message string) {
	c.Abort()
	api.RespondError(c, apperr.WithMessage(kind, message))
}

func getString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}

	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}

	return s, true
}
