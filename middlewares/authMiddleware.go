package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"civicreport-be/services"
	authUtils "civicreport-be/utils"

	"github.com/gin-gonic/gin"
)

const (
	principalKey = "principal"
	AuthCookie   = "auth_token"
)

// IdentityResolver turns a token subject into a Principal.
type IdentityResolver interface {
	Resolve(ctx context.Context, identity string) (services.Principal, error)
}

// AuthMiddleware validates the bearer token, resolves the principal once and
// stores it on the context. The auth cookie is only honoured on safe methods;
// state-changing requests must carry the Authorization header.
func AuthMiddleware(secret string, resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			c.Abort()
			return
		}

		identity, err := authUtils.ParseToken(secret, tokenString)
		if err != nil {
			slog.Debug("token validation failed", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			c.Abort()
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), identity)
		if err != nil {
			status, message := services.Describe(err)
			c.JSON(status, gin.H{"error": message})
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.Request.Header.Get("Authorization")
	if authHeader != "" {
		if rest, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(rest)
		}
		return strings.TrimSpace(authHeader)
	}
	if !safeMethod(c.Request.Method) {
		return ""
	}
	if cookie, err := c.Cookie(AuthCookie); err == nil {
		return cookie
	}
	return ""
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// CurrentPrincipal returns the principal stored by AuthMiddleware.
func CurrentPrincipal(c *gin.Context) (services.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return services.Principal{}, false
	}
	p, ok := v.(services.Principal)
	return p, ok
}

// RequireAdmin lets through principals holding the ADMIN capability.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}
		if !p.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
