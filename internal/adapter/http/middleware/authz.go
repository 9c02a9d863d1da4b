package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/Galleee2002/fueradecontexto-api/configs"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "auth.userID"
	ctxEmail  = "auth.email"
	ctxPerms  = "auth.perms"
)

type Authz struct {
	cfg configs.Config
}

func NewAuthz(cfg configs.Config) *Authz {
	return &Authz{cfg: cfg}
}

// Require checks the bearer JWT and ensures all required permissions are
// present; on success the subject and email claims are stored on the gin
// context for handlers.
func (a *Authz) Require(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(a.cfg.Security.JWTSecret), nil
		}, jwt.WithLeeway(30*time.Second)) // small clock skew

		if err != nil || !token.Valid {
			unauth(c, "invalid_token", "invalid jwt")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauth(c, "invalid_token", "claims parsing error")
			return
		}

		if claims["iss"] != a.cfg.Security.Issuer || claims["aud"] != a.cfg.Security.Audience {
			unauth(c, "invalid_token", "iss/aud mismatch")
			return
		}

		perms := extractPerms(claims)
		if !hasAll(perms, requiredPerms) {
			forbidden(c, "insufficient_scope", "missing required permissions")
			return
		}

		if sub, ok := claims["sub"].(string); ok {
			c.Set(ctxUserID, sub)
		}
		if email, ok := claims["email"].(string); ok {
			c.Set(ctxEmail, email)
		}
		c.Set(ctxPerms, perms)

		c.Next()
	}
}

// UserID returns the authenticated subject, empty when unauthenticated.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// Email returns the authenticated user's email claim.
func Email(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// HasPerm reports whether the request's token carries the permission.
func HasPerm(c *gin.Context, perm string) bool {
	if v, ok := c.Get(ctxPerms); ok {
		if perms, ok := v.(map[string]struct{}); ok {
			_, has := perms[perm]
			return has
		}
	}
	return false
}

func extractPerms(claims jwt.MapClaims) map[string]struct{} {
	out := map[string]struct{}{}
	if arr, ok := claims["perms"].([]any); ok {
		for _, v := range arr {
			if s, ok := v.(string); ok && s != "" {
				out[s] = struct{}{}
			}
		}
	}
	return out
}

func hasAll(have map[string]struct{}, req []string) bool {
	for _, r := range req {
		if _, ok := have[r]; !ok {
			return false
		}
	}
	return true
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}

func forbidden(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": code, "error_description": desc})
}
