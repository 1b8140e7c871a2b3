package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/backoffice-service/internal/authz"
	"github.com/psds-microservice/backoffice-service/internal/errs"
	"github.com/psds-microservice/backoffice-service/internal/model"
	"github.com/psds-microservice/backoffice-service/internal/session"
)

const principalKey = "principal"

// TokenVerifier is satisfied by *session.Issuer.
type TokenVerifier interface {
	Verify(token string) (model.Principal, error)
}

// Session resolves the cookie token into a principal. Requests without a valid
// session are rejected with 401 before reaching the handler.
func Session(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(session.CookieName)
		if err != nil || token == "" {
			abortUnauthorized(c)
			return
		}
		p, err := v.Verify(token)
		if err != nil {
			abortUnauthorized(c)
			return
		}
		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(session.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// Principal returns the identity resolved by Session.
func Principal(c *gin.Context) (model.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return session.FromContext(c.Request.Context())
	}
	p, ok := v.(model.Principal)
	return p, ok
}

// Require gates a route group on an ownership-free action (AdminOnly, ClientOnly).
func Require(action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := Principal(c)
		if err := authz.Authorize(p, action, ""); err != nil {
			if errors.Is(err, errs.ErrUnauthenticated) {
				abortUnauthorized(c)
				return
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc { return Require(authz.AdminOnly) }

func RequireClient() gin.HandlerFunc { return Require(authz.ClientOnly) }

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}
