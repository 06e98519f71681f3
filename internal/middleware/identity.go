package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/glowora/glowora-api/internal/auth"
	"github.com/glowora/glowora-api/internal/session"
	"github.com/google/uuid"
)

// GuestCookieName is the HTTP-only cookie holding the anonymous cart token.
const GuestCookieName = "glowora_guest"

const guestCookieMaxAge = 60 * 60 * 24 * 30 // 30 days

// ResolveIdentity resolves the cart-owning identity for routes that serve
// both guests and signed-in users (the cart endpoints).
//
// A valid Bearer token wins; otherwise the guest cookie is used, and a new
// guest token is minted and set when none is present. The resolved identity
// is stored once on the context and handlers read it from there.
func ResolveIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				if userID, err := auth.ValidateToken(parts[1]); err == nil {
					c.Set("userID", userID)
					c.Set("identity", session.User(userID))
					c.Next()
					return
				}
			}
			// An invalid token on a guest-capable route degrades to guest
			// rather than rejecting the request.
		}

		token, err := c.Cookie(GuestCookieName)
		if err != nil || token == "" {
			token = uuid.NewString()
			c.SetCookie(GuestCookieName, token, guestCookieMaxAge, "/", "", false, true)
		}

		c.Set("identity", session.Guest(token))
		c.Next()
	}
}

// IdentityFrom extracts the identity stored by ResolveIdentity or
// RequireUser.
func IdentityFrom(c *gin.Context) (session.Identity, bool) {
	raw, exists := c.Get("identity")
	if !exists {
		return session.Identity{}, false
	}
	id, ok := raw.(session.Identity)
	return id, ok
}
