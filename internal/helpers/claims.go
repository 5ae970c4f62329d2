package helpers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/models"
)

// EnhancedClaims is the verified token joined with the caller's resolved
// role. Middleware stores it under the "user" context key.
type EnhancedClaims struct {
	*CustomClaims
	UserID      uuid.UUID   `json:"id"`
	Email       string      `json:"email,omitempty"`
	Role        models.Role `json:"role"`
	AccessToken string      `json:"-"`
}

func (ec *EnhancedClaims) Principal() models.Principal {
	if ec == nil {
		return models.Principal{}
	}
	return models.Principal{ID: ec.UserID, Email: ec.Email, Role: ec.Role}
}

func (ec *EnhancedClaims) HasRole(role models.Role) bool {
	return ec.Role == role
}

// ClaimsKey is the gin context key the auth middleware stores claims under.
const ClaimsKey = "user"

// CurrentClaims returns the caller's claims, or nil for anonymous requests.
func CurrentClaims(c *gin.Context) *EnhancedClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*EnhancedClaims)
	return claims
}

// CurrentPrincipal is the zero Principal for anonymous requests.
func CurrentPrincipal(c *gin.Context) models.Principal {
	return CurrentClaims(c).Principal()
}
