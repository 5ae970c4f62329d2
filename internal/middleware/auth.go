package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
)

type TokenValidator interface {
	Validate(token string) (*helpers.CustomClaims, error)
}

// Resolver maps a verified identity to a principal and renews sessions.
// *services.UserService implements it.
type Resolver interface {
	Resolve(ctx context.Context, userId uuid.UUID, email string) (models.Principal, error)
	Refresh(ctx context.Context, refreshToken string) (*models.Session, error)
}

type AuthConfig struct {
	Validator    TokenValidator
	Users        Resolver
	SecureCookie bool
	Logger       *slog.Logger
}

var errNoToken = errors.New("no access token provided")

// requestToken prefers the Authorization header over the cookie.
func requestToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	token, err := c.Cookie(helpers.AccessTokenCookie)
	if err != nil {
		return ""
	}
	return token
}

func authenticate(c *gin.Context, cfg AuthConfig) (*helpers.EnhancedClaims, error) {
	token := requestToken(c)
	if token == "" {
		return nil, errNoToken
	}

	claims, err := cfg.Validator.Validate(token)
	if errors.Is(err, helpers.ErrTokenExpired) {
		refreshToken, cookieErr := c.Cookie(helpers.RefreshTokenCookie)
		if cookieErr != nil || refreshToken == "" {
			return nil, err
		}
		session, refreshErr := cfg.Users.Refresh(c.Request.Context(), refreshToken)
		if refreshErr != nil {
			return nil, refreshErr
		}
		helpers.SetSessionCookies(c, session, cfg.SecureCookie)
		cfg.Logger.Info("Token refreshed successfully", "user_id", session.UserID, "expires_in", session.ExpiresIn)

		token = session.AccessToken
		claims, err = cfg.Validator.Validate(token)
	}
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.New("invalid user ID in token")
	}
	p, err := cfg.Users.Resolve(c.Request.Context(), userID, claims.Email)
	if err != nil {
		return nil, err
	}

	return &helpers.EnhancedClaims{
		CustomClaims: claims,
		UserID:       p.ID,
		Email:        p.Email,
		Role:         p.Role,
		AccessToken:  token,
	}, nil
}

func rejectAuth(c *gin.Context, err error) {
	var aerr *models.AuthorizationError
	if errors.As(err, &aerr) {
		c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse(aerr.Error()))
		return
	}
	resp := models.ErrorResponse("Unauthorized access")
	resp.Message = err.Error()
	c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
}

// attach stores claims on the gin context and the caller's token on the
// request context for repositories that query as the user.
func attach(c *gin.Context, claims *helpers.EnhancedClaims) {
	c.Set(helpers.ClaimsKey, claims)
	c.Request = c.Request.WithContext(models.WithAccessToken(c.Request.Context(), claims.AccessToken))
}

// AuthMiddleware requires a valid session and stores the caller's claims
// under helpers.ClaimsKey.
func AuthMiddleware(cfg AuthConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return func(c *gin.Context) {
		claims, err := authenticate(c, cfg)
		if err != nil {
			cfg.Logger.Debug("authentication failed", "error", err, "path", c.Request.URL.Path)
			rejectAuth(c, err)
			return
		}
		attach(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid session is present and lets
// anonymous requests through otherwise.
func OptionalAuth(cfg AuthConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return func(c *gin.Context) {
		claims, err := authenticate(c, cfg)
		if err == nil {
			attach(c, claims)
		} else if !errors.Is(err, errNoToken) {
			cfg.Logger.Debug("ignoring invalid session", "error", err)
		}
		c.Next()
	}
}
