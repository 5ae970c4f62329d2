package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/golang-jwt/jwt/v5"
)

const (
	AvatarFolder = "avatars"
	EventsFolder = "events"
)

var ErrTokenExpired = errors.New("token expired")

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// TokenValidator verifies access tokens against the auth provider's signing
// keys. The key set is fetched once and refreshed in the background.
type TokenValidator struct {
	keyfunc jwt.Keyfunc
	jwks    *keyfunc.JWKS
}

func NewTokenValidator(ctx context.Context, supabaseURL string, logger *slog.Logger) (*TokenValidator, error) {
	if supabaseURL == "" {
		return nil, errors.New("SUPABASE_URL not set")
	}
	jwksURL := fmt.Sprintf("%s/auth/v1/.well-known/jwks.json", strings.TrimRight(supabaseURL, "/"))

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			if logger != nil {
				logger.Warn("failed to refresh JWKS", "error", err)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	return &TokenValidator{keyfunc: jwks.Keyfunc, jwks: jwks}, nil
}

// NewKeyfuncValidator builds a validator around a fixed key lookup.
func NewKeyfuncValidator(kf jwt.Keyfunc) *TokenValidator {
	return &TokenValidator{keyfunc: kf}
}

func (tv *TokenValidator) Validate(tokenStr string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, tv.keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	return claims, nil
}

// Close stops the background key refresh.
func (tv *TokenValidator) Close() {
	if tv.jwks != nil {
		tv.jwks.EndBackground()
	}
}

var (
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasNumber  = regexp.MustCompile(`\d`)
	hasSpecial = regexp.MustCompile(`[@$!%*?&#^()\-_=+.]`)
)

func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	return hasLower.MatchString(password) &&
		hasUpper.MatchString(password) &&
		hasNumber.MatchString(password) &&
		hasSpecial.MatchString(password)
}

// StringTrim trims every non-nil pointer in place.
func StringTrim(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// IsRemoteURL reports whether s already points at an http(s) resource.
func IsRemoteURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// IsImageDataURI reports whether s carries an inline base64 image.
func IsImageDataURI(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "data:image/") && strings.Contains(lower, ";base64,")
}

var ErrUnsupportedImageRef = errors.New("image reference must be an http(s) URL or an image data URI")

// UploadImage uploads an io.Reader, remote URL or image data URI and returns
// the delivery URL. Other strings are refused so they are never opened as
// server-side paths.
func UploadImage(ctx context.Context, cld *cloudinary.Cloudinary, file interface{}, folder string) (string, error) {
	if cld == nil {
		return "", errors.New("cloudinary client is not initialized")
	}
	if s, ok := file.(string); ok && !IsRemoteURL(s) && !IsImageDataURI(s) {
		return "", ErrUnsupportedImageRef
	}

	uploadResult, err := cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		Tags:         []string{"eventhub"},
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("failed to upload image: %s", uploadResult.Error.Message)
	}
	if uploadResult.SecureURL == "" {
		return "", errors.New("upload returned no url")
	}
	return uploadResult.SecureURL, nil
}
