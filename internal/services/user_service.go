package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
)

type UserService struct {
	profileRepo models.ProfileRepo
	auth        models.AuthProvider
	media       MediaResolver
	rt          Runtime
}

func NewUserService(profileRepo models.ProfileRepo, auth models.AuthProvider, media MediaResolver, rt Runtime) *UserService {
	return &UserService{
		profileRepo: profileRepo,
		auth:        auth,
		media:       media,
		rt:          rt.withDefaults(),
	}
}

// Register creates a consumer account.
func (us *UserService) Register(ctx context.Context, req models.AccountRequest) (*models.UserProfile, error) {
	return us.createAccount(ctx, req, models.RoleConsumer)
}

// ProvisionHotelAccount creates a hotel operator account on behalf of an admin.
func (us *UserService) ProvisionHotelAccount(ctx context.Context, p models.Principal, req models.AccountRequest) (*models.UserProfile, error) {
	if err := authorize(p, models.CapProvisionHotels); err != nil {
		return nil, err
	}
	profile, err := us.createAccount(ctx, req, models.RoleHotel)
	if err != nil {
		return nil, err
	}
	us.rt.Logger.Info("hotel account provisioned", "hotel_id", profile.ID, "admin_id", p.ID)
	return profile, nil
}

func (us *UserService) createAccount(ctx context.Context, req models.AccountRequest, role models.Role) (*models.UserProfile, error) {
	helpers.StringTrim(&req.FullName, &req.Email, &req.PhoneNumber)
	req.Email = strings.ToLower(req.Email)
	if err := models.ValidateStruct(req); err != nil {
		return nil, err
	}
	if !helpers.IsPasswordStrong(req.Password) {
		return nil, models.NewValidationError("password", "must be at least 8 characters with upper and lower case letters, a number and a special character")
	}

	_, err := us.profileRepo.GetProfileByEmail(ctx, req.Email)
	if err == nil {
		return nil, &models.ConflictError{Field: "email", Value: req.Email}
	}
	var nf *models.NotFoundError
	if !errors.As(err, &nf) {
		return nil, err
	}

	id, err := us.auth.CreateAccount(ctx, req.Email, req.Password)
	var conflict *models.ConflictError
	if errors.As(err, &conflict) {
		// A credential without a profile is left behind when a previous
		// attempt failed after creating the account. Proving the password
		// lets this attempt finish it.
		id, err = us.orphanedAccount(ctx, req.Email, req.Password)
		if err != nil {
			return nil, conflict
		}
	} else if err != nil {
		return nil, err
	}

	now := us.rt.Now()
	profile := &models.UserProfile{
		ID:          id,
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Role:        role,
		Status:      models.ProfileActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := us.profileRepo.CreateProfile(ctx, profile); err != nil {
		us.rt.Logger.Error("auth account created without profile",
			"user_id", id, "email", req.Email, "role", role, "error", err)
		return nil, err
	}
	return profile, nil
}

// orphanedAccount returns the id of an existing credential for email when
// password matches it. The session opened to prove it is revoked.
func (us *UserService) orphanedAccount(ctx context.Context, email, password string) (uuid.UUID, error) {
	session, err := us.auth.SignIn(ctx, email, password)
	if err != nil {
		return uuid.Nil, err
	}
	if err := us.auth.SignOut(ctx, session.AccessToken); err != nil {
		us.rt.Logger.Warn("failed to revoke recovery session", "user_id", session.UserID, "error", err)
	}
	us.rt.Logger.Warn("completing profile for existing auth account", "user_id", session.UserID, "email", email)
	return session.UserID, nil
}

var errBadCredentials = &models.AuthorizationError{Action: "sign in", Reason: "invalid email or password"}

func (us *UserService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, models.NewValidationError("email", "must be a valid email address")
	}
	if password == "" {
		return nil, models.NewValidationError("password", "is required")
	}

	session, err := us.auth.SignIn(ctx, email, password)
	if err != nil {
		us.rt.Logger.Info("sign in rejected", "email", email, "error", err)
		return nil, errBadCredentials
	}
	return session, nil
}

func (us *UserService) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	if refreshToken == "" {
		return nil, models.NewValidationError("refresh_token", "is required")
	}
	session, err := us.auth.RefreshSession(ctx, refreshToken)
	if err != nil {
		us.rt.Logger.Info("token refresh rejected", "error", err)
		return nil, &models.AuthorizationError{Action: "refresh session", Reason: "refresh token is invalid or expired"}
	}
	return session, nil
}

func (us *UserService) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return us.auth.SignOut(ctx, accessToken)
}

// Resolve maps an authenticated identity onto a principal. A missing
// profile is a consumer; an unreadable role denies access.
func (us *UserService) Resolve(ctx context.Context, userId uuid.UUID, email string) (models.Principal, error) {
	if userId == uuid.Nil {
		return models.Principal{}, &models.AuthorizationError{Action: "resolve identity", Reason: "no user id"}
	}

	profile, err := us.profileRepo.GetProfile(ctx, userId)
	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		return models.Principal{ID: userId, Email: email, Role: models.RoleConsumer}, nil
	}
	if err != nil {
		return models.Principal{}, err
	}

	role, err := models.ParseRole(string(profile.Role))
	if err != nil {
		us.rt.Logger.Warn("profile has unknown role", "user_id", userId, "role", profile.Role)
		return models.Principal{}, &models.AuthorizationError{Action: "resolve identity", Reason: "unknown role"}
	}
	if profile.Status == models.ProfileInactive {
		return models.Principal{}, &models.AuthorizationError{Action: "use this account", Reason: "account is inactive"}
	}
	if profile.Email != "" {
		email = profile.Email
	}
	return models.Principal{ID: userId, Email: email, Role: role}, nil
}

func (us *UserService) GetProfile(ctx context.Context, p models.Principal) (*models.UserProfile, error) {
	if p.IsAnonymous() {
		return nil, &models.AuthorizationError{Action: "view profile", Reason: "sign in required"}
	}
	return us.profileRepo.GetProfile(ctx, p.ID)
}

// UpdateProfile patches the caller's own profile.
func (us *UserService) UpdateProfile(ctx context.Context, p models.Principal, patch models.ProfilePatch) (*models.UserProfile, error) {
	if p.IsAnonymous() {
		return nil, &models.AuthorizationError{Action: "update profile", Reason: "sign in required"}
	}
	if patch.IsEmpty() {
		return nil, models.NewValidationError("patch", "no fields to update")
	}
	helpers.StringTrim(patch.FullName, patch.Email, patch.PhoneNumber, patch.ProfileImageURL)

	fields := []struct {
		name  string
		value *string
	}{
		{"full_name", patch.FullName},
		{"email", patch.Email},
		{"phone_number", patch.PhoneNumber},
		{"profile_image_url", patch.ProfileImageURL},
	}
	for _, f := range fields {
		if f.value != nil && *f.value == "" {
			return nil, models.NewValidationError(f.name, "cannot be blank")
		}
	}
	if patch.Email != nil {
		lower := strings.ToLower(*patch.Email)
		if err := models.Validate.Var(lower, "email"); err != nil {
			return nil, models.NewValidationError("email", "must be a valid email address")
		}
		patch.Email = &lower
	}
	if patch.ProfileImageURL != nil {
		url, err := resolveImage(ctx, us.media, "profile_image_url", *patch.ProfileImageURL, helpers.AvatarFolder)
		if err != nil {
			return nil, err
		}
		patch.ProfileImageURL = &url
	}

	return us.profileRepo.UpdateProfile(ctx, p.ID, patch, us.rt.Now())
}

func (us *UserService) ListHotels(ctx context.Context, p models.Principal) ([]*models.UserProfile, error) {
	if err := authorize(p, models.CapProvisionHotels); err != nil {
		return nil, err
	}
	return us.profileRepo.ListProfilesByRole(ctx, models.RoleHotel)
}
