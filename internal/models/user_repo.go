package models

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
)

const profileColumns = "id,full_name,email,phone_number,role,status,profile_image_url,created_at,updated_at"

// ProfileRepo persists UserProfile records in the users table.
type ProfileRepo interface {
	CreateProfile(ctx context.Context, profile *UserProfile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*UserProfile, error)
	GetProfileByEmail(ctx context.Context, email string) (*UserProfile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch, updatedAt time.Time) (*UserProfile, error)
	ListProfilesByRole(ctx context.Context, role Role) ([]*UserProfile, error)
}

// AuthProvider owns credentials. The identity it returns becomes UserProfile.ID.
type AuthProvider interface {
	CreateAccount(ctx context.Context, email, password string) (uuid.UUID, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

func decodeProfiles(raw []byte) ([]*UserProfile, error) {
	var profiles []*UserProfile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user rows: %w", err)
	}
	return profiles, nil
}

func (su *SupabaseRepo) CreateProfile(ctx context.Context, profile *UserProfile) error {
	row := map[string]interface{}{
		"id":                profile.ID.String(),
		"full_name":         profile.FullName,
		"email":             profile.Email,
		"phone_number":      profile.PhoneNumber,
		"role":              profile.Role,
		"status":            profile.Status,
		"profile_image_url": profile.ProfileImageURL,
		"created_at":        profile.CreatedAt,
		"updated_at":        profile.UpdatedAt,
	}

	_, _, err := su.supabaseClient.From(ProfileTable).
		Insert(row, false, "", "minimal", "").
		Execute()
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique constraint") {
			return &ConflictError{Field: "email", Value: profile.Email}
		}
		return fmt.Errorf("failed to create user profile: %w", err)
	}
	return nil
}

func (su *SupabaseRepo) GetProfile(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}
	client, err := su.callerClient(ctx)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(ProfileTable).
		Select(profileColumns, "", false).
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	profiles, err := decodeProfiles(raw)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, &NotFoundError{Resource: "user", ID: id.String()}
	}
	if len(profiles) > 1 {
		return nil, fmt.Errorf("multiple users found for ID %s", id)
	}
	return profiles[0], nil
}

func (su *SupabaseRepo) GetProfileByEmail(ctx context.Context, email string) (*UserProfile, error) {
	raw, _, err := su.supabaseClient.From(ProfileTable).
		Select(profileColumns, "", false).
		Eq("email", email).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	profiles, err := decodeProfiles(raw)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, &NotFoundError{Resource: "user", ID: email}
	}
	return profiles[0], nil
}

func (su *SupabaseRepo) UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch, updatedAt time.Time) (*UserProfile, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("invalid UUID")
	}

	cols := patch.Columns()
	if len(cols) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	cols["updated_at"] = updatedAt
	client, err := su.callerClient(ctx)
	if err != nil {
		return nil, err
	}

	raw, _, err := client.From(ProfileTable).
		Update(cols, "representation", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") && patch.Email != nil {
			return nil, &ConflictError{Field: "email", Value: *patch.Email}
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	profiles, err := decodeProfiles(raw)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, &NotFoundError{Resource: "user", ID: id.String()}
	}
	return profiles[0], nil
}

func (su *SupabaseRepo) ListProfilesByRole(ctx context.Context, role Role) ([]*UserProfile, error) {
	raw, _, err := su.supabaseClient.From(ProfileTable).
		Select(profileColumns, "", false).
		Eq("role", string(role)).
		Order("created_at", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return decodeProfiles(raw)
}

func sessionFromToken(res *types.TokenResponse) *Session {
	return &Session{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
		UserID:       res.User.ID,
		Email:        res.User.Email,
	}
}

func (su *SupabaseRepo) CreateAccount(ctx context.Context, email, password string) (uuid.UUID, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "already registered") || strings.Contains(msg, "already been registered") {
			return uuid.Nil, &ConflictError{Field: "email", Value: email}
		}
		if strings.Contains(msg, "password") {
			return uuid.Nil, NewValidationError("password", "rejected by auth provider")
		}
		return uuid.Nil, fmt.Errorf("failed to create account: %w", err)
	}
	if res.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("auth provider returned no user id")
	}
	return res.ID, nil
}

func (su *SupabaseRepo) SignIn(ctx context.Context, email, password string) (*Session, error) {
	res, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}
	return sessionFromToken(res), nil
}

func (su *SupabaseRepo) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	res, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return sessionFromToken(res), nil
}

func (su *SupabaseRepo) SignOut(ctx context.Context, accessToken string) error {
	if err := su.supabaseClient.Auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}
