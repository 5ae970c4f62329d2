package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleConsumer Role = "consumer"
	RoleHotel    Role = "hotel"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a persisted role value onto the closed Role set. An empty
// value is the implicit consumer default.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "", RoleConsumer:
		return RoleConsumer, nil
	case RoleHotel:
		return RoleHotel, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Capability names a guarded action.
type Capability int

const (
	CapManageEvents Capability = iota
	CapReviewBookings
	CapViewHotelStats
	CapCreateBooking
	CapProvisionHotels
	CapViewAnyHotel
)

func (c Capability) String() string {
	switch c {
	case CapManageEvents:
		return "manage events"
	case CapReviewBookings:
		return "review bookings"
	case CapViewHotelStats:
		return "view hotel stats"
	case CapCreateBooking:
		return "create bookings"
	case CapProvisionHotels:
		return "provision hotel accounts"
	case CapViewAnyHotel:
		return "view other hotels"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// Can reports whether the role grants c.
func (r Role) Can(c Capability) bool {
	switch r {
	case RoleConsumer:
		return c == CapCreateBooking
	case RoleHotel:
		switch c {
		case CapManageEvents, CapReviewBookings, CapViewHotelStats:
			return true
		}
		return false
	case RoleAdmin:
		switch c {
		case CapProvisionHotels, CapViewAnyHotel, CapViewHotelStats:
			return true
		}
		return false
	default:
		return false
	}
}

// Principal is the authenticated caller as seen by the services.
type Principal struct {
	ID    uuid.UUID
	Email string
	Role  Role
}

func (p Principal) IsAnonymous() bool {
	return p.ID == uuid.Nil
}

type ProfileStatus string

const (
	ProfileActive   ProfileStatus = "active"
	ProfileInactive ProfileStatus = "inactive"
)

type UserProfile struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	FullName        string        `db:"full_name" json:"full_name"`
	Email           string        `db:"email" json:"email"`
	PhoneNumber     string        `db:"phone_number" json:"phone_number"`
	Role            Role          `db:"role" json:"role"`
	Status          ProfileStatus `db:"status" json:"status"`
	ProfileImageURL string        `db:"profile_image_url" json:"profile_image_url,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// ProfilePatch carries the fields a user may change on their own profile.
// Role and status are not patchable.
type ProfilePatch struct {
	FullName        *string `json:"full_name,omitempty"`
	Email           *string `json:"email,omitempty"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
	ProfileImageURL *string `json:"profile_image_url,omitempty"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.FullName == nil && p.Email == nil && p.PhoneNumber == nil && p.ProfileImageURL == nil
}

// Columns renders the patch as a column map for a partial update.
func (p ProfilePatch) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if p.FullName != nil {
		cols["full_name"] = *p.FullName
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.PhoneNumber != nil {
		cols["phone_number"] = *p.PhoneNumber
	}
	if p.ProfileImageURL != nil {
		cols["profile_image_url"] = *p.ProfileImageURL
	}
	return cols
}

// Session is the token pair issued by the auth provider.
type Session struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresIn    int       `json:"expires_in"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
}

// AccountRequest is the sign-up form shared by consumer registration and
// admin provisioning of hotel accounts.
type AccountRequest struct {
	FullName        string `json:"full_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	PhoneNumber     string `json:"phone_number" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}
