package user

import (
	"strings"
	"time"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/core/common/validation"
)

const minPasswordLength = 8

type UserResponse struct {
	ID                 int64      `json:"id"`
	Email              string     `json:"email"`
	Name               string     `json:"name"`
	Role               string     `json:"role"`
	Permissions        []string   `json:"permissions"`
	CalendarPreference string     `json:"calendar_preference"`
	IsActive           bool       `json:"is_active"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type UpdatePreferencesDTO struct {
	CalendarPreference string `json:"calendar_preference"`
}

func (d UpdatePreferencesDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("calendar_preference", d.CalendarPreference).
		Required().
		OneOf(internal.ErrCodeInvalidPreference, CalendarBoth, CalendarGregorian, CalendarBadi)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// CreateUserDTO is used by seeding; there is no public sign-up.
type CreateUserDTO struct {
	Email    string
	Name     string
	Password string
	Role     string
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().MaxLength(255)
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("password", d.Password).Required().MinLength(minPasswordLength)
	if err := v.Validate(); err != nil {
		return err
	}
	if !strings.Contains(d.Email, "@") {
		return internal.NewValidationFieldError("email", "email is invalid", internal.ErrCodeValidationFailed)
	}
	if !IsRole(d.Role) {
		return internal.NewValidationFieldError("role", "role must be superuser, standard or viewer", internal.ErrCodeValidationFailed)
	}
	return nil
}
