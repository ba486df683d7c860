package user

import (
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/finance-tracker/internal"
	userDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/user"
)

var ErrUserNotFound = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)

type RepositoryAPI interface {
	GetByID(id int64) (*userDatamodel.User, error)
	GetByEmail(email string) (*userDatamodel.User, error)
	Create(u *userDatamodel.User) error
	Update(u *userDatamodel.User) error
	UpdateLastLogin(id int64) error
}

type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) GetByID(userID int64) (*User, error) {
	row, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to get user", err)
	}
	if row == nil {
		return nil, ErrUserNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) GetProfile(userID int64) (*UserResponse, error) {
	u, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}
	resp := u.ToResponse()
	return &resp, nil
}

func (s *Service) UpdatePreferences(userID int64, dto UpdatePreferencesDTO) (*UserResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	u, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	u.CalendarPreference = dto.CalendarPreference
	if err := s.repo.Update(ToDataModel(u)); err != nil {
		s.logger.Error("failed to update preferences", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to update preferences", err)
	}

	s.logger.Info("calendar preference updated", "user_id", userID, "preference", u.CalendarPreference)
	resp := u.ToResponse()
	return &resp, nil
}

// EnsureUser creates the account unless one with the same email already exists.
func (s *Service) EnsureUser(dto CreateUserDTO) (*User, bool, error) {
	if err := dto.Validate(); err != nil {
		return nil, false, err
	}
	email := strings.ToLower(strings.TrimSpace(dto.Email))

	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, false, internal.NewInternalError("failed to look up user", err)
	}
	if existing != nil {
		return FromDataModel(existing), false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, false, internal.NewInternalError("failed to hash password", err)
	}

	row := &userDatamodel.User{
		Email:              email,
		Name:               strings.TrimSpace(dto.Name),
		PasswordHash:       string(hash),
		Role:               dto.Role,
		CalendarPreference: CalendarBoth,
		IsActive:           true,
	}
	if err := s.repo.Create(row); err != nil {
		s.logger.Error("failed to create user", "email", email, "error", err)
		return nil, false, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", row.ID, "role", row.Role)
	return FromDataModel(row), true, nil
}
