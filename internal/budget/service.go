package budget

import (
	"log/slog"

	"github.com/frahmantamala/finance-tracker/internal"
	budgetDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/budget"
)

var (
	ErrBudgetNotFound   = internal.NewNotFoundError("budget not found", internal.ErrCodeBudgetNotFound)
	ErrCategoryNotFound = internal.NewNotFoundError("category not found", internal.ErrCodeCategoryNotFound)
)

type RepositoryAPI interface {
	List(userID int64, filter ListFilter) ([]*budgetDatamodel.Budget, error)
	GetByID(id int64) (*budgetDatamodel.Budget, error)
	Create(b *budgetDatamodel.Budget) error
	Update(b *budgetDatamodel.Budget) error
	Delete(id int64) error
}

// CategoryLookup is satisfied by category.Service.
type CategoryLookup interface {
	Exists(owner *int64, id int64) (bool, error)
	Names(ids []int64) (map[int64]string, error)
}

type Service struct {
	repo       RepositoryAPI
	categories CategoryLookup
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, categories CategoryLookup, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		logger:     logger,
	}
}

func (s *Service) List(userID int64, filter ListFilter) (*BudgetsResponse, error) {
	if filter.Period != "" && !isPeriod(filter.Period) {
		return nil, internal.NewValidationFieldError("period", "period must be one of daily, weekly, monthly, annual", internal.ErrCodeInvalidPeriod)
	}

	rows, err := s.repo.List(userID, filter)
	if err != nil {
		s.logger.Error("failed to list budgets", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to list budgets", err)
	}

	budgets := make([]*Budget, 0, len(rows))
	for _, row := range rows {
		budgets = append(budgets, FromDataModel(row))
	}
	responses, err := s.toResponses(budgets)
	if err != nil {
		return nil, err
	}
	return &BudgetsResponse{Budgets: responses}, nil
}

func (s *Service) Get(id, userID int64) (*BudgetResponse, error) {
	b, err := s.owned(id, userID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(b)
}

func (s *Service) Create(userID int64, dto CreateBudgetDTO) (*BudgetResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	ok, err := s.categories.Exists(&userID, dto.CategoryID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check category", err)
	}
	if !ok {
		return nil, ErrCategoryNotFound
	}

	b := &Budget{
		UserID:      userID,
		CategoryID:  dto.CategoryID,
		Amount:      dto.Amount.Round(2),
		Period:      dto.Period,
		Year:        dto.Year,
		Month:       dto.Month,
		Week:        dto.Week,
		ForExcluded: dto.ForExcluded,
	}
	data := ToDataModel(b)
	if err := s.repo.Create(data); err != nil {
		s.logger.Error("failed to create budget", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to create budget", err)
	}

	s.logger.Info("budget created", "budget_id", data.ID, "user_id", userID, "period", data.Period)
	return s.toResponse(FromDataModel(data))
}

func (s *Service) Update(id, userID int64, dto UpdateBudgetDTO) (*BudgetResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	b, err := s.owned(id, userID)
	if err != nil {
		return nil, err
	}

	if dto.Amount != nil {
		b.Amount = dto.Amount.Round(2)
	}
	if dto.Month != nil {
		b.Month = dto.Month
	}
	if dto.Week != nil {
		b.Week = dto.Week
	}
	if err := validatePeriodFields(b.Period, b.Month, b.Week); err != nil {
		return nil, err
	}

	data := ToDataModel(b)
	if err := s.repo.Update(data); err != nil {
		s.logger.Error("failed to update budget", "budget_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update budget", err)
	}

	s.logger.Info("budget updated", "budget_id", id, "user_id", userID)
	return s.toResponse(FromDataModel(data))
}

func (s *Service) Delete(id, userID int64) error {
	if _, err := s.owned(id, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete budget", "budget_id", id, "error", err)
		return internal.NewInternalError("failed to delete budget", err)
	}
	s.logger.Info("budget deleted", "budget_id", id, "user_id", userID)
	return nil
}

func (s *Service) owned(id, userID int64) (*Budget, error) {
	data, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get budget", "budget_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get budget", err)
	}
	if data == nil || data.UserID != userID {
		return nil, ErrBudgetNotFound
	}
	return FromDataModel(data), nil
}

func (s *Service) toResponse(b *Budget) (*BudgetResponse, error) {
	out, err := s.toResponses([]*Budget{b})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *Service) toResponses(budgets []*Budget) ([]BudgetResponse, error) {
	ids := make([]int64, 0, len(budgets))
	for _, b := range budgets {
		ids = append(ids, b.CategoryID)
	}
	names := map[int64]string{}
	if len(ids) > 0 {
		var err error
		if names, err = s.categories.Names(ids); err != nil {
			return nil, internal.NewInternalError("failed to load category names", err)
		}
	}

	out := make([]BudgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, b.ToResponse(names[b.CategoryID]))
	}
	return out, nil
}

func isPeriod(p string) bool {
	for _, known := range Periods {
		if p == known {
			return true
		}
	}
	return false
}
