package transaction

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/finance-tracker/internal"
	transactionDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/transaction"
)

var (
	ErrTransactionNotFound = internal.NewNotFoundError("transaction not found", internal.ErrCodeTransactionNotFound)
	ErrCategoryNotFound    = internal.NewNotFoundError("category not found", internal.ErrCodeCategoryNotFound)
)

type RepositoryAPI interface {
	List(userID int64, filter ListFilter) ([]*transactionDatamodel.Transaction, error)
	GetByID(id int64) (*transactionDatamodel.Transaction, error)
	Create(tx *transactionDatamodel.Transaction) error
	Update(tx *transactionDatamodel.Transaction) error
	Delete(id int64) error
	// CountOwned returns how many of ids belong to userID.
	CountOwned(userID int64, ids []int64) (int64, error)
	// UpdateFields applies fields to the rows of ids owned by userID.
	UpdateFields(userID int64, ids []int64, fields map[string]interface{}) (int64, error)
	DeleteOwned(userID int64, ids []int64) (int64, error)
}

// Categorizer picks a category for a description; satisfied by rule.Service.
type Categorizer interface {
	Categorize(userID int64, description string) (*int64, error)
}

// CategoryLookup is satisfied by category.Service.
type CategoryLookup interface {
	Exists(owner *int64, id int64) (bool, error)
	Names(ids []int64) (map[int64]string, error)
}

type Service struct {
	repo        RepositoryAPI
	categorizer Categorizer
	categories  CategoryLookup
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, categorizer Categorizer, categories CategoryLookup, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		categorizer: categorizer,
		categories:  categories,
		logger:      logger,
	}
}

func (s *Service) List(userID int64, filter ListFilter) (*TransactionsResponse, error) {
	if filter.Type != "" {
		if err := validateType(filter.Type); err != nil {
			return nil, err
		}
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, internal.NewValidationError("end_date must not be before start_date", internal.ErrCodeInvalidDate)
	}
	filter.normalize()

	rows, err := s.repo.List(userID, filter)
	if err != nil {
		s.logger.Error("failed to list transactions", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to list transactions", err)
	}

	txs := FromDataModelSlice(rows)
	responses, err := s.toResponses(txs)
	if err != nil {
		return nil, err
	}
	return &TransactionsResponse{
		Transactions: responses,
		Count:        len(responses),
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}, nil
}

func (s *Service) Get(id, userID int64) (*TransactionResponse, error) {
	t, err := s.owned(id, userID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(t)
}

// Create stores a manual transaction. Without a category the rule engine
// chooses one; no match leaves it uncategorized.
func (s *Service) Create(userID int64, dto CreateTransactionDTO) (*TransactionResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	date, _ := ParseDate(dto.Date)

	categoryID := dto.CategoryID
	if categoryID != nil {
		if err := s.ensureCategory(userID, *categoryID); err != nil {
			return nil, err
		}
	} else {
		matched, err := s.categorizer.Categorize(userID, dto.Description)
		if err != nil {
			s.logger.Error("categorization failed", "user_id", userID, "error", err)
			return nil, internal.NewInternalError("failed to categorize transaction", err)
		}
		categoryID = matched
	}

	t := &Transaction{
		UserID:      userID,
		Description: strings.TrimSpace(dto.Description),
		Amount:      dto.Amount.Round(2),
		Type:        dto.Type,
		Date:        date,
		CategoryID:  categoryID,
		Source:      SourceManual,
		Notes:       dto.Notes,
	}
	data := ToDataModel(t)
	if err := s.repo.Create(data); err != nil {
		s.logger.Error("failed to create transaction", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to create transaction", err)
	}

	s.logger.Info("transaction created", "transaction_id", data.ID, "user_id", userID, "categorized", categoryID != nil)
	return s.toResponse(FromDataModel(data))
}

func (s *Service) Update(id, userID int64, dto UpdateTransactionDTO) (*TransactionResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	t, err := s.owned(id, userID)
	if err != nil {
		return nil, err
	}

	if dto.Description != nil {
		t.Description = strings.TrimSpace(*dto.Description)
	}
	if dto.Amount != nil {
		t.Amount = dto.Amount.Round(2)
	}
	if dto.Type != nil {
		t.Type = *dto.Type
	}
	if dto.Date != nil {
		t.Date, _ = ParseDate(*dto.Date)
	}
	if dto.CategoryID != nil {
		if err := s.ensureCategory(userID, *dto.CategoryID); err != nil {
			return nil, err
		}
		t.CategoryID = dto.CategoryID
	}
	if dto.IsExcluded != nil {
		t.IsExcluded = *dto.IsExcluded
	}
	if dto.Notes != nil {
		t.Notes = *dto.Notes
	}

	return s.save(t, "transaction updated")
}

func (s *Service) Delete(id, userID int64) error {
	if _, err := s.owned(id, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete transaction", "transaction_id", id, "error", err)
		return internal.NewInternalError("failed to delete transaction", err)
	}
	s.logger.Info("transaction deleted", "transaction_id", id, "user_id", userID)
	return nil
}

func (s *Service) ToggleExclude(id, userID int64) (*TransactionResponse, error) {
	t, err := s.owned(id, userID)
	if err != nil {
		return nil, err
	}
	t.ToggleExcluded()
	return s.save(t, "transaction exclusion toggled")
}

// ChangeCategory moves the caller's transactions in dto to categoryID.
func (s *Service) ChangeCategory(userID, categoryID int64, dto ChangeCategoryDTO) (*BulkResult, error) {
	if len(dto.TransactionIDs) == 0 {
		return nil, errMissingIDs
	}
	if err := s.ensureCategory(userID, categoryID); err != nil {
		return nil, err
	}

	count, err := s.repo.UpdateFields(userID, dto.TransactionIDs, map[string]interface{}{"category_id": categoryID})
	if err != nil {
		s.logger.Error("failed to change categories", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to update transactions", err)
	}

	s.logger.Info("transactions recategorized", "user_id", userID, "category_id", categoryID, "count", count)
	return &BulkResult{Message: fmt.Sprintf("%d transactions updated", count), Count: count}, nil
}

func (s *Service) BulkUpdate(userID int64, dto BulkUpdateDTO) (*BulkResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureAnyOwned(userID, dto.TransactionIDs); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if dto.CategoryID != nil {
		if err := s.ensureCategory(userID, *dto.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *dto.CategoryID
	}
	if dto.Type != nil {
		fields["type"] = *dto.Type
	}
	if dto.IsExcluded != nil {
		fields["is_excluded"] = *dto.IsExcluded
	}
	if len(fields) == 0 {
		return nil, internal.NewValidationError("nothing to update", internal.ErrCodeValidationFailed)
	}

	count, err := s.repo.UpdateFields(userID, dto.TransactionIDs, fields)
	if err != nil {
		s.logger.Error("bulk update failed", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to update transactions", err)
	}

	s.logger.Info("transactions bulk updated", "user_id", userID, "count", count)
	return &BulkResult{Message: fmt.Sprintf("%d transaction(s) updated", count), Count: count}, nil
}

func (s *Service) BulkDelete(userID int64, dto BulkDeleteDTO) (*BulkResult, error) {
	if len(dto.TransactionIDs) == 0 {
		return nil, errMissingIDs
	}
	if err := s.ensureAnyOwned(userID, dto.TransactionIDs); err != nil {
		return nil, err
	}

	count, err := s.repo.DeleteOwned(userID, dto.TransactionIDs)
	if err != nil {
		s.logger.Error("bulk delete failed", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to delete transactions", err)
	}

	s.logger.Info("transactions bulk deleted", "user_id", userID, "count", count)
	return &BulkResult{Message: fmt.Sprintf("%d transaction(s) deleted", count), Count: count}, nil
}

func (s *Service) save(t *Transaction, msg string) (*TransactionResponse, error) {
	data := ToDataModel(t)
	if err := s.repo.Update(data); err != nil {
		s.logger.Error("failed to update transaction", "transaction_id", t.ID, "error", err)
		return nil, internal.NewInternalError("failed to update transaction", err)
	}
	s.logger.Info(msg, "transaction_id", t.ID, "user_id", t.UserID)
	return s.toResponse(FromDataModel(data))
}

// owned loads a transaction of userID; anyone else's is reported missing.
func (s *Service) owned(id, userID int64) (*Transaction, error) {
	data, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get transaction", "transaction_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get transaction", err)
	}
	if data == nil || data.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	return FromDataModel(data), nil
}

func (s *Service) ensureAnyOwned(userID int64, ids []int64) error {
	n, err := s.repo.CountOwned(userID, ids)
	if err != nil {
		return internal.NewInternalError("failed to load transactions", err)
	}
	if n == 0 {
		return ErrTransactionNotFound.WithMessage("no transactions found")
	}
	return nil
}

func (s *Service) ensureCategory(userID, id int64) error {
	ok, err := s.categories.Exists(&userID, id)
	if err != nil {
		return internal.NewInternalError("failed to check category", err)
	}
	if !ok {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *Service) toResponse(t *Transaction) (*TransactionResponse, error) {
	out, err := s.toResponses([]*Transaction{t})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *Service) toResponses(txs []*Transaction) ([]TransactionResponse, error) {
	var ids []int64
	for _, t := range txs {
		if t.CategoryID != nil {
			ids = append(ids, *t.CategoryID)
		}
	}
	names := map[int64]string{}
	if len(ids) > 0 {
		var err error
		names, err = s.categories.Names(ids)
		if err != nil {
			return nil, internal.NewInternalError("failed to load category names", err)
		}
	}

	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		name := ""
		if t.CategoryID != nil {
			name = names[*t.CategoryID]
		}
		out = append(out, t.ToResponse(name))
	}
	return out, nil
}
