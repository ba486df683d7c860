package rule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/finance-tracker/internal"
	ruleDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/rule"
	"github.com/frahmantamala/finance-tracker/internal/core/events"
)

var (
	ErrRuleNotFound        = internal.NewNotFoundError("categorization rule not found", internal.ErrCodeRuleNotFound)
	ErrDuplicateRuleName   = internal.NewConflictError("a rule with this name already exists in this scope", internal.ErrCodeDuplicateRuleName)
	ErrSystemRuleImmutable = internal.NewForbiddenError("system rules can only be changed by administrators", internal.ErrCodeSystemRuleImmutable)
	ErrCategoryNotFound    = internal.NewNotFoundError("category not found", internal.ErrCodeCategoryNotFound)
)

type RepositoryAPI interface {
	GetByID(id int64) (*ruleDatamodel.CategorizationRule, error)
	// GetByName looks up a rule by name within one scope; nil userID is the system scope.
	GetByName(userID *int64, name string) (*ruleDatamodel.CategorizationRule, error)
	ListPersonal(userID int64) ([]*ruleDatamodel.CategorizationRule, error)
	ListSystem() ([]*ruleDatamodel.CategorizationRule, error)
	ListActivePersonal(userID int64) ([]*ruleDatamodel.CategorizationRule, error)
	ListActiveSystem() ([]*ruleDatamodel.CategorizationRule, error)
	Create(rule *ruleDatamodel.CategorizationRule) error
	// CreateBatch inserts all rules or none.
	CreateBatch(rules []*ruleDatamodel.CategorizationRule) error
	Update(rule *ruleDatamodel.CategorizationRule) error
	Delete(id int64) error
}

// CategoryLookup is the part of the category service rules depend on.
type CategoryLookup interface {
	// Exists reports whether id is usable by rules owned by owner: system
	// categories always, personal ones only for their owner.
	Exists(owner *int64, id int64) (bool, error)
	EnsureSystemCategory(name, categoryType string) (int64, error)
	// ResolveName finds a category visible in a scope by name; nil userID
	// searches system categories only.
	ResolveName(userID *int64, name string) (int64, bool, error)
	Names(ids []int64) (map[int64]string, error)
}

// Categorizable is the slice of a transaction the engine needs.
type Categorizable struct {
	ID          int64
	Description string
	CategoryID  *int64
}

// Change records one reassignment made by ApplyToAll.
type Change struct {
	TransactionID int64  `json:"transaction_id"`
	Description   string `json:"description"`
	OldCategoryID *int64 `json:"old_category_id"`
	NewCategoryID int64  `json:"new_category_id"`
	RuleName      string `json:"rule_name"`
}

type TransactionStore interface {
	ListForCategorization(userID int64) ([]Categorizable, error)
	// ReassignCategories persists every change in one database transaction.
	ReassignCategories(userID int64, changes []Change) error
}

type ApplyResult struct {
	Changes []Change `json:"changes"`
	Count   int      `json:"count"`
}

type Service struct {
	repo         RepositoryAPI
	categories   CategoryLookup
	transactions TransactionStore
	publisher    events.Publisher
	logger       *slog.Logger
}

func NewService(repo RepositoryAPI, categories CategoryLookup, transactions TransactionStore, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		categories:   categories,
		transactions: transactions,
		publisher:    publisher,
		logger:       logger,
	}
}

func canManageSystemRules(userPermissions []string) bool {
	for _, p := range userPermissions {
		if p == PermissionAdmin || p == PermissionManageSystemRules {
			return true
		}
	}
	return false
}

func ownerFor(scope Scope, userID int64) *int64 {
	if scope == ScopeSystem {
		return nil
	}
	id := userID
	return &id
}

// List returns the caller's personal rules followed by system rules, both
// in evaluation order. Inactive rules are included.
func (s *Service) List(userID int64) ([]RuleResponse, error) {
	personal, err := s.repo.ListPersonal(userID)
	if err != nil {
		s.logger.Error("failed to list personal rules", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to list rules", err)
	}
	system, err := s.repo.ListSystem()
	if err != nil {
		s.logger.Error("failed to list system rules", "error", err)
		return nil, internal.NewInternalError("failed to list rules", err)
	}

	p, sys := FromDataModels(personal), FromDataModels(system)
	SortByPrecedence(p)
	SortByPrecedence(sys)
	return s.toResponses(append(p, sys...))
}

func (s *Service) Get(id, userID int64) (*RuleResponse, error) {
	r, err := s.visibleRule(id, userID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(r)
}

func (s *Service) Create(userID int64, userPermissions []string, dto CreateRuleDTO) (*RuleResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	scope := dto.scope()
	if scope == ScopeSystem && !canManageSystemRules(userPermissions) {
		s.logger.Warn("create system rule denied", "user_id", userID)
		return nil, ErrSystemRuleImmutable
	}
	owner := ownerFor(scope, userID)
	if err := s.ensureCategory(owner, dto.CategoryID); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(owner, dto.Name, 0); err != nil {
		return nil, err
	}

	r := &Rule{
		UserID:     owner,
		Name:       strings.TrimSpace(dto.Name),
		Keywords:   NormalizeKeywords(dto.Keywords),
		CategoryID: dto.CategoryID,
		Priority:   dto.Priority,
		IsActive:   dto.active(),
	}
	data := ToDataModel(r)
	if err := s.repo.Create(data); err != nil {
		s.logger.Error("failed to create rule", "user_id", userID, "name", r.Name, "error", err)
		return nil, internal.NewInternalError("failed to create rule", err)
	}

	s.logger.Info("rule created", "rule_id", data.ID, "user_id", userID, "scope", scope)
	return s.toResponse(FromDataModel(data))
}

func (s *Service) Update(id, userID int64, userPermissions []string, dto UpdateRuleDTO) (*RuleResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	r, err := s.mutableRule(id, userID, userPermissions)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name != r.Name {
			if err := s.ensureUniqueName(r.UserID, name, r.ID); err != nil {
				return nil, err
			}
			r.Name = name
		}
	}
	if dto.CategoryID != nil {
		if err := s.ensureCategory(r.UserID, *dto.CategoryID); err != nil {
			return nil, err
		}
		r.CategoryID = *dto.CategoryID
	}
	if dto.Keywords != nil {
		r.Keywords = NormalizeKeywords(*dto.Keywords)
	}
	if dto.Priority != nil {
		r.Priority = *dto.Priority
	}
	if dto.IsActive != nil {
		r.IsActive = *dto.IsActive
	}

	data := ToDataModel(r)
	if err := s.repo.Update(data); err != nil {
		s.logger.Error("failed to update rule", "rule_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update rule", err)
	}

	s.logger.Info("rule updated", "rule_id", id, "user_id", userID)
	return s.toResponse(FromDataModel(data))
}

func (s *Service) Delete(id, userID int64, userPermissions []string) error {
	if _, err := s.mutableRule(id, userID, userPermissions); err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete rule", "rule_id", id, "error", err)
		return internal.NewInternalError("failed to delete rule", err)
	}
	s.logger.Info("rule deleted", "rule_id", id, "user_id", userID)
	return nil
}

// Test reports every active rule that would match description, in the
// order the engine evaluates them. The first entry is the one applied.
func (s *Service) Test(userID int64, dto TestRuleDTO) (*TestResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.candidates(userID)
	if err != nil {
		return nil, err
	}

	hits := AllMatches(dto.Description, candidates)
	ids := make([]int64, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.Rule.CategoryID)
	}
	names, err := s.categoryNames(ids)
	if err != nil {
		return nil, err
	}

	result := &TestResult{Description: dto.Description, MatchedRules: make([]MatchedRule, 0, len(hits))}
	for _, h := range hits {
		result.MatchedRules = append(result.MatchedRules, MatchedRule{
			RuleID:          h.Rule.ID,
			RuleName:        h.Rule.Name,
			CategoryID:      h.Rule.CategoryID,
			CategoryName:    names[h.Rule.CategoryID],
			Priority:        h.Rule.Priority,
			Scope:           h.Rule.Scope(),
			MatchedKeywords: h.MatchedKeywords,
		})
	}
	if len(result.MatchedRules) > 0 {
		primary := result.MatchedRules[0]
		result.PrimaryMatch = &primary
	}
	return result, nil
}

type importRow struct {
	index int
	dto   CreateRuleDTO
}

// BulkImport validates every row, reports the rejected ones and inserts
// the rest together.
func (s *Service) BulkImport(userID int64, userPermissions []string, dto BulkImportDTO) (*BulkImportResult, error) {
	rows := make([]importRow, 0, len(dto.Rules))
	for i, r := range dto.Rules {
		rows = append(rows, importRow{index: i, dto: r})
	}
	result := &BulkImportResult{Total: len(dto.Rules)}
	if err := s.importRows(userID, userPermissions, rows, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) importRows(userID int64, userPermissions []string, rows []importRow, result *BulkImportResult) error {
	batch := make([]*ruleDatamodel.CategorizationRule, 0, len(rows))
	seen := make(map[string]bool)

	for _, row := range rows {
		i := row.index
		if err := row.dto.Validate(); err != nil {
			result.Errors = append(result.Errors, rowError(i, "%s", validationMessage(err)))
			continue
		}
		scope := row.dto.scope()
		if scope == ScopeSystem && !canManageSystemRules(userPermissions) {
			result.Errors = append(result.Errors, rowError(i, "not allowed to create system rules"))
			continue
		}

		name := strings.TrimSpace(row.dto.Name)
		key := string(scope) + "\x00" + name
		if seen[key] {
			result.Errors = append(result.Errors, rowError(i, "rule name '%s' is repeated in this import", name))
			continue
		}
		owner := ownerFor(scope, userID)
		existing, err := s.repo.GetByName(owner, name)
		if err != nil {
			return internal.NewInternalError("failed to check rule name", err)
		}
		if existing != nil {
			result.Errors = append(result.Errors, rowError(i, "rule name '%s' already exists", name))
			continue
		}
		ok, err := s.categories.Exists(owner, row.dto.CategoryID)
		if err != nil {
			return internal.NewInternalError("failed to check category", err)
		}
		if !ok {
			result.Errors = append(result.Errors, rowError(i, "category %d not found", row.dto.CategoryID))
			continue
		}

		seen[key] = true
		batch = append(batch, ToDataModel(&Rule{
			UserID:     owner,
			Name:       name,
			Keywords:   NormalizeKeywords(row.dto.Keywords),
			CategoryID: row.dto.CategoryID,
			Priority:   row.dto.Priority,
			IsActive:   row.dto.active(),
		}))
	}

	if len(batch) > 0 {
		if err := s.repo.CreateBatch(batch); err != nil {
			s.logger.Error("bulk import failed", "user_id", userID, "rows", len(batch), "error", err)
			return internal.NewInternalError("failed to import rules", err)
		}
	}
	result.Imported = len(batch)

	s.logger.Info("rules imported", "user_id", userID, "imported", result.Imported, "total", result.Total)
	return nil
}

// Categorize returns the category the caller's rules assign to
// description, or nil when nothing matches.
func (s *Service) Categorize(userID int64, description string) (*int64, error) {
	match, err := s.Matcher(userID)
	if err != nil {
		return nil, err
	}
	return match(description), nil
}

// Matcher loads the caller's candidate rules once and returns a function
// categorizing descriptions against that snapshot. The function returns
// nil when no rule matches.
func (s *Service) Matcher(userID int64) (func(description string) *int64, error) {
	candidates, err := s.candidates(userID)
	if err != nil {
		return nil, err
	}
	return func(description string) *int64 {
		m := FindMatch(description, candidates)
		if m == nil {
			return nil
		}
		id := m.CategoryID
		return &id
	}, nil
}

// ApplyToAll re-runs the engine over every transaction of userID and
// reassigns those whose matched category differs from the current one.
func (s *Service) ApplyToAll(ctx context.Context, userID int64) (*ApplyResult, error) {
	candidates, err := s.candidates(userID)
	if err != nil {
		return nil, err
	}

	txs, err := s.transactions.ListForCategorization(userID)
	if err != nil {
		s.logger.Error("failed to load transactions for categorization", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to load transactions", err)
	}

	changes := make([]Change, 0)
	for _, tx := range txs {
		m := FindMatch(tx.Description, candidates)
		if m == nil {
			continue
		}
		if tx.CategoryID != nil && *tx.CategoryID == m.CategoryID {
			continue
		}
		changes = append(changes, Change{
			TransactionID: tx.ID,
			Description:   tx.Description,
			OldCategoryID: tx.CategoryID,
			NewCategoryID: m.CategoryID,
			RuleName:      m.Rule.Name,
		})
	}

	if len(changes) > 0 {
		if err := s.transactions.ReassignCategories(userID, changes); err != nil {
			s.logger.Error("failed to apply rules", "user_id", userID, "changes", len(changes), "error", err)
			return nil, internal.NewInternalError("failed to apply rules", err)
		}
	}

	s.logger.Info("rules applied", "user_id", userID, "scanned", len(txs), "changed", len(changes))
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewRulesAppliedEvent(userID, len(changes))); err != nil {
			s.logger.Warn("failed to publish rules.applied", "user_id", userID, "error", err)
		}
	}

	return &ApplyResult{Changes: changes, Count: len(changes)}, nil
}

func (s *Service) candidates(userID int64) ([]*Rule, error) {
	personal, err := s.repo.ListActivePersonal(userID)
	if err != nil {
		s.logger.Error("failed to load personal rules", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to load rules", err)
	}
	system, err := s.repo.ListActiveSystem()
	if err != nil {
		s.logger.Error("failed to load system rules", "error", err)
		return nil, internal.NewInternalError("failed to load rules", err)
	}
	return OrderCandidates(FromDataModels(personal), FromDataModels(system)), nil
}

// visibleRule loads a rule the caller may read: a system rule or one of
// their own. Other users' rules are reported as missing.
func (s *Service) visibleRule(id, userID int64) (*Rule, error) {
	data, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get rule", "rule_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get rule", err)
	}
	if data == nil {
		return nil, ErrRuleNotFound
	}
	r := FromDataModel(data)
	if !r.IsSystem() && *r.UserID != userID {
		return nil, ErrRuleNotFound
	}
	return r, nil
}

func (s *Service) mutableRule(id, userID int64, userPermissions []string) (*Rule, error) {
	r, err := s.visibleRule(id, userID)
	if err != nil {
		return nil, err
	}
	if r.IsSystem() && !canManageSystemRules(userPermissions) {
		s.logger.Warn("system rule mutation denied", "rule_id", id, "user_id", userID)
		return nil, ErrSystemRuleImmutable
	}
	return r, nil
}

func (s *Service) ensureUniqueName(owner *int64, name string, selfID int64) error {
	existing, err := s.repo.GetByName(owner, strings.TrimSpace(name))
	if err != nil {
		return internal.NewInternalError("failed to check rule name", err)
	}
	if existing != nil && existing.ID != selfID {
		return ErrDuplicateRuleName
	}
	return nil
}

func (s *Service) ensureCategory(owner *int64, id int64) error {
	ok, err := s.categories.Exists(owner, id)
	if err != nil {
		return internal.NewInternalError("failed to check category", err)
	}
	if !ok {
		return ErrCategoryNotFound.WithMessage(fmt.Sprintf("category %d not found", id))
	}
	return nil
}

func (s *Service) categoryNames(ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}
	names, err := s.categories.Names(ids)
	if err != nil {
		return nil, internal.NewInternalError("failed to load category names", err)
	}
	return names, nil
}

func (s *Service) toResponse(r *Rule) (*RuleResponse, error) {
	out, err := s.toResponses([]*Rule{r})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *Service) toResponses(rules []*Rule) ([]RuleResponse, error) {
	ids := make([]int64, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.CategoryID)
	}
	names, err := s.categoryNames(ids)
	if err != nil {
		return nil, err
	}

	out := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, RuleResponse{
			ID:           r.ID,
			Name:         r.Name,
			Keywords:     JoinKeywords(r.Keywords),
			CategoryID:   r.CategoryID,
			CategoryName: names[r.CategoryID],
			Priority:     r.Priority,
			IsActive:     r.IsActive,
			Scope:        r.Scope(),
			CreatedAt:    r.CreatedAt,
			UpdatedAt:    r.UpdatedAt,
		})
	}
	return out, nil
}

func validationMessage(err error) string {
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr.GetDetailedMessage()
	}
	return err.Error()
}
