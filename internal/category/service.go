package category

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/finance-tracker/internal"
	categoryDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/category"
)

var (
	ErrCategoryNotFound     = internal.NewNotFoundError("category not found", internal.ErrCodeCategoryNotFound)
	ErrDuplicateCategory    = internal.NewConflictError("a category with this name already exists here", internal.ErrCodeDuplicateCategory)
	ErrNestedSubcategory    = internal.NewValidationError("cannot create a subcategory of a subcategory", internal.ErrCodeCategoryNesting)
	ErrSystemCategoryLocked = internal.NewForbiddenError("system categories can only be changed by administrators", internal.ErrCodeSystemCategory)
	ErrDefaultCategory      = internal.NewValidationError("cannot delete the default category; set another default first", internal.ErrCodeInvalidCategory)
)

const permissionAdmin = "admin"

type RepositoryAPI interface {
	GetByID(id int64) (*categoryDatamodel.Category, error)
	GetByIDs(ids []int64) ([]*categoryDatamodel.Category, error)
	// ListAccessible returns system categories plus those owned by userID.
	ListAccessible(userID int64, filter ListFilter) ([]*categoryDatamodel.Category, error)
	ListChildren(parentID int64) ([]*categoryDatamodel.Category, error)
	// FindByName matches name under parentID (nil for top level) for one owner (nil for system).
	FindByName(owner, parentID *int64, name string) (*categoryDatamodel.Category, error)
	// FindAnyByName matches name at any depth for one owner, top level first.
	FindAnyByName(owner *int64, name string) (*categoryDatamodel.Category, error)
	FindDefault(owner *int64, categoryType string) (*categoryDatamodel.Category, error)
	Create(category *categoryDatamodel.Category) error
	Update(category *categoryDatamodel.Category) error
	// SetDefault makes id the only default top level category of its type and owner.
	SetDefault(category *categoryDatamodel.Category) error
	// DeleteAndReassign moves every transaction, budget and rule pointing at ids
	// to target, then deletes ids, in one database transaction.
	DeleteAndReassign(ids []int64, target int64) (Reassigned, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func isAdmin(userPermissions []string) bool {
	for _, p := range userPermissions {
		if p == permissionAdmin {
			return true
		}
	}
	return false
}

func (s *Service) List(userID int64, filter ListFilter) ([]CategoryResponse, error) {
	if filter.Type != "" && filter.Type != TypeIncome && filter.Type != TypeExpense {
		return nil, internal.NewValidationError("type must be income or expense", internal.ErrCodeInvalidCategory)
	}

	rows, err := s.repo.ListAccessible(userID, filter)
	if err != nil {
		s.logger.Error("failed to list categories", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to list categories", err)
	}

	cats := make([]*Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, FromDataModel(row))
	}
	names := s.parentNames(cats)

	responses := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		resp := c.ToResponse(parentName(names, c))
		if filter.IncludeSubcategory && !c.IsSubcategory() {
			subs, err := s.children(c, userID)
			if err != nil {
				return nil, err
			}
			resp.Subcategories = subs
		}
		responses = append(responses, resp)
	}

	s.logger.Debug("retrieved categories", "user_id", userID, "count", len(responses))
	return responses, nil
}

func (s *Service) Get(id, userID int64) (*CategoryResponse, error) {
	c, err := s.visible(id, userID)
	if err != nil {
		return nil, err
	}
	resp := c.ToResponse(s.nameOf(c.ParentID))
	return &resp, nil
}

func (s *Service) Subcategories(id, userID int64) ([]CategoryResponse, error) {
	c, err := s.visible(id, userID)
	if err != nil {
		return nil, err
	}
	return s.children(c, userID)
}

func (s *Service) Create(userID int64, userPermissions []string, dto CreateCategoryDTO) (*CategoryResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.System && !isAdmin(userPermissions) {
		s.logger.Warn("create system category denied", "user_id", userID)
		return nil, ErrSystemCategoryLocked
	}

	var owner *int64
	if !dto.System {
		uid := userID
		owner = &uid
	}

	c := &Category{
		Name:     strings.TrimSpace(dto.Name),
		Type:     dto.Type,
		Color:    orDefault(dto.Color, DefaultColor),
		Icon:     orDefault(dto.Icon, DefaultIcon),
		UserID:   owner,
		ParentID: dto.ParentID,
	}

	parentLabel := ""
	if dto.ParentID != nil {
		parent, err := s.visible(*dto.ParentID, userID)
		if errors.Is(err, ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound.WithMessage("parent category not found")
		}
		if err != nil {
			return nil, err
		}
		if parent.IsSubcategory() {
			return nil, ErrNestedSubcategory
		}
		if dto.System && !parent.IsSystem() {
			return nil, internal.NewValidationError("system subcategories need a system parent", internal.ErrCodeCategoryNesting)
		}
		c.Type = parent.Type
		parentLabel = parent.Name
	}

	existing, err := s.repo.FindByName(owner, c.ParentID, c.Name)
	if err != nil {
		return nil, internal.NewInternalError("failed to check category name", err)
	}
	if existing != nil {
		return nil, ErrDuplicateCategory
	}

	data := ToDataModel(c)
	if err := s.repo.Create(data); err != nil {
		s.logger.Error("failed to create category", "user_id", userID, "name", c.Name, "error", err)
		return nil, internal.NewInternalError("failed to create category", err)
	}

	s.logger.Info("category created", "category_id", data.ID, "user_id", userID, "system", dto.System)
	resp := FromDataModel(data).ToResponse(parentLabel)
	return &resp, nil
}

func (s *Service) Update(id, userID int64, userPermissions []string, dto UpdateCategoryDTO) (*CategoryResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	c, err := s.mutable(id, userID, userPermissions)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name != c.Name {
			existing, err := s.repo.FindByName(c.UserID, c.ParentID, name)
			if err != nil {
				return nil, internal.NewInternalError("failed to check category name", err)
			}
			if existing != nil && existing.ID != c.ID {
				return nil, ErrDuplicateCategory
			}
			c.Name = name
		}
	}
	if dto.Color != nil {
		c.Color = *dto.Color
	}
	if dto.Icon != nil {
		c.Icon = *dto.Icon
	}

	data := ToDataModel(c)
	if err := s.repo.Update(data); err != nil {
		s.logger.Error("failed to update category", "category_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update category", err)
	}

	s.logger.Info("category updated", "category_id", id, "user_id", userID)
	resp := FromDataModel(data).ToResponse(s.nameOf(c.ParentID))
	return &resp, nil
}

// SetDefault marks a top level category as the default of its type.
func (s *Service) SetDefault(id, userID int64, userPermissions []string) (*CategoryResponse, error) {
	c, err := s.mutable(id, userID, userPermissions)
	if err != nil {
		return nil, err
	}
	if c.IsSubcategory() {
		return nil, internal.NewValidationError("only top level categories can be the default", internal.ErrCodeCategoryNesting)
	}

	c.IsDefault = true
	data := ToDataModel(c)
	if err := s.repo.SetDefault(data); err != nil {
		s.logger.Error("failed to set default category", "category_id", id, "error", err)
		return nil, internal.NewInternalError("failed to set default category", err)
	}

	s.logger.Info("default category set", "category_id", id, "type", c.Type)
	resp := c.ToResponse("")
	return &resp, nil
}

// Delete removes a category and moves everything that referenced it. A
// subcategory hands its rows to its parent. A top level category takes its
// subcategories with it and hands every row to the default category of its
// type, or to a system "Other"/"Other Income" category.
func (s *Service) Delete(id, userID int64, userPermissions []string) (*DeleteResult, error) {
	c, err := s.mutable(id, userID, userPermissions)
	if err != nil {
		return nil, err
	}
	if c.IsDefault && !c.IsSubcategory() {
		return nil, ErrDefaultCategory
	}

	ids := []int64{c.ID}
	var target *Category
	if c.IsSubcategory() {
		parent, err := s.repo.GetByID(*c.ParentID)
		if err != nil {
			return nil, internal.NewInternalError("failed to load parent category", err)
		}
		if parent == nil {
			return nil, ErrCategoryNotFound.WithMessage("parent category not found")
		}
		target = FromDataModel(parent)
	} else {
		children, err := s.repo.ListChildren(c.ID)
		if err != nil {
			return nil, internal.NewInternalError("failed to load subcategories", err)
		}
		for _, child := range children {
			ids = append(ids, child.ID)
		}
		target, err = s.fallbackFor(c)
		if err != nil {
			return nil, err
		}
	}

	moved, err := s.repo.DeleteAndReassign(ids, target.ID)
	if err != nil {
		s.logger.Error("failed to delete category", "category_id", id, "error", err)
		return nil, internal.NewInternalError("failed to delete category", err)
	}

	kind := "Category"
	if c.IsSubcategory() {
		kind = "Subcategory"
	}
	s.logger.Info("category deleted", "category_id", id, "user_id", userID, "reassigned_to", target.ID)
	return &DeleteResult{
		Message:      fmt.Sprintf("%s %q deleted", kind, c.Name),
		ReassignedTo: target.Name,
		Reassigned:   moved,
	}, nil
}

func (s *Service) fallbackFor(c *Category) (*Category, error) {
	def, err := s.repo.FindDefault(c.UserID, c.Type)
	if err != nil {
		return nil, internal.NewInternalError("failed to load default category", err)
	}
	if def == nil && c.UserID != nil {
		def, err = s.repo.FindDefault(nil, c.Type)
		if err != nil {
			return nil, internal.NewInternalError("failed to load default category", err)
		}
	}
	if def != nil && def.ID != c.ID {
		return FromDataModel(def), nil
	}

	name := "Other"
	if c.Type == TypeIncome {
		name = "Other Income"
	}
	otherID, err := s.EnsureSystemCategory(name, c.Type)
	if err != nil {
		return nil, err
	}
	return &Category{ID: otherID, Name: name, Type: c.Type}, nil
}

// Exists reports whether id can be referenced by something owned by owner.
func (s *Service) Exists(owner *int64, id int64) (bool, error) {
	data, err := s.repo.GetByID(id)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if data.UserID == nil {
		return true, nil
	}
	return owner != nil && *data.UserID == *owner, nil
}

// EnsureSystemCategory returns the id of the top level system category
// called name, creating it when missing.
func (s *Service) EnsureSystemCategory(name, categoryType string) (int64, error) {
	existing, err := s.repo.FindByName(nil, nil, name)
	if err != nil {
		return 0, internal.NewInternalError("failed to look up category", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	data := ToDataModel(&Category{
		Name:  name,
		Type:  categoryType,
		Color: DefaultColor,
		Icon:  DefaultIcon,
	})
	if err := s.repo.Create(data); err != nil {
		s.logger.Error("failed to create system category", "name", name, "error", err)
		return 0, internal.NewInternalError("failed to create category", err)
	}
	s.logger.Info("system category created", "category_id", data.ID, "name", name)
	return data.ID, nil
}

// ResolveName finds a category by name, preferring the owner's own over
// system ones.
func (s *Service) ResolveName(owner *int64, name string) (int64, bool, error) {
	name = strings.TrimSpace(name)
	if owner != nil {
		own, err := s.repo.FindAnyByName(owner, name)
		if err != nil {
			return 0, false, err
		}
		if own != nil {
			return own.ID, true, nil
		}
	}
	sys, err := s.repo.FindAnyByName(nil, name)
	if err != nil {
		return 0, false, err
	}
	if sys == nil {
		return 0, false, nil
	}
	return sys.ID, true, nil
}

func (s *Service) Names(ids []int64) (map[int64]string, error) {
	rows, err := s.repo.GetByIDs(unique(ids))
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (s *Service) visible(id, userID int64) (*Category, error) {
	data, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get category", "category_id", id, "error", err)
		return nil, internal.NewInternalError("failed to get category", err)
	}
	if data == nil {
		return nil, ErrCategoryNotFound
	}
	c := FromDataModel(data)
	if !c.VisibleTo(userID) {
		return nil, ErrCategoryNotFound
	}
	return c, nil
}

func (s *Service) mutable(id, userID int64, userPermissions []string) (*Category, error) {
	c, err := s.visible(id, userID)
	if err != nil {
		return nil, err
	}
	if c.IsSystem() && !isAdmin(userPermissions) {
		s.logger.Warn("system category mutation denied", "category_id", id, "user_id", userID)
		return nil, ErrSystemCategoryLocked
	}
	return c, nil
}

func (s *Service) children(c *Category, userID int64) ([]CategoryResponse, error) {
	rows, err := s.repo.ListChildren(c.ID)
	if err != nil {
		s.logger.Error("failed to list subcategories", "category_id", c.ID, "error", err)
		return nil, internal.NewInternalError("failed to list subcategories", err)
	}
	out := make([]CategoryResponse, 0, len(rows))
	for _, row := range rows {
		child := FromDataModel(row)
		if child.VisibleTo(userID) {
			out = append(out, child.ToResponse(c.Name))
		}
	}
	return out, nil
}

func (s *Service) parentNames(cats []*Category) map[int64]string {
	var ids []int64
	for _, c := range cats {
		if c.ParentID != nil {
			ids = append(ids, *c.ParentID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	names, err := s.Names(ids)
	if err != nil {
		s.logger.Warn("failed to load parent names", "error", err)
		return nil
	}
	return names
}

func (s *Service) nameOf(id *int64) string {
	if id == nil {
		return ""
	}
	names, err := s.Names([]int64{*id})
	if err != nil {
		s.logger.Warn("failed to load parent name", "category_id", *id, "error", err)
		return ""
	}
	return names[*id]
}

func parentName(names map[int64]string, c *Category) string {
	if c.ParentID == nil {
		return ""
	}
	return names[*c.ParentID]
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func unique(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
