package category

import (
	"time"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/core/common/validation"
)

// ListFilter narrows List. An empty Type means both types.
type ListFilter struct {
	Type               string
	ParentsOnly        bool
	IncludeSubcategory bool
}

type CreateCategoryDTO struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Color    string `json:"color,omitempty"`
	Icon     string `json:"icon,omitempty"`
	ParentID *int64 `json:"parent_id,omitempty"`
	// System creates a category shared by every user; admin only.
	System bool `json:"system,omitempty"`
}

func (d CreateCategoryDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("color", d.Color).MaxLength(7)
	v.Field("icon", d.Icon).MaxLength(50)
	if d.ParentID == nil {
		v.Field("type", d.Type).Required().OneOf(internal.ErrCodeInvalidCategory, TypeIncome, TypeExpense)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type UpdateCategoryDTO struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

func (d UpdateCategoryDTO) Validate() error {
	v := validation.NewValidator()
	if d.Name != nil {
		v.Field("name", *d.Name).Required().MaxLength(100)
	}
	if d.Color != nil {
		v.Field("color", *d.Color).MaxLength(7)
	}
	if d.Icon != nil {
		v.Field("icon", *d.Icon).MaxLength(50)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type CategoryResponse struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	Type          string             `json:"type"`
	Color         string             `json:"color"`
	Icon          string             `json:"icon"`
	IsDefault     bool               `json:"is_default"`
	ParentID      *int64             `json:"parent_id"`
	ParentName    *string            `json:"parent_name"`
	DisplayName   string             `json:"display_name"`
	IsSystem      bool               `json:"is_system"`
	CreatedAt     time.Time          `json:"created_at"`
	Subcategories []CategoryResponse `json:"subcategories,omitempty"`
}

type CategoriesResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

// Reassigned counts the rows moved to another category by Delete.
type Reassigned struct {
	Transactions int64 `json:"transactions"`
	Budgets      int64 `json:"budgets"`
	Rules        int64 `json:"rules"`
}

type DeleteResult struct {
	Message      string     `json:"message"`
	ReassignedTo string     `json:"reassigned_to"`
	Reassigned   Reassigned `json:"reassigned"`
}
