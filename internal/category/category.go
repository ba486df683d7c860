package category

import (
	"time"

	categoryDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/category"
)

const (
	TypeIncome  = "income"
	TypeExpense = "expense"

	DefaultColor = "#3498db"
	DefaultIcon  = "folder"

	// UncategorizedName is the system category imports fall back to.
	UncategorizedName = "Uncategorized"
)

// Category is either top level or one level below a top level parent.
// A nil UserID marks a system category.
type Category struct {
	ID        int64
	Name      string
	Type      string
	Color     string
	Icon      string
	IsDefault bool
	ParentID  *int64
	UserID    *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Category) IsSystem() bool {
	return c.UserID == nil
}

func (c *Category) IsSubcategory() bool {
	return c.ParentID != nil
}

// VisibleTo reports whether userID may read c.
func (c *Category) VisibleTo(userID int64) bool {
	return c.UserID == nil || *c.UserID == userID
}

func (c *Category) ToResponse(parentName string) CategoryResponse {
	resp := CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Type:      c.Type,
		Color:     c.Color,
		Icon:      c.Icon,
		IsDefault: c.IsDefault,
		ParentID:  c.ParentID,
		IsSystem:  c.IsSystem(),
		CreatedAt: c.CreatedAt,
	}
	if parentName != "" {
		resp.ParentName = &parentName
		resp.DisplayName = parentName + " > " + c.Name
	} else {
		resp.DisplayName = c.Name
	}
	return resp
}

func ToDataModel(c *Category) *categoryDatamodel.Category {
	return &categoryDatamodel.Category{
		ID:        c.ID,
		Name:      c.Name,
		Type:      c.Type,
		Color:     c.Color,
		Icon:      c.Icon,
		IsDefault: c.IsDefault,
		ParentID:  c.ParentID,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func FromDataModel(c *categoryDatamodel.Category) *Category {
	return &Category{
		ID:        c.ID,
		Name:      c.Name,
		Type:      c.Type,
		Color:     c.Color,
		Icon:      c.Icon,
		IsDefault: c.IsDefault,
		ParentID:  c.ParentID,
		UserID:    c.UserID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
