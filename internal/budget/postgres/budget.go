package postgres

import (
	"errors"

	"github.com/frahmantamala/finance-tracker/internal/budget"
	budgetDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/budget"
	"gorm.io/gorm"
)

// BudgetRepository implements budget.RepositoryAPI using GORM
type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) budget.RepositoryAPI {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) List(userID int64, filter budget.ListFilter) ([]*budgetDatamodel.Budget, error) {
	var rows []*budgetDatamodel.Budget
	q := r.db.Where("user_id = ? AND for_excluded = ?", userID, filter.ForExcluded)
	if filter.Period != "" {
		q = q.Where("period = ?", filter.Period)
	}
	err := q.Order("year DESC").Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *BudgetRepository) GetByID(id int64) (*budgetDatamodel.Budget, error) {
	var row budgetDatamodel.Budget
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *BudgetRepository) Create(b *budgetDatamodel.Budget) error {
	return r.db.Create(b).Error
}

func (r *BudgetRepository) Update(b *budgetDatamodel.Budget) error {
	return r.db.Save(b).Error
}

func (r *BudgetRepository) Delete(id int64) error {
	return r.db.Delete(&budgetDatamodel.Budget{}, id).Error
}
