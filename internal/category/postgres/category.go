package postgres

import (
	"errors"

	"github.com/frahmantamala/finance-tracker/internal/category"
	budgetDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/budget"
	categoryDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/category"
	ruleDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/rule"
	transactionDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/transaction"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) category.RepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) GetByID(id int64) (*categoryDatamodel.Category, error) {
	var cat categoryDatamodel.Category
	err := r.db.Where("id = ?", id).First(&cat).Error
	return found(&cat, err)
}

func (r *CategoryRepository) GetByIDs(ids []int64) ([]*categoryDatamodel.Category, error) {
	var cats []*categoryDatamodel.Category
	if len(ids) == 0 {
		return cats, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&cats).Error
	return cats, err
}

func (r *CategoryRepository) ListAccessible(userID int64, filter category.ListFilter) ([]*categoryDatamodel.Category, error) {
	var cats []*categoryDatamodel.Category
	q := r.db.Where("(user_id IS NULL OR user_id = ?)", userID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.ParentsOnly {
		q = q.Where("parent_id IS NULL")
	}
	err := q.Order("name ASC").Order("id ASC").Find(&cats).Error
	return cats, err
}

func (r *CategoryRepository) ListChildren(parentID int64) ([]*categoryDatamodel.Category, error) {
	var cats []*categoryDatamodel.Category
	err := r.db.Where("parent_id = ?", parentID).Order("name ASC").Find(&cats).Error
	return cats, err
}

func (r *CategoryRepository) FindByName(owner, parentID *int64, name string) (*categoryDatamodel.Category, error) {
	var cat categoryDatamodel.Category
	q := ownedBy(r.db, owner).Where("name = ?", name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	err := q.First(&cat).Error
	return found(&cat, err)
}

func (r *CategoryRepository) FindAnyByName(owner *int64, name string) (*categoryDatamodel.Category, error) {
	var cat categoryDatamodel.Category
	err := ownedBy(r.db, owner).
		Where("name = ?", name).
		Order("parent_id IS NOT NULL").
		Order("id ASC").
		First(&cat).Error
	return found(&cat, err)
}

func (r *CategoryRepository) FindDefault(owner *int64, categoryType string) (*categoryDatamodel.Category, error) {
	var cat categoryDatamodel.Category
	err := ownedBy(r.db, owner).
		Where("type = ? AND is_default = ? AND parent_id IS NULL", categoryType, true).
		First(&cat).Error
	return found(&cat, err)
}

func (r *CategoryRepository) Create(cat *categoryDatamodel.Category) error {
	return r.db.Create(cat).Error
}

func (r *CategoryRepository) Update(cat *categoryDatamodel.Category) error {
	return r.db.Save(cat).Error
}

func (r *CategoryRepository) SetDefault(cat *categoryDatamodel.Category) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := ownedBy(tx.Model(&categoryDatamodel.Category{}), cat.UserID).
			Where("type = ? AND parent_id IS NULL", cat.Type).
			Update("is_default", false).Error
		if err != nil {
			return err
		}
		return tx.Model(&categoryDatamodel.Category{}).
			Where("id = ?", cat.ID).
			Update("is_default", true).Error
	})
}

func (r *CategoryRepository) DeleteAndReassign(ids []int64, target int64) (category.Reassigned, error) {
	var moved category.Reassigned
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&transactionDatamodel.Transaction{}).Where("category_id IN ?", ids).Update("category_id", target)
		if res.Error != nil {
			return res.Error
		}
		moved.Transactions = res.RowsAffected

		res = tx.Model(&budgetDatamodel.Budget{}).Where("category_id IN ?", ids).Update("category_id", target)
		if res.Error != nil {
			return res.Error
		}
		moved.Budgets = res.RowsAffected

		res = tx.Model(&ruleDatamodel.CategorizationRule{}).Where("category_id IN ?", ids).Update("category_id", target)
		if res.Error != nil {
			return res.Error
		}
		moved.Rules = res.RowsAffected

		// children first so the parent_id reference never dangles
		if err := tx.Where("id IN ? AND parent_id IS NOT NULL", ids).Delete(&categoryDatamodel.Category{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&categoryDatamodel.Category{}).Error
	})
	return moved, err
}

func ownedBy(db *gorm.DB, owner *int64) *gorm.DB {
	if owner == nil {
		return db.Where("user_id IS NULL")
	}
	return db.Where("user_id = ?", *owner)
}

func found(cat *categoryDatamodel.Category, err error) (*categoryDatamodel.Category, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return cat, nil
}
