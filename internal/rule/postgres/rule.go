package postgres

import (
	"errors"

	ruleDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/rule"
	"github.com/frahmantamala/finance-tracker/internal/rule"
	"gorm.io/gorm"
)

// evaluationOrder mirrors rule.SortByPrecedence so listings come back ready to use.
const evaluationOrder = "priority DESC, created_at DESC, id DESC"

// RuleRepository implements rule.RepositoryAPI using GORM
type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) rule.RepositoryAPI {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) GetByID(id int64) (*ruleDatamodel.CategorizationRule, error) {
	var data ruleDatamodel.CategorizationRule
	err := r.db.Where("id = ?", id).First(&data).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &data, nil
}

func (r *RuleRepository) GetByName(userID *int64, name string) (*ruleDatamodel.CategorizationRule, error) {
	var data ruleDatamodel.CategorizationRule
	err := scoped(r.db, userID).Where("name = ?", name).First(&data).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &data, nil
}

func (r *RuleRepository) ListPersonal(userID int64) ([]*ruleDatamodel.CategorizationRule, error) {
	return r.list(&userID, false)
}

func (r *RuleRepository) ListSystem() ([]*ruleDatamodel.CategorizationRule, error) {
	return r.list(nil, false)
}

func (r *RuleRepository) ListActivePersonal(userID int64) ([]*ruleDatamodel.CategorizationRule, error) {
	return r.list(&userID, true)
}

func (r *RuleRepository) ListActiveSystem() ([]*ruleDatamodel.CategorizationRule, error) {
	return r.list(nil, true)
}

func (r *RuleRepository) Create(data *ruleDatamodel.CategorizationRule) error {
	return r.db.Create(data).Error
}

// CreateBatch inserts every rule inside one transaction.
func (r *RuleRepository) CreateBatch(rules []*ruleDatamodel.CategorizationRule) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, data := range rules {
			if err := tx.Create(data).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *RuleRepository) Update(data *ruleDatamodel.CategorizationRule) error {
	return r.db.Save(data).Error
}

func (r *RuleRepository) Delete(id int64) error {
	return r.db.Delete(&ruleDatamodel.CategorizationRule{}, id).Error
}

func (r *RuleRepository) list(userID *int64, activeOnly bool) ([]*ruleDatamodel.CategorizationRule, error) {
	var rows []*ruleDatamodel.CategorizationRule
	q := scoped(r.db, userID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order(evaluationOrder).Find(&rows).Error
	return rows, err
}

func scoped(db *gorm.DB, userID *int64) *gorm.DB {
	if userID == nil {
		return db.Where("user_id IS NULL")
	}
	return db.Where("user_id = ?", *userID)
}
