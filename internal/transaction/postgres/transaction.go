package postgres

import (
	"errors"

	transactionDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/transaction"
	"github.com/frahmantamala/finance-tracker/internal/transaction"
	"gorm.io/gorm"
)

// TransactionRepository implements transaction.RepositoryAPI using GORM
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) transaction.RepositoryAPI {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) List(userID int64, filter transaction.ListFilter) ([]*transactionDatamodel.Transaction, error) {
	var rows []*transactionDatamodel.Transaction
	q := r.db.Where("user_id = ?", userID)
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if !filter.IncludeExcluded {
		q = q.Where("is_excluded = ?", false)
	}
	if filter.StartDate != nil {
		q = q.Where("date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("date <= ?", *filter.EndDate)
	}
	err := q.Order("date DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error
	return rows, err
}

func (r *TransactionRepository) GetByID(id int64) (*transactionDatamodel.Transaction, error) {
	var row transactionDatamodel.Transaction
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *TransactionRepository) Create(tx *transactionDatamodel.Transaction) error {
	return r.db.Create(tx).Error
}

func (r *TransactionRepository) Update(tx *transactionDatamodel.Transaction) error {
	return r.db.Save(tx).Error
}

func (r *TransactionRepository) Delete(id int64) error {
	return r.db.Delete(&transactionDatamodel.Transaction{}, id).Error
}

func (r *TransactionRepository) CountOwned(userID int64, ids []int64) (int64, error) {
	var n int64
	err := r.db.Model(&transactionDatamodel.Transaction{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Count(&n).Error
	return n, err
}

func (r *TransactionRepository) UpdateFields(userID int64, ids []int64, fields map[string]interface{}) (int64, error) {
	res := r.db.Model(&transactionDatamodel.Transaction{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *TransactionRepository) DeleteOwned(userID int64, ids []int64) (int64, error) {
	res := r.db.Where("user_id = ? AND id IN ?", userID, ids).Delete(&transactionDatamodel.Transaction{})
	return res.RowsAffected, res.Error
}
