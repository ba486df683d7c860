package postgres

import (
	"errors"

	transactionDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/transaction"
	uploadDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/upload"
	"github.com/frahmantamala/finance-tracker/internal/upload"
	"gorm.io/gorm"
)

const insertBatchSize = 500

// UploadRepository implements upload.RepositoryAPI using GORM
type UploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) upload.RepositoryAPI {
	return &UploadRepository{db: db}
}

func (r *UploadRepository) List(userID int64) ([]*uploadDatamodel.Upload, error) {
	var rows []*uploadDatamodel.Upload
	err := r.db.Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *UploadRepository) GetByID(id int64) (*uploadDatamodel.Upload, error) {
	var row uploadDatamodel.Upload
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *UploadRepository) CreateWithTransactions(u *uploadDatamodel.Upload, txs []*transactionDatamodel.Transaction) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		if len(txs) == 0 {
			return nil
		}
		for _, t := range txs {
			id := u.ID
			t.UploadID = &id
		}
		return tx.CreateInBatches(txs, insertBatchSize).Error
	})
}
