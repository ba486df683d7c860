package postgres

import (
	transactionDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/transaction"
	"github.com/frahmantamala/finance-tracker/internal/rule"
	"gorm.io/gorm"
)

// TransactionStore gives the rule service the narrow view of the
// transactions table it needs for re-categorization.
type TransactionStore struct {
	db *gorm.DB
}

func NewTransactionStore(db *gorm.DB) rule.TransactionStore {
	return &TransactionStore{db: db}
}

// ListForCategorization returns every transaction of userID, excluded ones included.
func (s *TransactionStore) ListForCategorization(userID int64) ([]rule.Categorizable, error) {
	var rows []transactionDatamodel.Transaction
	err := s.db.Select("id", "description", "category_id").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]rule.Categorizable, 0, len(rows))
	for _, row := range rows {
		out = append(out, rule.Categorizable{
			ID:          row.ID,
			Description: row.Description,
			CategoryID:  row.CategoryID,
		})
	}
	return out, nil
}

func (s *TransactionStore) ReassignCategories(userID int64, changes []rule.Change) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, c := range changes {
			err := tx.Model(&transactionDatamodel.Transaction{}).
				Where("id = ? AND user_id = ?", c.TransactionID, userID).
				Update("category_id", c.NewCategoryID).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
