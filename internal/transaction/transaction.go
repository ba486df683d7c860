package transaction

import (
	"time"

	"github.com/shopspring/decimal"

	transactionDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/transaction"
)

const (
	TypeIncome  = "income"
	TypeExpense = "expense"

	SourceManual = "manual"
	SourceUpload = "upload"

	DateLayout = "2006-01-02"
)

// Transaction amounts are always positive; Type carries the direction.
type Transaction struct {
	ID          int64
	UserID      int64
	Description string
	Amount      decimal.Decimal
	Type        string
	Date        time.Time
	CategoryID  *int64
	IsExcluded  bool
	Source      string
	UploadID    *int64
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t *Transaction) ToggleExcluded() {
	t.IsExcluded = !t.IsExcluded
}

func (t *Transaction) ToResponse(categoryName string) TransactionResponse {
	resp := TransactionResponse{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount,
		Type:        t.Type,
		Date:        t.Date.Format(DateLayout),
		CategoryID:  t.CategoryID,
		IsExcluded:  t.IsExcluded,
		Source:      t.Source,
		UploadID:    t.UploadID,
		Notes:       t.Notes,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if categoryName != "" {
		resp.CategoryName = &categoryName
	}
	return resp
}

// ParseDate reads a calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func ToDataModel(t *Transaction) *transactionDatamodel.Transaction {
	return &transactionDatamodel.Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		Description: t.Description,
		Amount:      t.Amount,
		Type:        t.Type,
		Date:        t.Date,
		CategoryID:  t.CategoryID,
		IsExcluded:  t.IsExcluded,
		Source:      t.Source,
		UploadID:    t.UploadID,
		Notes:       t.Notes,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromDataModel(t *transactionDatamodel.Transaction) *Transaction {
	return &Transaction{
		ID:          t.ID,
		UserID:      t.UserID,
		Description: t.Description,
		Amount:      t.Amount,
		Type:        t.Type,
		Date:        t.Date,
		CategoryID:  t.CategoryID,
		IsExcluded:  t.IsExcluded,
		Source:      t.Source,
		UploadID:    t.UploadID,
		Notes:       t.Notes,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*transactionDatamodel.Transaction) []*Transaction {
	out := make([]*Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
