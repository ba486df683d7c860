package transaction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/core/common/validation"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// ListFilter narrows List. Dates are inclusive.
type ListFilter struct {
	CategoryID      *int64
	Type            string
	StartDate       *time.Time
	EndDate         *time.Time
	IncludeExcluded bool
	Limit           int
	Offset          int
}

func (f *ListFilter) normalize() {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

type CreateTransactionDTO struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	CategoryID  *int64          `json:"category_id,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

func (d CreateTransactionDTO) Validate() error {
	if err := validation.ValidateDescription(d.Description); err != nil {
		return err
	}
	if err := validation.ValidateAmount(d.Amount); err != nil {
		return err
	}
	if err := validateType(d.Type); err != nil {
		return err
	}
	if _, err := parseDateField(d.Date); err != nil {
		return err
	}
	return nil
}

type UpdateTransactionDTO struct {
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Type        *string          `json:"type,omitempty"`
	Date        *string          `json:"date,omitempty"`
	CategoryID  *int64           `json:"category_id,omitempty"`
	IsExcluded  *bool            `json:"is_excluded,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

func (d UpdateTransactionDTO) Validate() error {
	if d.Description != nil {
		if err := validation.ValidateDescription(*d.Description); err != nil {
			return err
		}
	}
	if d.Amount != nil {
		if err := validation.ValidateAmount(*d.Amount); err != nil {
			return err
		}
	}
	if d.Type != nil {
		if err := validateType(*d.Type); err != nil {
			return err
		}
	}
	if d.Date != nil {
		if _, err := parseDateField(*d.Date); err != nil {
			return err
		}
	}
	return nil
}

type ChangeCategoryDTO struct {
	TransactionIDs []int64 `json:"transaction_ids"`
}

type BulkUpdateDTO struct {
	TransactionIDs []int64 `json:"transaction_ids"`
	CategoryID     *int64  `json:"category_id,omitempty"`
	Type           *string `json:"type,omitempty"`
	IsExcluded     *bool   `json:"is_excluded,omitempty"`
}

func (d BulkUpdateDTO) Validate() error {
	if len(d.TransactionIDs) == 0 {
		return errMissingIDs
	}
	if d.Type != nil {
		if err := validateType(*d.Type); err != nil {
			return err
		}
	}
	return nil
}

type BulkDeleteDTO struct {
	TransactionIDs []int64 `json:"transaction_ids"`
}

type TransactionResponse struct {
	ID           int64           `json:"id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Type         string          `json:"type"`
	Date         string          `json:"date"`
	CategoryID   *int64          `json:"category_id"`
	CategoryName *string         `json:"category_name"`
	IsExcluded   bool            `json:"is_excluded"`
	Source       string          `json:"source"`
	UploadID     *int64          `json:"upload_id,omitempty"`
	Notes        string          `json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type TransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Count        int                   `json:"count"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

type BulkResult struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

var errMissingIDs = internal.NewValidationFieldError("transaction_ids", "transaction_ids is required", internal.ErrCodeValidationFailed)

func validateType(t string) error {
	v := validation.NewValidator()
	v.Field("type", t).Required().OneOf(internal.ErrCodeValidationFailed, TypeIncome, TypeExpense)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func parseDateField(s string) (time.Time, error) {
	d, err := ParseDate(s)
	if err != nil {
		return time.Time{}, internal.NewValidationFieldError("date", "date must be formatted YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	return d, nil
}
