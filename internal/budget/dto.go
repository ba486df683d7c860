package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/core/common/validation"
)

const (
	minYear = 1900
	maxYear = 2200
)

type ListFilter struct {
	Period      string
	ForExcluded bool
}

type CreateBudgetDTO struct {
	CategoryID  int64           `json:"category_id"`
	Amount      decimal.Decimal `json:"amount"`
	Period      string          `json:"period"`
	Year        int             `json:"year"`
	Month       *int            `json:"month,omitempty"`
	Week        *int            `json:"week,omitempty"`
	ForExcluded bool            `json:"for_excluded"`
}

func (d CreateBudgetDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("category_id", d.CategoryID).Required()
	v.Field("period", d.Period).Required().OneOf(internal.ErrCodeInvalidPeriod, Periods...)
	v.Field("year", int64(d.Year)).
		MinInt(minYear, internal.ErrCodeInvalidPeriod).
		MaxInt(maxYear, internal.ErrCodeInvalidPeriod)
	if err := v.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateAmount(d.Amount); err != nil {
		return err
	}
	return validatePeriodFields(d.Period, d.Month, d.Week)
}

// UpdateBudgetDTO changes amount and the month or week slot; period and
// category are fixed once a budget exists.
type UpdateBudgetDTO struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Month  *int             `json:"month,omitempty"`
	Week   *int             `json:"week,omitempty"`
}

func (d UpdateBudgetDTO) Validate() error {
	if d.Amount != nil {
		if err := validation.ValidateAmount(*d.Amount); err != nil {
			return err
		}
	}
	return nil
}

type BudgetResponse struct {
	ID           int64           `json:"id"`
	CategoryID   int64           `json:"category_id"`
	CategoryName *string         `json:"category_name"`
	Amount       decimal.Decimal `json:"amount"`
	Period       string          `json:"period"`
	Year         int             `json:"year"`
	Month        *int            `json:"month"`
	Week         *int            `json:"week"`
	ForExcluded  bool            `json:"for_excluded"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type BudgetsResponse struct {
	Budgets []BudgetResponse `json:"budgets"`
}

// validatePeriodFields checks that month/week are present where the period
// needs them and in range wherever given.
func validatePeriodFields(period string, month, week *int) error {
	if period == PeriodMonthly && month == nil {
		return internal.NewValidationFieldError("month", "month is required for monthly budgets", internal.ErrCodeInvalidPeriod)
	}
	if period == PeriodWeekly && week == nil {
		return internal.NewValidationFieldError("week", "week is required for weekly budgets", internal.ErrCodeInvalidPeriod)
	}

	v := validation.NewValidator()
	if month != nil {
		v.Field("month", int64(*month)).
			MinInt(1, internal.ErrCodeInvalidPeriod).
			MaxInt(12, internal.ErrCodeInvalidPeriod)
	}
	if week != nil {
		v.Field("week", int64(*week)).
			MinInt(1, internal.ErrCodeInvalidPeriod).
			MaxInt(53, internal.ErrCodeInvalidPeriod)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
