package budget

import (
	"time"

	"github.com/shopspring/decimal"

	budgetDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/budget"
)

const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAnnual  = "annual"
)

var Periods = []string{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAnnual}

type Budget struct {
	ID          int64
	UserID      int64
	CategoryID  int64
	Amount      decimal.Decimal
	Period      string
	Year        int
	Month       *int
	Week        *int
	ForExcluded bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (b *Budget) ToResponse(categoryName string) BudgetResponse {
	resp := BudgetResponse{
		ID:          b.ID,
		CategoryID:  b.CategoryID,
		Amount:      b.Amount,
		Period:      b.Period,
		Year:        b.Year,
		Month:       b.Month,
		Week:        b.Week,
		ForExcluded: b.ForExcluded,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if categoryName != "" {
		resp.CategoryName = &categoryName
	}
	return resp
}

func ToDataModel(b *Budget) *budgetDatamodel.Budget {
	return &budgetDatamodel.Budget{
		ID:          b.ID,
		UserID:      b.UserID,
		CategoryID:  b.CategoryID,
		Amount:      b.Amount,
		Period:      b.Period,
		Year:        b.Year,
		Month:       b.Month,
		Week:        b.Week,
		ForExcluded: b.ForExcluded,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func FromDataModel(b *budgetDatamodel.Budget) *Budget {
	return &Budget{
		ID:          b.ID,
		UserID:      b.UserID,
		CategoryID:  b.CategoryID,
		Amount:      b.Amount,
		Period:      b.Period,
		Year:        b.Year,
		Month:       b.Month,
		Week:        b.Week,
		ForExcluded: b.ForExcluded,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
