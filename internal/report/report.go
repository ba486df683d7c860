// Package report aggregates transactions into summaries over Gregorian or
// Badí' date ranges.
package report

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeIncome  = "income"
	TypeExpense = "expense"

	dateLayout = "2006-01-02"

	// uncategorizedLabel names the bucket of transactions without a category.
	uncategorizedLabel = "Uncategorized"
)

// Range is an inclusive span of calendar days.
type Range struct {
	Start           time.Time
	End             time.Time
	IncludeExcluded bool
}

type TypeTotal struct {
	Type  string          `db:"type"`
	Total decimal.Decimal `db:"total"`
	Count int             `db:"count"`
}

type CategoryTotal struct {
	CategoryID   *int64          `db:"category_id"`
	CategoryName *string         `db:"category_name"`
	Type         string          `db:"type"`
	Total        decimal.Decimal `db:"total"`
	Count        int             `db:"count"`
}

type BudgetActual struct {
	BudgetID     int64           `db:"budget_id"`
	CategoryID   int64           `db:"category_id"`
	CategoryName *string         `db:"category_name"`
	Budgeted     decimal.Decimal `db:"budgeted"`
	Actual       decimal.Decimal `db:"actual"`
}

type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"amount"`
}
