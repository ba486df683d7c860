package report

import "github.com/shopspring/decimal"

type CategoryBreakdown struct {
	CategoryID *int64          `json:"category_id"`
	Category   string          `json:"category"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Count      int             `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}

type SummaryResponse struct {
	Label            string              `json:"label,omitempty"`
	StartDate        string              `json:"start_date"`
	EndDate          string              `json:"end_date"`
	TotalIncome      decimal.Decimal     `json:"total_income"`
	TotalExpense     decimal.Decimal     `json:"total_expense"`
	Net              decimal.Decimal     `json:"net"`
	TransactionCount int                 `json:"transaction_count"`
	Categories       []CategoryBreakdown `json:"categories"`
}

type BudgetStatus struct {
	BudgetID   int64           `json:"budget_id"`
	CategoryID int64           `json:"category_id"`
	Category   string          `json:"category"`
	Budgeted   decimal.Decimal `json:"budgeted"`
	Actual     decimal.Decimal `json:"actual"`
	Difference decimal.Decimal `json:"difference"`
	Percentage decimal.Decimal `json:"percentage"`
	Status     string          `json:"status"`
}

type BudgetAnalysisResponse struct {
	Period    string         `json:"period"`
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Budgets   []BudgetStatus `json:"budgets"`
}

type TrendResponse struct {
	Type   string       `json:"type"`
	Months int          `json:"months"`
	Data   []MonthTotal `json:"data"`
}
