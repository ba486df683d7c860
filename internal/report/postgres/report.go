package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/finance-tracker/internal/report"
)

// ReportRepository implements report.RepositoryAPI with hand-written
// aggregate queries. Placeholders are written as ? and rebound for the
// driver behind db.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) report.RepositoryAPI {
	return &ReportRepository{db: db}
}

// window renders the shared transaction filter for alias t.
func window(userID int64, rng report.Range) (string, []interface{}) {
	clauses := []string{"t.user_id = ?", "t.date >= ?", "t.date <= ?"}
	args := []interface{}{userID, rng.Start, rng.End}
	if !rng.IncludeExcluded {
		clauses = append(clauses, "t.is_excluded = ?")
		args = append(args, false)
	}
	return strings.Join(clauses, " AND "), args
}

func (r *ReportRepository) Totals(ctx context.Context, userID int64, rng report.Range) ([]report.TypeTotal, error) {
	where, args := window(userID, rng)
	query := r.db.Rebind(`
SELECT t.type AS type, COALESCE(SUM(t.amount), 0) AS total, COUNT(*) AS count
FROM transactions t
WHERE ` + where + `
GROUP BY t.type`)

	var out []report.TypeTotal
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("totals query: %w", err)
	}
	return out, nil
}

func (r *ReportRepository) CategoryTotals(ctx context.Context, userID int64, rng report.Range) ([]report.CategoryTotal, error) {
	where, args := window(userID, rng)
	query := r.db.Rebind(`
SELECT t.category_id AS category_id, c.name AS category_name, t.type AS type,
       COALESCE(SUM(t.amount), 0) AS total, COUNT(*) AS count
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
WHERE ` + where + `
GROUP BY t.category_id, c.name, t.type`)

	var out []report.CategoryTotal
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("category totals query: %w", err)
	}
	return out, nil
}

func (r *ReportRepository) BudgetActuals(ctx context.Context, userID int64, period string, year int, month *int, rng report.Range) ([]report.BudgetActual, error) {
	where, args := window(userID, rng)
	query := `
SELECT b.id AS budget_id, b.category_id AS category_id, c.name AS category_name, b.amount AS budgeted,
       COALESCE((SELECT SUM(t.amount) FROM transactions t
                 WHERE t.category_id = b.category_id AND t.type = 'expense' AND ` + where + `), 0) AS actual
FROM budgets b
LEFT JOIN categories c ON c.id = b.category_id
WHERE b.user_id = ? AND b.period = ? AND b.year = ?`
	args = append(args, userID, period, year)
	if month != nil {
		query += " AND b.month = ?"
		args = append(args, *month)
	}
	query += " ORDER BY b.id"

	var out []report.BudgetActual
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("budget actuals query: %w", err)
	}
	return out, nil
}

func (r *ReportRepository) TypeTotal(ctx context.Context, userID int64, txType string, rng report.Range) (decimal.Decimal, error) {
	where, args := window(userID, rng)
	query := r.db.Rebind(`SELECT COALESCE(SUM(t.amount), 0) FROM transactions t WHERE t.type = ? AND ` + where)

	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query, append([]interface{}{txType}, args...)...); err != nil {
		return decimal.Zero, fmt.Errorf("type total query: %w", err)
	}
	return total, nil
}
