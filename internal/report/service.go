package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/badi"
)

const (
	PeriodMonthly = "monthly"
	PeriodAnnual  = "annual"

	defaultTrendMonths = 6
	maxTrendMonths     = 36
)

var hundred = decimal.NewFromInt(100)

type RepositoryAPI interface {
	Totals(ctx context.Context, userID int64, rng Range) ([]TypeTotal, error)
	CategoryTotals(ctx context.Context, userID int64, rng Range) ([]CategoryTotal, error)
	// BudgetActuals pairs the user's budgets for period/year (and month when
	// given) with the spend in their category over rng.
	BudgetActuals(ctx context.Context, userID int64, period string, year int, month *int, rng Range) ([]BudgetActual, error)
	TypeTotal(ctx context.Context, userID int64, txType string, rng Range) (decimal.Decimal, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Summary totals income and expense over rng and breaks both down by
// category. Excluded transactions are left out unless rng asks for them.
func (s *Service) Summary(ctx context.Context, userID int64, rng Range) (*SummaryResponse, error) {
	if rng.End.Before(rng.Start) {
		return nil, internal.NewValidationError("end_date must not be before start_date", internal.ErrCodeInvalidDate)
	}

	totals, err := s.repo.Totals(ctx, userID, rng)
	if err != nil {
		s.logger.Error("failed to load totals", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to build summary", err)
	}
	byCategory, err := s.repo.CategoryTotals(ctx, userID, rng)
	if err != nil {
		s.logger.Error("failed to load category totals", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to build summary", err)
	}

	resp := &SummaryResponse{
		StartDate:    rng.Start.Format(dateLayout),
		EndDate:      rng.End.Format(dateLayout),
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		Categories:   make([]CategoryBreakdown, 0, len(byCategory)),
	}
	for _, t := range totals {
		switch t.Type {
		case TypeIncome:
			resp.TotalIncome = resp.TotalIncome.Add(t.Total)
		case TypeExpense:
			resp.TotalExpense = resp.TotalExpense.Add(t.Total)
		}
		resp.TransactionCount += t.Count
	}
	resp.Net = resp.TotalIncome.Sub(resp.TotalExpense)

	for _, c := range byCategory {
		name := uncategorizedLabel
		if c.CategoryName != nil {
			name = *c.CategoryName
		}
		typeTotal := resp.TotalExpense
		if c.Type == TypeIncome {
			typeTotal = resp.TotalIncome
		}
		resp.Categories = append(resp.Categories, CategoryBreakdown{
			CategoryID: c.CategoryID,
			Category:   name,
			Type:       c.Type,
			Amount:     c.Total,
			Count:      c.Count,
			Percentage: percentage(c.Total, typeTotal),
		})
	}
	sort.SliceStable(resp.Categories, func(i, j int) bool {
		if resp.Categories[i].Type != resp.Categories[j].Type {
			return resp.Categories[i].Type < resp.Categories[j].Type
		}
		return resp.Categories[i].Amount.GreaterThan(resp.Categories[j].Amount)
	})

	return resp, nil
}

// BadiMonthSummary is Summary over the Gregorian days of a Badí' month.
func (s *Service) BadiMonthSummary(ctx context.Context, userID int64, year, month int, includeExcluded bool) (*SummaryResponse, error) {
	start, end, err := badi.MonthDateRange(year, month)
	if err != nil {
		return nil, badiError(err)
	}
	resp, err := s.Summary(ctx, userID, Range{Start: start, End: end, IncludeExcluded: includeExcluded})
	if err != nil {
		return nil, err
	}
	m, _ := badi.MonthByNumber(month)
	resp.Label = fmt.Sprintf("%s %d BE", m.Name, year)
	return resp, nil
}

// BadiYearSummary is Summary over a whole Badí' year.
func (s *Service) BadiYearSummary(ctx context.Context, userID int64, year int, includeExcluded bool) (*SummaryResponse, error) {
	start, end, err := badi.YearDateRange(year)
	if err != nil {
		return nil, badiError(err)
	}
	resp, err := s.Summary(ctx, userID, Range{Start: start, End: end, IncludeExcluded: includeExcluded})
	if err != nil {
		return nil, err
	}
	resp.Label = fmt.Sprintf("%d BE", year)
	return resp, nil
}

// BudgetAnalysis compares monthly or annual budgets with actual spending.
func (s *Service) BudgetAnalysis(ctx context.Context, userID int64, period string, year int, month *int, includeExcluded bool) (*BudgetAnalysisResponse, error) {
	rng, err := GregorianRange(period, year, month)
	if err != nil {
		return nil, err
	}
	rng.IncludeExcluded = includeExcluded

	actuals, err := s.repo.BudgetActuals(ctx, userID, period, year, month, rng)
	if err != nil {
		s.logger.Error("failed to load budget actuals", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to analyse budgets", err)
	}

	out := make([]BudgetStatus, 0, len(actuals))
	for _, a := range actuals {
		name := uncategorizedLabel
		if a.CategoryName != nil {
			name = *a.CategoryName
		}
		status := "under"
		if !a.Actual.LessThan(a.Budgeted) {
			status = "over"
		}
		out = append(out, BudgetStatus{
			BudgetID:   a.BudgetID,
			CategoryID: a.CategoryID,
			Category:   name,
			Budgeted:   a.Budgeted,
			Actual:     a.Actual,
			Difference: a.Budgeted.Sub(a.Actual),
			Percentage: percentage(a.Actual, a.Budgeted),
			Status:     status,
		})
	}

	return &BudgetAnalysisResponse{
		Period:    period,
		StartDate: rng.Start.Format(dateLayout),
		EndDate:   rng.End.Format(dateLayout),
		Budgets:   out,
	}, nil
}

// Trend returns per-calendar-month totals of txType for the months ending
// with the month of now, oldest first.
func (s *Service) Trend(ctx context.Context, userID int64, txType string, months int, includeExcluded bool, now time.Time) (*TrendResponse, error) {
	if txType == "" {
		txType = TypeExpense
	}
	if txType != TypeIncome && txType != TypeExpense {
		return nil, internal.NewValidationFieldError("type", "type must be income or expense", internal.ErrCodeValidationFailed)
	}
	if months <= 0 {
		months = defaultTrendMonths
	}
	if months > maxTrendMonths {
		months = maxTrendMonths
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	data := make([]MonthTotal, 0, months)
	for i := months - 1; i >= 0; i-- {
		start := first.AddDate(0, -i, 0)
		end := start.AddDate(0, 1, -1)
		total, err := s.repo.TypeTotal(ctx, userID, txType, Range{Start: start, End: end, IncludeExcluded: includeExcluded})
		if err != nil {
			s.logger.Error("failed to load trend", "user_id", userID, "error", err)
			return nil, internal.NewInternalError("failed to build trend", err)
		}
		data = append(data, MonthTotal{Month: start.Format("2006-01"), Total: total})
	}

	return &TrendResponse{Type: txType, Months: months, Data: data}, nil
}

// GregorianRange resolves a monthly or annual period to its calendar days.
func GregorianRange(period string, year int, month *int) (Range, error) {
	if year < 1 {
		return Range{}, internal.NewValidationFieldError("year", "year is required", internal.ErrCodeInvalidPeriod)
	}
	switch period {
	case PeriodMonthly:
		if month == nil || *month < 1 || *month > 12 {
			return Range{}, internal.NewValidationFieldError("month", "month must be between 1 and 12", internal.ErrCodeInvalidPeriod)
		}
		start := time.Date(year, time.Month(*month), 1, 0, 0, 0, 0, time.UTC)
		return Range{Start: start, End: start.AddDate(0, 1, -1)}, nil
	case PeriodAnnual:
		return Range{
			Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		}, nil
	}
	return Range{}, internal.NewValidationFieldError("period", "period must be monthly or annual", internal.ErrCodeInvalidPeriod)
}

func percentage(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole).Round(2)
}

func badiError(err error) error {
	if errors.Is(err, badi.ErrInvalidDate) {
		return internal.NewValidationError(err.Error(), internal.ErrCodeInvalidDate)
	}
	return internal.NewInternalError("failed to resolve badi date range", err)
}
