package report

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/transport"
)

type ServiceAPI interface {
	Summary(ctx context.Context, userID int64, rng Range) (*SummaryResponse, error)
	BadiMonthSummary(ctx context.Context, userID int64, year, month int, includeExcluded bool) (*SummaryResponse, error)
	BadiYearSummary(ctx context.Context, userID int64, year int, includeExcluded bool) (*SummaryResponse, error)
	BudgetAnalysis(ctx context.Context, userID int64, period string, year int, month *int, includeExcluded bool) (*BudgetAnalysisResponse, error)
	Trend(ctx context.Context, userID int64, txType string, months int, includeExcluded bool, now time.Time) (*TrendResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	now     func() time.Time
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		now:         time.Now,
	}
}

// GetSummary accepts either start_date/end_date or period/year/month.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}

	rng, err := h.summaryRange(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	rng.IncludeExcluded = includeExcluded(r)

	summary, err := h.Service.Summary(r.Context(), user.ID, rng)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) GetBadiMonthSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	year, err := requiredInt(r, "year")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	month, err := requiredInt(r, "month")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	summary, err := h.Service.BadiMonthSummary(r.Context(), user.ID, year, month, includeExcluded(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) GetBadiYearSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	year, err := requiredInt(r, "year")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	summary, err := h.Service.BadiYearSummary(r.Context(), user.ID, year, includeExcluded(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) GetBudgetAnalysis(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	period, year, month, err := h.periodParams(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	analysis, err := h.Service.BudgetAnalysis(r.Context(), user.ID, period, year, month, includeExcluded(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, analysis)
}

func (h *Handler) GetTrend(w http.ResponseWriter, r *http.Request) {
	user, ok := h.CurrentUser(w, r)
	if !ok {
		return
	}
	months, _, err := transport.QueryInt(r, "months")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	trend, err := h.Service.Trend(r.Context(), user.ID, r.URL.Query().Get("type"), months, includeExcluded(r), h.now())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, trend)
}

func (h *Handler) summaryRange(r *http.Request) (Range, error) {
	q := r.URL.Query()
	if q.Get("start_date") != "" || q.Get("end_date") != "" {
		start, err := time.ParseInLocation(dateLayout, q.Get("start_date"), time.UTC)
		if err != nil {
			return Range{}, internal.NewValidationFieldError("start_date", "start_date must be formatted YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
		end, err := time.ParseInLocation(dateLayout, q.Get("end_date"), time.UTC)
		if err != nil {
			return Range{}, internal.NewValidationFieldError("end_date", "end_date must be formatted YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
		return Range{Start: start, End: end}, nil
	}

	period, year, month, err := h.periodParams(r)
	if err != nil {
		return Range{}, err
	}
	return GregorianRange(period, year, month)
}

// periodParams defaults to the current month.
func (h *Handler) periodParams(r *http.Request) (string, int, *int, error) {
	now := h.now()
	period := r.URL.Query().Get("period")
	if period == "" {
		period = PeriodMonthly
	}

	year, hasYear, err := transport.QueryInt(r, "year")
	if err != nil {
		return "", 0, nil, err
	}
	if !hasYear {
		year = now.Year()
	}

	if period != PeriodMonthly {
		return period, year, nil, nil
	}
	month, hasMonth, err := transport.QueryInt(r, "month")
	if err != nil {
		return "", 0, nil, err
	}
	if !hasMonth {
		month = int(now.Month())
	}
	return period, year, &month, nil
}

func requiredInt(r *http.Request, name string) (int, error) {
	v, ok, err := transport.QueryInt(r, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, internal.NewValidationFieldError(name, name+" is required", internal.ErrCodeValidationFailed)
	}
	return v, nil
}

func includeExcluded(r *http.Request) bool {
	return r.URL.Query().Get("include_excluded") == "true"
}
