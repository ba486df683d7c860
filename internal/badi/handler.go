package badi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/transport"
	"github.com/frahmantamala/finance-tracker/pkg/logger"
)

const isoDate = "2006-01-02"

// yearsBack is how many past years GetYears offers besides the current one.
const yearsBack = 5

type Handler struct {
	*transport.BaseHandler
	now func() time.Time
}

func NewHandler() *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		now:         time.Now,
	}
}

// WithClock replaces the time source, used by tests.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

type DateResponse struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	MonthInfo *Month `json:"month_info"`
	Formatted string `json:"formatted"`
}

type GregorianResponse struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Day       int    `json:"day"`
	Formatted string `json:"formatted"`
}

type DateRangeResponse struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	BadiYear  int    `json:"badi_year"`
	BadiMonth *int   `json:"badi_month"`
	MonthInfo *Month `json:"month_info"`
}

type YearsResponse struct {
	CurrentYear int   `json:"current_year"`
	Years       []int `json:"years"`
}

type YearToBadiResponse struct {
	GregorianYear  int `json:"gregorian_year"`
	GregorianMonth int `json:"gregorian_month"`
	BadiYear       int `json:"badi_year"`
}

func newDateResponse(d Date) DateResponse {
	resp := DateResponse{Year: d.Year, Month: d.Month, Day: d.Day, Formatted: d.String()}
	if m, ok := MonthByNumber(d.Month); ok {
		resp.MonthInfo = &m
	}
	return resp
}

func (h *Handler) GetMonths(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, Months())
}

func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, newDateResponse(Today(h.now())))
}

func (h *Handler) ConvertFromGregorian(w http.ResponseWriter, r *http.Request) {
	year, month, day, err := requiredYMD(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	g := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if g.Year() != year || int(g.Month()) != month || g.Day() != day {
		h.HandleServiceError(w, internal.NewValidationError("invalid gregorian date", internal.ErrCodeInvalidDate))
		return
	}

	h.WriteJSON(w, http.StatusOK, newDateResponse(ToBadi(g)))
}

func (h *Handler) ConvertToGregorian(w http.ResponseWriter, r *http.Request) {
	year, month, day, err := requiredYMD(r)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	g, err := ToGregorian(year, month, day)
	if err != nil {
		h.HandleServiceError(w, toAppError(err))
		return
	}

	h.WriteJSON(w, http.StatusOK, GregorianResponse{
		Year:      g.Year(),
		Month:     int(g.Month()),
		Day:       g.Day(),
		Formatted: g.Format(isoDate),
	})
}

// GetDateRange resolves a month when one is given, otherwise the whole year.
func (h *Handler) GetDateRange(w http.ResponseWriter, r *http.Request) {
	year, ok, err := transport.QueryInt(r, "year")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if !ok {
		h.HandleServiceError(w, missingParams("year"))
		return
	}
	month, hasMonth, err := transport.QueryInt(r, "month")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := DateRangeResponse{BadiYear: year}
	var start, end time.Time
	if hasMonth {
		start, end, err = MonthDateRange(year, month)
		resp.BadiMonth = &month
		if m, found := MonthByNumber(month); found {
			resp.MonthInfo = &m
		}
	} else {
		start, end, err = YearDateRange(year)
	}
	if err != nil {
		h.HandleServiceError(w, toAppError(err))
		return
	}

	resp.Start = start.Format(isoDate)
	resp.End = end.Format(isoDate)
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetYears(w http.ResponseWriter, r *http.Request) {
	current := Today(h.now()).Year
	years := make([]int, 0, yearsBack+1)
	for y := current - yearsBack; y <= current; y++ {
		years = append(years, y)
	}
	h.WriteJSON(w, http.StatusOK, YearsResponse{CurrentYear: current, Years: years})
}

func (h *Handler) GregorianYearToBadi(w http.ResponseWriter, r *http.Request) {
	year, ok, err := transport.QueryInt(r, "year")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if !ok {
		h.HandleServiceError(w, missingParams("year"))
		return
	}
	month, hasMonth, err := transport.QueryInt(r, "month")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if !hasMonth {
		month = 1
	}

	h.WriteJSON(w, http.StatusOK, YearToBadiResponse{
		GregorianYear:  year,
		GregorianMonth: month,
		BadiYear:       GregorianYearToBadiYear(year, month),
	})
}

func requiredYMD(r *http.Request) (int, int, int, error) {
	year, hasYear, err := transport.QueryInt(r, "year")
	if err != nil {
		return 0, 0, 0, err
	}
	month, hasMonth, err := transport.QueryInt(r, "month")
	if err != nil {
		return 0, 0, 0, err
	}
	day, hasDay, err := transport.QueryInt(r, "day")
	if err != nil {
		return 0, 0, 0, err
	}
	if !hasYear || !hasMonth || !hasDay {
		return 0, 0, 0, missingParams("year, month, day")
	}
	return year, month, day, nil
}

func missingParams(names string) error {
	return internal.NewValidationError("missing required parameters: "+names, internal.ErrCodeValidationFailed)
}

func toAppError(err error) error {
	if errors.Is(err, ErrInvalidDate) {
		return internal.NewValidationError(err.Error(), internal.ErrCodeInvalidDate)
	}
	return err
}
