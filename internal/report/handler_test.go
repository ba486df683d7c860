package report_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/report"
	"github.com/frahmantamala/finance-tracker/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// stubService records the arguments it was called with.
type stubService struct {
	rng     report.Range
	year    int
	month   int
	period  string
	reqMon  *int
	months  int
	txType  string
	summary report.SummaryResponse
}

func (s *stubService) Summary(ctx context.Context, userID int64, rng report.Range) (*report.SummaryResponse, error) {
	s.rng = rng
	return &s.summary, nil
}

func (s *stubService) BadiMonthSummary(ctx context.Context, userID int64, year, month int, includeExcluded bool) (*report.SummaryResponse, error) {
	s.year, s.month = year, month
	return &s.summary, nil
}

func (s *stubService) BadiYearSummary(ctx context.Context, userID int64, year int, includeExcluded bool) (*report.SummaryResponse, error) {
	s.year = year
	return &s.summary, nil
}

func (s *stubService) BudgetAnalysis(ctx context.Context, userID int64, period string, year int, month *int, includeExcluded bool) (*report.BudgetAnalysisResponse, error) {
	s.period, s.year, s.reqMon = period, year, month
	return &report.BudgetAnalysisResponse{Period: period}, nil
}

func (s *stubService) Trend(ctx context.Context, userID int64, txType string, months int, includeExcluded bool, now time.Time) (*report.TrendResponse, error) {
	s.txType, s.months = txType, months
	return &report.TrendResponse{Type: txType, Months: months}, nil
}

var _ = Describe("Report Handler", func() {
	var (
		stub   *stubService
		router chi.Router
	)

	BeforeEach(func() {
		stub = &stubService{summary: report.SummaryResponse{TotalIncome: decimal.NewFromInt(5)}}
		handler := report.NewHandler(transport.NewBaseHandler(nil), stub)
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user := &internal.CurrentUser{ID: 7, Role: "viewer"}
				next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), user)))
			})
		})
		router.Get("/reports/summary", handler.GetSummary)
		router.Get("/reports/badi/month", handler.GetBadiMonthSummary)
		router.Get("/reports/badi/year", handler.GetBadiYearSummary)
		router.Get("/reports/budget-analysis", handler.GetBudgetAnalysis)
		router.Get("/reports/trending", handler.GetTrend)
	})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	It("uses explicit dates", func() {
		rec := get("/reports/summary?start_date=2024-03-01&end_date=2024-03-31&include_excluded=true")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(stub.rng.Start).To(Equal(day(2024, 3, 1)))
		Expect(stub.rng.End).To(Equal(day(2024, 3, 31)))
		Expect(stub.rng.IncludeExcluded).To(BeTrue())

		var body report.SummaryResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.TotalIncome.Equal(decimal.NewFromInt(5))).To(BeTrue())
	})

	It("resolves a monthly period", func() {
		Expect(get("/reports/summary?period=monthly&year=2024&month=2").Code).To(Equal(http.StatusOK))
		Expect(stub.rng.End).To(Equal(day(2024, 2, 29)))
	})

	It("rejects malformed dates and periods", func() {
		Expect(get("/reports/summary?start_date=2024-03-01&end_date=tomorrow").Code).To(Equal(http.StatusBadRequest))
		Expect(get("/reports/summary?period=weekly&year=2024").Code).To(Equal(http.StatusBadRequest))
	})

	It("requires year and month for Badí' months", func() {
		Expect(get("/reports/badi/month?year=181").Code).To(Equal(http.StatusBadRequest))
		Expect(get("/reports/badi/month?year=181&month=0").Code).To(Equal(http.StatusOK))
		Expect(stub.month).To(Equal(0))
		Expect(get("/reports/badi/year?year=181").Code).To(Equal(http.StatusOK))
		Expect(stub.year).To(Equal(181))
	})

	It("passes budget analysis and trend parameters through", func() {
		Expect(get("/reports/budget-analysis?period=annual&year=2023").Code).To(Equal(http.StatusOK))
		Expect(stub.period).To(Equal("annual"))
		Expect(stub.reqMon).To(BeNil())

		Expect(get("/reports/trending?months=12&type=income").Code).To(Equal(http.StatusOK))
		Expect(stub.months).To(Equal(12))
		Expect(stub.txType).To(Equal("income"))
		Expect(get("/reports/trending?months=many").Code).To(Equal(http.StatusBadRequest))
	})
})
