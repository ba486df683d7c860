package badi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/frahmantamala/finance-tracker/internal/badi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Badi Handler", func() {
	var handler *badi.Handler

	BeforeEach(func() {
		fixed := time.Date(2024, time.April, 8, 15, 0, 0, 0, time.UTC)
		handler = badi.NewHandler().WithClock(func() time.Time { return fixed })
	})

	serve := func(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		h(w, req)
		return w
	}

	It("lists all months", func() {
		w := serve(handler.GetMonths, "/calendar/badi/months")
		Expect(w.Code).To(Equal(http.StatusOK))

		var months []badi.Month
		Expect(json.NewDecoder(w.Body).Decode(&months)).To(Succeed())
		Expect(months).To(HaveLen(20))
	})

	It("returns the current Badi date", func() {
		w := serve(handler.GetCurrent, "/calendar/badi/current")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp badi.DateResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Year).To(Equal(181))
		Expect(resp.Month).To(Equal(2))
		Expect(resp.Day).To(Equal(1))
		Expect(resp.MonthInfo).NotTo(BeNil())
		Expect(resp.MonthInfo.Name).To(Equal("Jalál"))
		Expect(resp.Formatted).To(Equal("1 Jalál 181 BE"))
	})

	Context("converting from Gregorian", func() {
		It("converts a valid date", func() {
			w := serve(handler.ConvertFromGregorian, "/calendar/badi/convert/from-gregorian?year=2024&month=3&day=20")
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp badi.DateResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Year).To(Equal(181))
			Expect(resp.Month).To(Equal(1))
			Expect(resp.Day).To(Equal(1))
		})

		It("rejects missing parameters", func() {
			w := serve(handler.ConvertFromGregorian, "/calendar/badi/convert/from-gregorian?year=2024")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an impossible Gregorian date", func() {
			w := serve(handler.ConvertFromGregorian, "/calendar/badi/convert/from-gregorian?year=2023&month=2&day=29")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("INVALID_DATE"))
		})

		It("rejects non numeric parameters", func() {
			w := serve(handler.ConvertFromGregorian, "/calendar/badi/convert/from-gregorian?year=abc&month=2&day=1")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("converting to Gregorian", func() {
		It("accepts month 0", func() {
			w := serve(handler.ConvertToGregorian, "/calendar/badi/convert/to-gregorian?year=180&month=0&day=5")
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp badi.GregorianResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Formatted).To(Equal("2024-02-29"))
		})

		It("maps an invalid Badi date to 400", func() {
			w := serve(handler.ConvertToGregorian, "/calendar/badi/convert/to-gregorian?year=181&month=0&day=6")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("INVALID_DATE"))
		})
	})

	Context("date ranges", func() {
		It("returns a month range with month info", func() {
			w := serve(handler.GetDateRange, "/calendar/badi/date-range?year=181&month=1")
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp badi.DateRangeResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Start).To(Equal("2024-03-20"))
			Expect(resp.End).To(Equal("2024-04-07"))
			Expect(resp.BadiMonth).NotTo(BeNil())
			Expect(resp.MonthInfo).NotTo(BeNil())
		})

		It("returns the year range when month is omitted", func() {
			w := serve(handler.GetDateRange, "/calendar/badi/date-range?year=181")
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp badi.DateRangeResponse
			Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
			Expect(resp.Start).To(Equal("2024-03-20"))
			Expect(resp.End).To(Equal("2025-03-19"))
			Expect(resp.BadiMonth).To(BeNil())
		})

		It("requires a year", func() {
			w := serve(handler.GetDateRange, "/calendar/badi/date-range")
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	It("offers the current and five previous years", func() {
		w := serve(handler.GetYears, "/calendar/badi/years")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp badi.YearsResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.CurrentYear).To(Equal(181))
		Expect(resp.Years).To(Equal([]int{176, 177, 178, 179, 180, 181}))
	})

	It("converts a Gregorian year with the default month", func() {
		w := serve(handler.GregorianYearToBadi, "/calendar/gregorian/year-to-badi?year=2024")
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp badi.YearToBadiResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.GregorianMonth).To(Equal(1))
		Expect(resp.BadiYear).To(Equal(180))
	})
})
