package budget_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/budget"
	budgetPostgres "github.com/frahmantamala/finance-tracker/internal/budget/postgres"
	"github.com/frahmantamala/finance-tracker/internal/category"
	categoryPostgres "github.com/frahmantamala/finance-tracker/internal/category/postgres"
	budgetDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/budget"
	categoryDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/category"
	"github.com/frahmantamala/finance-tracker/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Budget Handler Integration", func() {
	var (
		db        *gorm.DB
		router    chi.Router
		user      *internal.CurrentUser
		groceries int64
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&categoryDatamodel.Category{}, &budgetDatamodel.Budget{})).To(Succeed())

		categories := category.NewService(categoryPostgres.NewCategoryRepository(db), slogger)
		groceries, err = categories.EnsureSystemCategory("Groceries", category.TypeExpense)
		Expect(err).NotTo(HaveOccurred())

		service := budget.NewService(budgetPostgres.NewBudgetRepository(db), categories, slogger)
		handler := budget.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		user = &internal.CurrentUser{ID: 7, Role: "standard", Permissions: []string{"write"}}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), user)))
			})
		})
		router.Get("/budgets", handler.GetBudgets)
		router.Post("/budgets", handler.CreateBudget)
		router.Get("/budgets/{id}", handler.GetBudget)
		router.Put("/budgets/{id}", handler.UpdateBudget)
		router.Delete("/budgets/{id}", handler.DeleteBudget)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("runs the budget lifecycle", func() {
		rec := do(http.MethodPost, "/budgets", map[string]interface{}{
			"category_id": groceries,
			"amount":      "300.00",
			"period":      "weekly",
			"year":        2024,
			"week":        12,
		})
		Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
		var created budget.BudgetResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &created)).To(Succeed())
		Expect(*created.CategoryName).To(Equal("Groceries"))
		path := "/budgets/" + strconv.FormatInt(created.ID, 10)

		rec = do(http.MethodGet, "/budgets?period=weekly", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var list budget.BudgetsResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
		Expect(list.Budgets).To(HaveLen(1))

		rec = do(http.MethodPut, path, map[string]interface{}{"week": 13})
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())

		Expect(do(http.MethodDelete, path, nil).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodGet, path, nil).Code).To(Equal(http.StatusNotFound))
	})

	It("rejects invalid payloads", func() {
		rec := do(http.MethodPost, "/budgets", map[string]interface{}{
			"category_id": groceries,
			"amount":      "10",
			"period":      "monthly",
			"year":        2024,
		})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		rec = do(http.MethodPost, "/budgets", map[string]interface{}{
			"category_id": 999,
			"amount":      "10",
			"period":      "annual",
			"year":        2024,
		})
		Expect(rec.Code).To(Equal(http.StatusNotFound))

		Expect(do(http.MethodGet, "/budgets/abc", nil).Code).To(Equal(http.StatusBadRequest))
	})
})
