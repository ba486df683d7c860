package transaction_test

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
	"github.com/frahmantamala/finance-tracker/internal/category"
	categoryPostgres "github.com/frahmantamala/finance-tracker/internal/category/postgres"
	categoryDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/category"
	ruleDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/rule"
	transactionDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/transaction"
	"github.com/frahmantamala/finance-tracker/internal/core/events"
	"github.com/frahmantamala/finance-tracker/internal/rule"
	rulePostgres "github.com/frahmantamala/finance-tracker/internal/rule/postgres"
	"github.com/frahmantamala/finance-tracker/internal/transaction"
	transactionPostgres "github.com/frahmantamala/finance-tracker/internal/transaction/postgres"
	"github.com/frahmantamala/finance-tracker/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Transaction Handler Integration", func() {
	var (
		db         *gorm.DB
		router     chi.Router
		user       *internal.CurrentUser
		categories *category.Service
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(
			&categoryDatamodel.Category{},
			&ruleDatamodel.CategorizationRule{},
			&transactionDatamodel.Transaction{},
		)).To(Succeed())

		categories = category.NewService(categoryPostgres.NewCategoryRepository(db), slogger)
		rules := rule.NewService(
			rulePostgres.NewRuleRepository(db),
			categories,
			rulePostgres.NewTransactionStore(db),
			events.NewEventBus(slogger),
			slogger,
		)
		_, err = rules.EnsureDefaults()
		Expect(err).NotTo(HaveOccurred())

		service := transaction.NewService(transactionPostgres.NewTransactionRepository(db), rules, categories, slogger)
		handler := transaction.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		user = &internal.CurrentUser{ID: 7, Role: "standard", Permissions: []string{"write"}}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), user)))
			})
		})
		router.Get("/transactions", handler.GetTransactions)
		router.Post("/transactions", handler.CreateTransaction)
		router.Post("/transactions/bulk-update", handler.BulkUpdate)
		router.Post("/transactions/bulk-delete", handler.BulkDelete)
		router.Post("/transactions/change-category/{category_id}", handler.ChangeCategory)
		router.Get("/transactions/{id}", handler.GetTransaction)
		router.Put("/transactions/{id}", handler.UpdateTransaction)
		router.Delete("/transactions/{id}", handler.DeleteTransaction)
		router.Post("/transactions/{id}/toggle-exclude", handler.ToggleExclude)
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

	create := func(desc, amount, date string) transaction.TransactionResponse {
		rec := do(http.MethodPost, "/transactions", map[string]interface{}{
			"description": desc,
			"amount":      amount,
			"type":        "expense",
			"date":        date,
		})
		Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())
		var resp transaction.TransactionResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return resp
	}

	list := func(query string) transaction.TransactionsResponse {
		rec := do(http.MethodGet, "/transactions"+query, nil)
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
		var resp transaction.TransactionsResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		return resp
	}

	path := func(id int64, suffix string) string {
		return "/transactions/" + strconv.FormatInt(id, 10) + suffix
	}

	It("categorizes new transactions with the seeded rules", func() {
		resp := create("UBER *TRIP HELP.UBER.COM", "23.40", "2024-03-21")
		Expect(resp.CategoryName).NotTo(BeNil())
		Expect(*resp.CategoryName).To(Equal("Transportation"))

		resp = create("WHOLE FOODS MKT #123", "80.00", "2024-03-22")
		Expect(*resp.CategoryName).To(Equal("Groceries"))

		resp = create("XYZZY LLC", "5.00", "2024-03-22")
		Expect(resp.CategoryID).To(BeNil())
	})

	It("filters by date range and exclusion", func() {
		a := create("NETFLIX", "15.49", "2024-01-05")
		create("SPOTIFY", "9.99", "2024-02-05")
		create("HULU", "7.99", "2024-03-05")

		Expect(list("?start_date=2024-02-01&end_date=2024-03-31").Count).To(Equal(2))

		rec := do(http.MethodPost, path(a.ID, "/toggle-exclude"), nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(list("").Count).To(Equal(2))
		Expect(list("?include_excluded=true").Count).To(Equal(3))
	})

	It("orders newest first and paginates", func() {
		create("A", "1.00", "2024-01-01")
		create("B", "1.00", "2024-01-03")
		create("C", "1.00", "2024-01-02")

		page := list("?limit=2")
		Expect(page.Transactions).To(HaveLen(2))
		Expect(page.Transactions[0].Description).To(Equal("B"))
		Expect(page.Transactions[1].Description).To(Equal("C"))

		rest := list("?limit=2&offset=2")
		Expect(rest.Transactions).To(HaveLen(1))
		Expect(rest.Transactions[0].Description).To(Equal("A"))
	})

	It("rejects malformed query parameters", func() {
		Expect(do(http.MethodGet, "/transactions?start_date=03/01/2024", nil).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/transactions?limit=abc", nil).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/transactions?type=transfer", nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("updates, recategorizes and deletes", func() {
		t := create("AMAZON MKTPLACE", "42.00", "2024-04-01")
		Expect(*t.CategoryName).To(Equal("Shopping/Retail"))

		rec := do(http.MethodPut, path(t.ID, ""), map[string]interface{}{"notes": "gift"})
		Expect(rec.Code).To(Equal(http.StatusOK))

		housing, err := categories.EnsureSystemCategory("Housing", category.TypeExpense)
		Expect(err).NotTo(HaveOccurred())
		rec = do(http.MethodPost, "/transactions/change-category/"+strconv.FormatInt(housing, 10), map[string]interface{}{
			"transaction_ids": []int64{t.ID},
		})
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())

		rec = do(http.MethodGet, path(t.ID, ""), nil)
		var got transaction.TransactionResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(Succeed())
		Expect(*got.CategoryName).To(Equal("Housing"))
		Expect(got.Notes).To(Equal("gift"))

		Expect(do(http.MethodDelete, path(t.ID, ""), nil).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodGet, path(t.ID, ""), nil).Code).To(Equal(http.StatusNotFound))
	})

	It("bulk updates and deletes", func() {
		a := create("CVS", "3.00", "2024-04-01")
		b := create("WALGREENS", "4.00", "2024-04-02")

		rec := do(http.MethodPost, "/transactions/bulk-update", map[string]interface{}{
			"transaction_ids": []int64{a.ID, b.ID},
			"is_excluded":     true,
		})
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())
		Expect(list("").Count).To(Equal(0))

		rec = do(http.MethodPost, "/transactions/bulk-delete", map[string]interface{}{
			"transaction_ids": []int64{a.ID, b.ID},
		})
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(list("?include_excluded=true").Count).To(Equal(0))

		rec = do(http.MethodPost, "/transactions/bulk-delete", map[string]interface{}{"transaction_ids": []int64{}})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("does not reveal other users' transactions", func() {
		t := create("UBER", "10.00", "2024-04-01")
		user = &internal.CurrentUser{ID: 8, Role: "standard", Permissions: []string{"write"}}
		Expect(do(http.MethodGet, path(t.ID, ""), nil).Code).To(Equal(http.StatusNotFound))
		Expect(list("").Count).To(Equal(0))
	})
})
