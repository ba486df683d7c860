package category_test

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
	budgetDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/budget"
	categoryDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/category"
	ruleDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/rule"
	transactionDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/transaction"
	"github.com/frahmantamala/finance-tracker/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var _ = Describe("Category Handler Integration", func() {
	var (
		db      *gorm.DB
		service *category.Service
		router  chi.Router
		user    *internal.CurrentUser
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&categoryDatamodel.Category{},
			&transactionDatamodel.Transaction{},
			&budgetDatamodel.Budget{},
			&ruleDatamodel.CategorizationRule{},
		)
		Expect(err).NotTo(HaveOccurred())

		service = category.NewService(categoryPostgres.NewCategoryRepository(db), slogger)
		handler := category.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		user = &internal.CurrentUser{ID: 7, Role: "standard", Permissions: []string{"write"}}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), user)))
			})
		})
		router.Get("/categories", handler.GetCategories)
		router.Post("/categories", handler.CreateCategory)
		router.Get("/categories/type/{type}", handler.GetCategoriesByType)
		router.Get("/categories/{id}", handler.GetCategory)
		router.Put("/categories/{id}", handler.UpdateCategory)
		router.Delete("/categories/{id}", handler.DeleteCategory)
		router.Get("/categories/{id}/subcategories", handler.GetSubcategories)
		router.Post("/categories/{id}/set-default", handler.SetDefaultCategory)

		for _, name := range []string{"Groceries", "Transportation"} {
			_, err := service.EnsureSystemCategory(name, category.TypeExpense)
			Expect(err).NotTo(HaveOccurred())
		}
		_, err = service.EnsureSystemCategory("Income", category.TypeIncome)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeList := func(w *httptest.ResponseRecorder) []category.CategoryResponse {
		var resp category.CategoriesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return resp.Categories
	}

	It("should handle GET /categories request successfully", func() {
		w := do(http.MethodGet, "/categories", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
		Expect(decodeList(w)).To(HaveLen(3))
	})

	It("filters by type through the path", func() {
		w := do(http.MethodGet, "/categories/type/income", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		cats := decodeList(w)
		Expect(cats).To(HaveLen(1))
		Expect(cats[0].Name).To(Equal("Income"))

		Expect(do(http.MethodGet, "/categories/type/transfer", "").Code).To(Equal(http.StatusBadRequest))
	})

	It("creates a subcategory and lists it", func() {
		w := do(http.MethodPost, "/categories", `{"name":"Hobbies","type":"expense"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var parent category.CategoryResponse
		Expect(json.NewDecoder(w.Body).Decode(&parent)).To(Succeed())

		w = do(http.MethodPost, "/categories", `{"name":"Paint","parent_id":`+strconv.FormatInt(parent.ID, 10)+`}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = do(http.MethodGet, "/categories/"+strconv.FormatInt(parent.ID, 10)+"/subcategories", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		subs := decodeList(w)
		Expect(subs).To(HaveLen(1))
		Expect(subs[0].Type).To(Equal(category.TypeExpense))
	})

	It("returns 409 on duplicate names", func() {
		Expect(do(http.MethodPost, "/categories", `{"name":"Hobbies","type":"expense"}`).Code).To(Equal(http.StatusCreated))
		Expect(do(http.MethodPost, "/categories", `{"name":"Hobbies","type":"expense"}`).Code).To(Equal(http.StatusConflict))
	})

	It("returns 403 when a standard user edits a system category", func() {
		id, _, err := service.ResolveName(nil, "Groceries")
		Expect(err).NotTo(HaveOccurred())
		w := do(http.MethodPut, "/categories/"+strconv.FormatInt(id, 10), `{"name":"Food"}`)
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("deletes own categories and reports the reassignment", func() {
		w := do(http.MethodPost, "/categories", `{"name":"Hobbies","type":"expense"}`)
		var created category.CategoryResponse
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		w = do(http.MethodDelete, "/categories/"+strconv.FormatInt(created.ID, 10), "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var result category.DeleteResult
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result.ReassignedTo).To(Equal("Other"))

		Expect(do(http.MethodGet, "/categories/"+strconv.FormatInt(created.ID, 10), "").Code).To(Equal(http.StatusNotFound))
	})

	It("rejects malformed ids", func() {
		Expect(do(http.MethodGet, "/categories/x", "").Code).To(Equal(http.StatusBadRequest))
	})
})
