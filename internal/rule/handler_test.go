package rule_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/rule"
	"github.com/frahmantamala/finance-tracker/internal/transport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Rule Handler", func() {
	var (
		router     chi.Router
		categories *MockCategories
		user       *internal.CurrentUser
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		categories = NewMockCategories()
		categories.Add(3, "Transportation")
		service := rule.NewService(NewMockRepository(), categories, &MockTransactions{}, nil, slogger)
		handler := rule.NewHandler(transport.NewBaseHandler(slogger), service)
		user = &internal.CurrentUser{ID: 7, Email: "user@example.com", Role: "standard", Permissions: []string{"write"}}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), user)))
			})
		})
		router.Get("/rules", handler.ListRules)
		router.Post("/rules", handler.CreateRule)
		router.Post("/rules/test", handler.TestRule)
		router.Post("/rules/bulk-import", handler.BulkImport)
		router.Post("/rules/apply", handler.ApplyRules)
		router.Get("/rules/export", handler.ExportRules)
		router.Post("/rules/import", handler.ImportRules)
		router.Get("/rules/{id}", handler.GetRule)
		router.Put("/rules/{id}", handler.UpdateRule)
		router.Delete("/rules/{id}", handler.DeleteRule)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	createRule := func() rule.RuleResponse {
		w := do(http.MethodPost, "/rules", `{"name":"Rides","keywords":"Uber, Lyft","category_id":3,"priority":5}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var resp rule.RuleResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		return resp
	}

	It("creates and lists rules", func() {
		created := createRule()
		Expect(created.Keywords).To(Equal("uber, lyft"))

		w := do(http.MethodGet, "/rules", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp rule.RulesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Rules).To(HaveLen(1))
		Expect(resp.Rules[0].CategoryName).To(Equal("Transportation"))
	})

	It("returns 409 for duplicate names", func() {
		createRule()
		w := do(http.MethodPost, "/rules", `{"name":"Rides","keywords":"x","category_id":3}`)
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("returns 403 when a standard user creates a system rule", func() {
		w := do(http.MethodPost, "/rules", `{"name":"Sys","keywords":"x","category_id":3,"scope":"system"}`)
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("returns 400 for invalid bodies and ids", func() {
		Expect(do(http.MethodPost, "/rules", `{`).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/rules/abc", "").Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodPost, "/rules", `{"name":"","keywords":"x","category_id":3}`).Code).To(Equal(http.StatusBadRequest))
	})

	It("updates, fetches and deletes a rule", func() {
		created := createRule()
		path := "/rules/" + jsonID(created.ID)

		w := do(http.MethodPut, path, `{"priority":9}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, path, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var got rule.RuleResponse
		Expect(json.NewDecoder(w.Body).Decode(&got)).To(Succeed())
		Expect(got.Priority).To(Equal(9))

		Expect(do(http.MethodDelete, path, "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, path, "").Code).To(Equal(http.StatusNotFound))
	})

	It("tests a description against the rules", func() {
		createRule()
		w := do(http.MethodPost, "/rules/test", `{"description":"UBER *TRIP"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var result rule.TestResult
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result.PrimaryMatch).NotTo(BeNil())
		Expect(result.PrimaryMatch.MatchedKeywords).To(Equal([]string{"uber"}))
	})

	It("bulk imports with 201 and per-row errors", func() {
		w := do(http.MethodPost, "/rules/bulk-import", `{"rules":[{"name":"A","keywords":"a","category_id":3},{"name":"B","keywords":"b","category_id":77}]}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var result rule.BulkImportResult
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result.Imported).To(Equal(1))
		Expect(result.Total).To(Equal(2))
		Expect(result.Errors).To(HaveLen(1))
	})

	It("applies rules", func() {
		w := do(http.MethodPost, "/rules/apply", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var result rule.ApplyResult
		Expect(json.NewDecoder(w.Body).Decode(&result)).To(Succeed())
		Expect(result.Count).To(Equal(0))
	})

	It("exports YAML and imports it back", func() {
		createRule()
		w := do(http.MethodGet, "/rules/export?scope=personal", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(Equal("application/yaml"))
		exported := w.Body.String()
		Expect(exported).To(ContainSubstring("name: Rides"))

		user.ID = 8
		w = do(http.MethodPost, "/rules/import?scope=personal", exported)
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Body.String()).To(ContainSubstring(`"imported":1`))
	})

	It("rejects unknown scopes", func() {
		Expect(do(http.MethodGet, "/rules/export?scope=global", "").Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 401 without a user", func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler := rule.NewHandler(transport.NewBaseHandler(slogger), rule.NewService(NewMockRepository(), categories, &MockTransactions{}, nil, slogger))
		req := httptest.NewRequest(http.MethodGet, "/rules", nil).WithContext(context.Background())
		w := httptest.NewRecorder()
		handler.ListRules(w, req)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})

func jsonID(id int64) string {
	return strconv.FormatInt(id, 10)
}
