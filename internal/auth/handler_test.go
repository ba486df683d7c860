package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/auth"
	"github.com/frahmantamala/finance-tracker/internal/transport"
)

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		router  chi.Router
		service *auth.Service
	)

	ginkgo.BeforeEach(func() {
		lg := testLogger()
		service = auth.NewService(newMockUserStore(), testGenerator(), lg)
		handler := auth.NewHandler(transport.NewBaseHandler(lg), service)
		rbac := auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg)

		router = chi.NewRouter()
		router.Post("/auth/login", handler.Login)
		router.Post("/auth/refresh", handler.RefreshToken)
		router.Post("/auth/logout", handler.Logout)
		router.Group(func(r chi.Router) {
			r.Use(handler.AuthMiddleware)
			r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
				current, _ := internal.UserFromContext(r.Context())
				_ = json.NewEncoder(w).Encode(current)
			})
			r.With(rbac.RequireWrite()).Post("/write", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			})
			r.With(rbac.RequireAdmin()).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		})
	})

	login := func(email string) string {
		body, _ := json.Marshal(auth.LoginDTO{Email: email, Password: "correct_password"})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

		var tokens auth.AuthTokens
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &tokens)).To(gomega.Succeed())
		return tokens.AccessToken
	}

	call := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	ginkgo.It("puts the caller into the request context", func() {
		rec := call(http.MethodGet, "/whoami", login("user@example.com"))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

		var current internal.CurrentUser
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &current)).To(gomega.Succeed())
		gomega.Expect(current.ID).To(gomega.Equal(int64(1)))
		gomega.Expect(current.Permissions).To(gomega.ConsistOf("write"))
	})

	ginkgo.It("returns 401 without a token", func() {
		gomega.Expect(call(http.MethodGet, "/whoami", "").Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(call(http.MethodGet, "/whoami", "junk").Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("returns 401 for bad credentials", func() {
		body := bytes.NewBufferString(`{"email":"user@example.com","password":"wrong"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("returns 400 for a missing password", func() {
		body := bytes.NewBufferString(`{"email":"user@example.com"}`)
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
	})

	ginkgo.It("forbids viewers from writing", func() {
		gomega.Expect(call(http.MethodPost, "/write", login("viewer@example.com")).Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(call(http.MethodPost, "/write", login("user@example.com")).Code).To(gomega.Equal(http.StatusCreated))
	})

	ginkgo.It("reserves admin routes for superusers", func() {
		gomega.Expect(call(http.MethodGet, "/admin", login("user@example.com")).Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(call(http.MethodGet, "/admin", login("admin@example.com")).Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("refreshes tokens over HTTP", func() {
		tokens, err := service.Authenticate(auth.LoginDTO{Email: "user@example.com", Password: "correct_password"})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		body, _ := json.Marshal(auth.RefreshTokenDTO{RefreshToken: tokens.RefreshToken})
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("accepts logout with a valid token", func() {
		gomega.Expect(call(http.MethodPost, "/auth/logout", login("user@example.com")).Code).To(gomega.Equal(http.StatusNoContent))
		gomega.Expect(call(http.MethodPost, "/auth/logout", "").Code).To(gomega.Equal(http.StatusUnauthorized))
	})
})
