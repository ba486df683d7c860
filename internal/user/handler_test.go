package user_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/transport"
	"github.com/frahmantamala/finance-tracker/internal/user"
	userPostgres "github.com/frahmantamala/finance-tracker/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("User Handler", func() {
	var (
		db      *gorm.DB
		router  chi.Router
		current *internal.CurrentUser
	)

	BeforeEach(func() {
		db = openTestDB()
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := user.NewService(userPostgres.NewUserRepository(db), bcrypt.MinCost, slogger)

		u, _, err := service.EnsureUser(user.CreateUserDTO{Email: "me@example.com", Name: "Me", Password: "password1", Role: user.RoleStandard})
		Expect(err).NotTo(HaveOccurred())
		current = &internal.CurrentUser{ID: u.ID, Email: u.Email, Role: u.Role, Permissions: u.Permissions()}

		handler := user.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), current)))
			})
		})
		router.Get("/users/me", handler.GetCurrentUser)
		router.Patch("/users/me/preferences", handler.UpdatePreferences)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	It("returns the current profile without the password hash", func() {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).NotTo(ContainSubstring("password"))

		var resp user.UserResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Email).To(Equal("me@example.com"))
		Expect(resp.Role).To(Equal("standard"))
		Expect(resp.Permissions).To(ConsistOf("write"))
	})

	It("updates the calendar preference", func() {
		body := bytes.NewBufferString(`{"calendar_preference":"gregorian"}`)
		req := httptest.NewRequest(http.MethodPatch, "/users/me/preferences", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		var resp user.UserResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.CalendarPreference).To(Equal("gregorian"))
	})

	It("rejects an invalid preference", func() {
		body := bytes.NewBufferString(`{"calendar_preference":"lunar"}`)
		req := httptest.NewRequest(http.MethodPatch, "/users/me/preferences", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 when the account disappeared", func() {
		current.ID += 999
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})
})
