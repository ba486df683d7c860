package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/finance-tracker/api"
	"github.com/frahmantamala/finance-tracker/internal/auth"
	"github.com/frahmantamala/finance-tracker/internal/badi"
	"github.com/frahmantamala/finance-tracker/internal/budget"
	"github.com/frahmantamala/finance-tracker/internal/category"
	"github.com/frahmantamala/finance-tracker/internal/report"
	"github.com/frahmantamala/finance-tracker/internal/rule"
	"github.com/frahmantamala/finance-tracker/internal/transaction"
	"github.com/frahmantamala/finance-tracker/internal/transport/middleware"
	"github.com/frahmantamala/finance-tracker/internal/transport/swagger"
	"github.com/frahmantamala/finance-tracker/internal/upload"
	"github.com/frahmantamala/finance-tracker/internal/user"
)

// Handlers groups everything the router mounts. Nil handlers are skipped.
type Handlers struct {
	Auth        *auth.Handler
	RBAC        *auth.RBACAuthorization
	User        *user.Handler
	Rule        *rule.Handler
	Category    *category.Handler
	Transaction *transaction.Handler
	Budget      *budget.Handler
	Upload      *upload.Handler
	Report      *report.Handler
	Calendar    *badi.Handler
}

// Options carries the server settings the router needs.
type Options struct {
	UploadDir      string
	AllowedOrigins string
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, opts Options, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, opts.UploadDir)

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Spec)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		if h.Calendar != nil {
			r.Route("/calendar", func(cr chi.Router) {
				cr.Get("/badi/months", h.Calendar.GetMonths)
				cr.Get("/badi/current", h.Calendar.GetCurrent)
				cr.Get("/badi/convert/from-gregorian", h.Calendar.ConvertFromGregorian)
				cr.Get("/badi/convert/to-gregorian", h.Calendar.ConvertToGregorian)
				cr.Get("/badi/date-range", h.Calendar.GetDateRange)
				cr.Get("/badi/years", h.Calendar.GetYears)
				cr.Get("/gregorian/year-to-badi", h.Calendar.GregorianYearToBadi)
			})
		}

		if h.Auth == nil || h.RBAC == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)
			write := h.RBAC.RequireWrite()

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
				pr.Patch("/users/me/preferences", h.User.UpdatePreferences)
			}

			if h.Rule != nil {
				pr.Route("/rules", func(rr chi.Router) {
					rr.Get("/", h.Rule.ListRules)
					rr.Post("/test", h.Rule.TestRule)
					rr.Get("/export", h.Rule.ExportRules)
					rr.Get("/{id}", h.Rule.GetRule)

					rr.With(write).Post("/", h.Rule.CreateRule)
					rr.With(write).Post("/bulk-import", h.Rule.BulkImport)
					rr.With(write).Post("/apply", h.Rule.ApplyRules)
					rr.With(write).Post("/import", h.Rule.ImportRules)
					rr.With(write).Put("/{id}", h.Rule.UpdateRule)
					rr.With(write).Delete("/{id}", h.Rule.DeleteRule)
				})
			}

			if h.Category != nil {
				pr.Route("/categories", func(cr chi.Router) {
					cr.Get("/", h.Category.GetCategories)
					cr.Get("/type/{type}", h.Category.GetCategoriesByType)
					cr.Get("/{id}", h.Category.GetCategory)
					cr.Get("/{id}/subcategories", h.Category.GetSubcategories)

					cr.With(write).Post("/", h.Category.CreateCategory)
					cr.With(write).Put("/{id}", h.Category.UpdateCategory)
					cr.With(write).Delete("/{id}", h.Category.DeleteCategory)
					cr.With(write).Post("/{id}/set-default", h.Category.SetDefaultCategory)
				})
			}

			if h.Transaction != nil {
				pr.Route("/transactions", func(tr chi.Router) {
					tr.Get("/", h.Transaction.GetTransactions)
					tr.Get("/{id}", h.Transaction.GetTransaction)

					tr.With(write).Post("/", h.Transaction.CreateTransaction)
					tr.With(write).Post("/bulk-update", h.Transaction.BulkUpdate)
					tr.With(write).Post("/bulk-delete", h.Transaction.BulkDelete)
					tr.With(write).Post("/change-category/{category_id}", h.Transaction.ChangeCategory)
					tr.With(write).Put("/{id}", h.Transaction.UpdateTransaction)
					tr.With(write).Delete("/{id}", h.Transaction.DeleteTransaction)
					tr.With(write).Post("/{id}/toggle-exclude", h.Transaction.ToggleExclude)
				})
			}

			if h.Budget != nil {
				pr.Route("/budgets", func(br chi.Router) {
					br.Get("/", h.Budget.GetBudgets)
					br.Get("/{id}", h.Budget.GetBudget)

					br.With(write).Post("/", h.Budget.CreateBudget)
					br.With(write).Put("/{id}", h.Budget.UpdateBudget)
					br.With(write).Delete("/{id}", h.Budget.DeleteBudget)
				})
			}

			if h.Upload != nil {
				pr.Route("/uploads", func(ur chi.Router) {
					ur.Get("/", h.Upload.GetUploads)
					ur.Get("/{id}", h.Upload.GetUpload)
					ur.Post("/preview", h.Upload.PreviewFile)

					ur.With(write).Post("/upload", h.Upload.UploadFile)
				})
			}

			if h.Report != nil {
				pr.Route("/reports", func(rr chi.Router) {
					rr.Get("/summary", h.Report.GetSummary)
					rr.Get("/badi/month", h.Report.GetBadiMonthSummary)
					rr.Get("/badi/year", h.Report.GetBadiYearSummary)
					rr.Get("/budget-analysis", h.Report.GetBudgetAnalysis)
					rr.Get("/trending", h.Report.GetTrend)
				})
			}
		})
	})
}
