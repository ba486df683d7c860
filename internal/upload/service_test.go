package upload_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/finance-tracker/internal"
	"github.com/frahmantamala/finance-tracker/internal/category"
	categoryPostgres "github.com/frahmantamala/finance-tracker/internal/category/postgres"
	categoryDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/category"
	ruleDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/rule"
	transactionDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/transaction"
	uploadDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/upload"
	"github.com/frahmantamala/finance-tracker/internal/core/events"
	"github.com/frahmantamala/finance-tracker/internal/rule"
	rulePostgres "github.com/frahmantamala/finance-tracker/internal/rule/postgres"
	"github.com/frahmantamala/finance-tracker/internal/transport"
	"github.com/frahmantamala/finance-tracker/internal/upload"
	uploadPostgres "github.com/frahmantamala/finance-tracker/internal/upload/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const statement = "Date,Description,Amount\n" +
	"2024-03-01,UBER *TRIP,-23.40\n" +
	"2024-03-02,WHOLE FOODS MKT #123,-80.00\n" +
	"2024-03-03,XYZZY LLC,-5.00\n" +
	"2024-03-04,ACME PAYROLL,1500.00\n"

type brokenRules struct{}

func (brokenRules) Matcher(userID int64) (func(string) *int64, error) {
	return nil, errors.New("rules unavailable")
}

// countingRules records how often the rule set is loaded.
type countingRules struct {
	upload.Categorizer
	loads int
}

func (c *countingRules) Matcher(userID int64) (func(string) *int64, error) {
	c.loads++
	return c.Categorizer.Matcher(userID)
}

var _ = Describe("Upload Service", func() {
	var (
		db        *gorm.DB
		dir       string
		bus       *events.EventBus
		completed []*events.UploadCompletedEvent
		service   *upload.Service
		user      *internal.CurrentUser
		router    chi.Router

		cfg             internal.UploadsConfig
		counting        *countingRules
		categoryService *category.Service
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
			&uploadDatamodel.Upload{},
		)).To(Succeed())

		dir, err = os.MkdirTemp("", "uploads")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		bus = events.NewEventBus(slogger)
		completed = nil
		bus.Subscribe(events.EventTypeUploadCompleted, func(ctx context.Context, e events.Event) error {
			completed = append(completed, e.(*events.UploadCompletedEvent))
			return nil
		})

		categories := category.NewService(categoryPostgres.NewCategoryRepository(db), slogger)
		rules := rule.NewService(rulePostgres.NewRuleRepository(db), categories, rulePostgres.NewTransactionStore(db), bus, slogger)
		_, err = rules.EnsureDefaults()
		Expect(err).NotTo(HaveOccurred())

		cfg = internal.UploadsConfig{Dir: dir, MaxSizeMB: 1, PreviewRows: 2}
		counting = &countingRules{Categorizer: rules}
		categoryService = categories
		service = upload.NewService(uploadPostgres.NewUploadRepository(db), counting, categories, bus, cfg, slogger)

		handler := upload.NewHandler(&transport.BaseHandler{Logger: slogger}, service, cfg.MaxSizeMB)
		user = &internal.CurrentUser{ID: 7, Role: "standard", Permissions: []string{"write"}}
		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(internal.ContextWithUser(r.Context(), user)))
			})
		})
		router.Get("/uploads", handler.GetUploads)
		router.Post("/uploads/upload", handler.UploadFile)
		router.Post("/uploads/preview", handler.PreviewFile)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	storedFiles := func() []os.DirEntry {
		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		return entries
	}

	Describe("Process", func() {
		It("creates categorized transactions linked to an upload", func() {
			result, err := service.Process(context.Background(), 7, "march.csv", strings.NewReader(statement))
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TransactionsCreated).To(Equal(4))
			Expect(result.Categorized).To(Equal(3))
			Expect(result.Upload.FileType).To(Equal(upload.FormatCSV))

			var rows []transactionDatamodel.Transaction
			Expect(db.Order("date").Find(&rows).Error).To(Succeed())
			Expect(rows).To(HaveLen(4))
			for _, row := range rows {
				Expect(row.UploadID).NotTo(BeNil())
				Expect(*row.UploadID).To(Equal(result.Upload.ID))
				Expect(row.Source).To(Equal("upload"))
				Expect(row.CategoryID).NotTo(BeNil())
			}
			Expect(rows[3].Type).To(Equal("income"))

			var fallback categoryDatamodel.Category
			Expect(db.Where("id = ?", *rows[2].CategoryID).First(&fallback).Error).To(Succeed())
			Expect(fallback.Name).To(Equal(upload.UncategorizedName))
			Expect(fallback.UserID).To(BeNil())

			Expect(storedFiles()).To(BeEmpty())
			bus.Wait()
			Expect(completed).To(HaveLen(1))
			Expect(completed[0].TransactionCount).To(Equal(4))
		})

		It("loads the rule set once per file", func() {
			_, err := service.Process(context.Background(), 7, "march.csv", strings.NewReader(statement))
			Expect(err).NotTo(HaveOccurred())
			Expect(counting.loads).To(Equal(1))
		})

		It("files unmatched income under the income fallback", func() {
			income := "Date,Description,Amount\n2024-03-05,MYSTERY DEPOSIT,250.00\n2024-03-06,XYZZY LLC,-5.00\n"
			_, err := service.Process(context.Background(), 7, "april.csv", strings.NewReader(income))
			Expect(err).NotTo(HaveOccurred())

			var rows []transactionDatamodel.Transaction
			Expect(db.Order("date").Find(&rows).Error).To(Succeed())
			Expect(rows).To(HaveLen(2))

			var incomeCat, expenseCat categoryDatamodel.Category
			Expect(db.Where("id = ?", *rows[0].CategoryID).First(&incomeCat).Error).To(Succeed())
			Expect(db.Where("id = ?", *rows[1].CategoryID).First(&expenseCat).Error).To(Succeed())
			Expect(incomeCat.Name).To(Equal(upload.UncategorizedIncomeName))
			Expect(incomeCat.Type).To(Equal("income"))
			Expect(expenseCat.Name).To(Equal(upload.UncategorizedName))
			Expect(expenseCat.Type).To(Equal("expense"))
		})

		It("fails without storing anything when the rules cannot be loaded", func() {
			slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			broken := upload.NewService(uploadPostgres.NewUploadRepository(db), brokenRules{}, categoryService, bus, cfg, slogger)

			_, err := broken.Process(context.Background(), 7, "march.csv", strings.NewReader(statement))
			var appErr *internal.AppError
			Expect(errors.As(err, &appErr)).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))

			var count int64
			Expect(db.Model(&transactionDatamodel.Transaction{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
			Expect(db.Model(&uploadDatamodel.Upload{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
			Expect(storedFiles()).To(BeEmpty())

			_, err = broken.Preview(7, "march.csv", strings.NewReader(statement))
			Expect(errors.As(err, &appErr)).To(BeTrue())
		})

		It("rejects unsupported file types", func() {
			_, err := service.Process(context.Background(), 7, "march.pdf", strings.NewReader(statement))
			Expect(errors.Is(err, upload.ErrInvalidFile)).To(BeTrue())
		})

		It("rejects files without usable rows and cleans up", func() {
			_, err := service.Process(context.Background(), 7, "empty.csv", strings.NewReader("Date,Description,Amount\n"))
			Expect(errors.Is(err, upload.ErrNoRows)).To(BeTrue())
			Expect(storedFiles()).To(BeEmpty())

			var count int64
			Expect(db.Model(&uploadDatamodel.Upload{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	Describe("Preview", func() {
		It("returns the first rows with suggested categories without storing", func() {
			preview, err := service.Preview(7, "march.csv", strings.NewReader(statement))
			Expect(err).NotTo(HaveOccurred())
			Expect(preview.TotalRows).To(Equal(2))
			Expect(*preview.Preview[0].CategoryName).To(Equal("Transportation"))
			Expect(*preview.Preview[1].CategoryName).To(Equal("Groceries"))

			var count int64
			Expect(db.Model(&transactionDatamodel.Transaction{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())
		})
	})

	Describe("HTTP", func() {
		multipartBody := func(name, content string) (*bytes.Buffer, string) {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			part, err := mw.CreateFormFile("file", name)
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write([]byte(content))
			Expect(err).NotTo(HaveOccurred())
			Expect(mw.Close()).To(Succeed())
			return &buf, mw.FormDataContentType()
		}

		It("uploads a statement and lists the upload", func() {
			body, contentType := multipartBody("march.csv", statement)
			req := httptest.NewRequest(http.MethodPost, "/uploads/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusCreated), rec.Body.String())

			rec = httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads", nil))
			var list upload.UploadsResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &list)).To(Succeed())
			Expect(list.Uploads).To(HaveLen(1))
			Expect(list.Uploads[0].RowCount).To(Equal(4))
		})

		It("requires a file field", func() {
			req := httptest.NewRequest(http.MethodPost, "/uploads/preview", strings.NewReader("x"))
			req.Header.Set("Content-Type", "text/plain")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects oversized files", func() {
			body, contentType := multipartBody("big.csv", strings.Repeat("x", 2<<20))
			req := httptest.NewRequest(http.MethodPost, "/uploads/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))
		})
	})
})
