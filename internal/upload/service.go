package upload

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/finance-tracker/internal"
	transactionDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/transaction"
	uploadDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/upload"
	"github.com/frahmantamala/finance-tracker/internal/core/events"
)

var (
	ErrUploadNotFound = internal.NewNotFoundError("upload not found", internal.ErrCodeUploadNotFound)
	ErrInvalidFile    = internal.NewValidationError("invalid file type, allowed: csv, xlsx", internal.ErrCodeInvalidFile)
	ErrNoRows         = internal.NewValidationError("no transactions found in file", internal.ErrCodeInvalidFile)
)

type RepositoryAPI interface {
	List(userID int64) ([]*uploadDatamodel.Upload, error)
	GetByID(id int64) (*uploadDatamodel.Upload, error)
	// CreateWithTransactions stores the upload and its transactions in one
	// database transaction, setting UploadID on every row.
	CreateWithTransactions(u *uploadDatamodel.Upload, txs []*transactionDatamodel.Transaction) error
}

// Categorizer is satisfied by rule.Service. Matcher loads the user's rules
// once per file.
type Categorizer interface {
	Matcher(userID int64) (func(description string) *int64, error)
}

// CategoryLookup is satisfied by category.Service.
type CategoryLookup interface {
	EnsureSystemCategory(name, categoryType string) (int64, error)
	Names(ids []int64) (map[int64]string, error)
}

type Service struct {
	repo        RepositoryAPI
	categorizer Categorizer
	categories  CategoryLookup
	publisher   events.Publisher
	cfg         internal.UploadsConfig
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, categorizer Categorizer, categories CategoryLookup, publisher events.Publisher, cfg internal.UploadsConfig, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		categorizer: categorizer,
		categories:  categories,
		publisher:   publisher,
		cfg:         cfg,
		logger:      logger,
	}
}

func (s *Service) List(userID int64) (*UploadsResponse, error) {
	rows, err := s.repo.List(userID)
	if err != nil {
		s.logger.Error("failed to list uploads", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to list uploads", err)
	}
	out := make([]UploadResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row).ToResponse())
	}
	return &UploadsResponse{Uploads: out}, nil
}

func (s *Service) Get(id, userID int64) (*UploadResponse, error) {
	row, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewInternalError("failed to get upload", err)
	}
	if row == nil || row.UserID != userID {
		return nil, ErrUploadNotFound
	}
	resp := FromDataModel(row).ToResponse()
	return &resp, nil
}

// Process imports a bank statement: every parsed row becomes a transaction
// categorized by the rule engine, falling back to the system Uncategorized
// category for its type. The stored copy of the file is always removed.
func (s *Service) Process(ctx context.Context, userID int64, fileName string, content io.Reader) (*UploadResult, error) {
	format, err := detectFormat(fileName)
	if err != nil {
		return nil, err
	}

	rows, err := s.parseStored(fileName, format, content, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	match, err := s.matcher(userID)
	if err != nil {
		return nil, err
	}

	fallbacks := make(map[string]int64, 2)
	txs := make([]*transactionDatamodel.Transaction, 0, len(rows))
	categorized := 0
	for _, row := range rows {
		categoryID := match(row.Description)
		if categoryID != nil {
			categorized++
		} else {
			id, err := s.fallbackFor(row.Type, fallbacks)
			if err != nil {
				return nil, err
			}
			categoryID = &id
		}

		txs = append(txs, &transactionDatamodel.Transaction{
			UserID:      userID,
			Description: row.Description,
			Amount:      row.Amount,
			Type:        row.Type,
			Date:        row.Date,
			CategoryID:  categoryID,
			Source:      "upload",
		})
	}

	u := &Upload{
		UserID:   userID,
		FileName: filepath.Base(fileName),
		FileType: format,
		RowCount: len(txs),
		Status:   StatusCompleted,
	}
	data := ToDataModel(u)
	if err := s.repo.CreateWithTransactions(data, txs); err != nil {
		s.logger.Error("failed to store upload", "user_id", userID, "file_name", u.FileName, "error", err)
		return nil, internal.NewInternalError("failed to store transactions", err)
	}

	s.logger.Info("upload processed", "upload_id", data.ID, "user_id", userID, "rows", len(txs), "categorized", categorized)
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewUploadCompletedEvent(data.ID, userID, data.FileName, len(txs))); err != nil {
			s.logger.Warn("failed to publish upload.completed", "upload_id", data.ID, "error", err)
		}
	}

	return &UploadResult{
		Message:             "File processed successfully",
		Upload:              FromDataModel(data).ToResponse(),
		TransactionsCreated: len(txs),
		Categorized:         categorized,
	}, nil
}

// Preview parses the first rows of a statement and suggests categories
// without storing anything.
func (s *Service) Preview(userID int64, fileName string, content io.Reader) (*PreviewResponse, error) {
	format, err := detectFormat(fileName)
	if err != nil {
		return nil, err
	}
	rows, err := s.parseStored(fileName, format, content, s.previewRows())
	if err != nil {
		return nil, err
	}

	match, err := s.matcher(userID)
	if err != nil {
		return nil, err
	}

	preview := make([]PreviewRow, 0, len(rows))
	var ids []int64
	for _, row := range rows {
		categoryID := match(row.Description)
		if categoryID != nil {
			ids = append(ids, *categoryID)
		}
		preview = append(preview, PreviewRow{
			Date:        row.Date.Format("2006-01-02"),
			Description: row.Description,
			Amount:      row.Amount,
			Type:        row.Type,
			CategoryID:  categoryID,
		})
	}

	if len(ids) > 0 {
		names, err := s.categories.Names(ids)
		if err != nil {
			return nil, internal.NewInternalError("failed to load category names", err)
		}
		for i := range preview {
			if preview[i].CategoryID == nil {
				continue
			}
			if name, ok := names[*preview[i].CategoryID]; ok {
				preview[i].CategoryName = &name
			}
		}
	}

	return &PreviewResponse{Preview: preview, TotalRows: len(preview)}, nil
}

func (s *Service) matcher(userID int64) (func(string) *int64, error) {
	match, err := s.categorizer.Matcher(userID)
	if err != nil {
		s.logger.Error("failed to load categorization rules", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to load categorization rules", err)
	}
	return match, nil
}

// fallbackFor returns the system Uncategorized category matching the row
// type, caching ids per type for the current file.
func (s *Service) fallbackFor(rowType string, cache map[string]int64) (int64, error) {
	if id, ok := cache[rowType]; ok {
		return id, nil
	}
	name := UncategorizedName
	if rowType == "income" {
		name = UncategorizedIncomeName
	}
	id, err := s.categories.EnsureSystemCategory(name, rowType)
	if err != nil {
		return 0, internal.NewInternalError("failed to resolve fallback category", err)
	}
	cache[rowType] = id
	return id, nil
}

// parseStored writes content under the uploads directory, parses it and
// removes it again.
func (s *Service) parseStored(fileName, format string, content io.Reader, limit int) ([]Row, error) {
	path, err := s.store(fileName, content)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			s.logger.Warn("failed to remove stored upload", "path", path, "error", err)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, internal.NewInternalError("failed to open stored file", err)
	}
	defer f.Close()

	var rows []Row
	switch format {
	case FormatCSV:
		rows, err = ParseCSV(f, limit)
	case FormatXLSX:
		rows, err = ParseXLSX(f, limit)
	}
	if err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeInvalidFile)
	}
	return rows, nil
}

func (s *Service) store(fileName string, content io.Reader) (string, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", internal.NewInternalError("failed to prepare upload directory", err)
	}
	path := filepath.Join(s.cfg.Dir, fmt.Sprintf("%s_%s", uuid.NewString(), filepath.Base(fileName)))
	out, err := os.Create(path)
	if err != nil {
		return "", internal.NewInternalError("failed to store file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, content); err != nil {
		os.Remove(path)
		return "", internal.NewInternalError("failed to store file", err)
	}
	return path, nil
}

func (s *Service) previewRows() int {
	if s.cfg.PreviewRows > 0 {
		return s.cfg.PreviewRows
	}
	return 10
}

func detectFormat(fileName string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", ErrInvalidFile
}
