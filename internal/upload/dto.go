package upload

import (
	"time"

	"github.com/shopspring/decimal"
)

type UploadResponse struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	RowCount   int       `json:"row_count"`
	Status     string    `json:"status"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type UploadsResponse struct {
	Uploads []UploadResponse `json:"uploads"`
}

type UploadResult struct {
	Message             string         `json:"message"`
	Upload              UploadResponse `json:"upload"`
	TransactionsCreated int            `json:"transactions_created"`
	Categorized         int            `json:"categorized"`
}

type PreviewRow struct {
	Date         string          `json:"date"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Type         string          `json:"type"`
	CategoryID   *int64          `json:"category_id"`
	CategoryName *string         `json:"category_name"`
}

type PreviewResponse struct {
	Preview   []PreviewRow `json:"preview"`
	TotalRows int          `json:"total_rows"`
}
