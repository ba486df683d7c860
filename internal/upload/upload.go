package upload

import (
	"time"

	uploadDatamodel "github.com/frahmantamala/finance-tracker/internal/core/datamodel/upload"
)

const (
	StatusCompleted = "completed"

	// UncategorizedName and UncategorizedIncomeName are the system
	// categories for expense and income rows no rule matches.
	UncategorizedName       = "Uncategorized"
	UncategorizedIncomeName = "Uncategorized Income"
)

type Upload struct {
	ID         int64
	UserID     int64
	FileName   string
	FileType   string
	RowCount   int
	Status     string
	UploadedAt time.Time
}

func (u *Upload) ToResponse() UploadResponse {
	return UploadResponse{
		ID:         u.ID,
		FileName:   u.FileName,
		FileType:   u.FileType,
		RowCount:   u.RowCount,
		Status:     u.Status,
		UploadedAt: u.UploadedAt,
	}
}

func ToDataModel(u *Upload) *uploadDatamodel.Upload {
	return &uploadDatamodel.Upload{
		ID:         u.ID,
		UserID:     u.UserID,
		FileName:   u.FileName,
		FileType:   u.FileType,
		RowCount:   u.RowCount,
		Status:     u.Status,
		UploadedAt: u.UploadedAt,
	}
}

func FromDataModel(u *uploadDatamodel.Upload) *Upload {
	return &Upload{
		ID:         u.ID,
		UserID:     u.UserID,
		FileName:   u.FileName,
		FileType:   u.FileType,
		RowCount:   u.RowCount,
		Status:     u.Status,
		UploadedAt: u.UploadedAt,
	}
}
