package upload

import "time"

type Upload struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     int64     `gorm:"column:user_id;not null;index"`
	FileName   string    `gorm:"column:file_name;not null"`
	FileType   string    `gorm:"column:file_type;not null"`
	RowCount   int       `gorm:"column:row_count;not null"`
	Status     string    `gorm:"column:status;not null"`
	UploadedAt time.Time `gorm:"column:uploaded_at;autoCreateTime"`
}

func (Upload) TableName() string {
	return "uploads"
}
