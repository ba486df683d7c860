package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID          int64           `gorm:"primaryKey"`
	UserID      int64           `gorm:"column:user_id;not null;index"`
	Description string          `gorm:"column:description;not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	Type        string          `gorm:"column:type;not null"`
	Date        time.Time       `gorm:"column:date;type:date;not null;index"`
	CategoryID  *int64          `gorm:"column:category_id;index"`
	IsExcluded  bool            `gorm:"column:is_excluded;not null"`
	Source      string          `gorm:"column:source;not null"`
	UploadID    *int64          `gorm:"column:upload_id"`
	Notes       string          `gorm:"column:notes"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}
