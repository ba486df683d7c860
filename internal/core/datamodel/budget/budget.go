package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

type Budget struct {
	ID          int64           `gorm:"primaryKey"`
	UserID      int64           `gorm:"column:user_id;not null;index"`
	CategoryID  int64           `gorm:"column:category_id;not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	Period      string          `gorm:"column:period;not null"`
	Year        int             `gorm:"column:year;not null"`
	Month       *int            `gorm:"column:month"`
	Week        *int            `gorm:"column:week"`
	ForExcluded bool            `gorm:"column:for_excluded;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Budget) TableName() string {
	return "budgets"
}
