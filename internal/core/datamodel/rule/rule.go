package rule

import "time"

// CategorizationRule keeps keywords as the normalized comma-separated list.
// A nil UserID marks a system rule.
type CategorizationRule struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     *int64    `gorm:"column:user_id;index"`
	Name       string    `gorm:"column:name;not null"`
	Keywords   string    `gorm:"column:keywords;not null"`
	CategoryID int64     `gorm:"column:category_id;not null;index"`
	Priority   int       `gorm:"column:priority;not null"`
	IsActive   bool      `gorm:"column:is_active;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (CategorizationRule) TableName() string {
	return "categorization_rules"
}
