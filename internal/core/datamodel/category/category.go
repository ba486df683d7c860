package category

import "time"

type Category struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Type      string    `gorm:"column:type;not null"`
	Color     string    `gorm:"column:color"`
	Icon      string    `gorm:"column:icon"`
	IsDefault bool      `gorm:"column:is_default;not null"`
	ParentID  *int64    `gorm:"column:parent_id;index"`
	UserID    *int64    `gorm:"column:user_id;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Category) TableName() string {
	return "categories"
}
