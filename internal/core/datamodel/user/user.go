package user

import "time"

type User struct {
	ID                 int64      `gorm:"primaryKey"`
	Email              string     `gorm:"column:email;uniqueIndex;not null"`
	Name               string     `gorm:"column:name;not null"`
	PasswordHash       string     `gorm:"column:password_hash;not null"`
	Role               string     `gorm:"column:role;not null"`
	CalendarPreference string     `gorm:"column:calendar_preference;not null"`
	IsActive           bool       `gorm:"column:is_active;not null"`
	LastLoginAt        *time.Time `gorm:"column:last_login_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
