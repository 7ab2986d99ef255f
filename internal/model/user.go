package model

import "time"

// User 作者 / 读者身份
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"type:varchar(150);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"type:varchar(128);not null"` // bcrypt hash
	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }
