package model

import "time"

// Post 内容主体
type Post struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index:idx_post_pub_date"`
	AuthorID uint      `json:"-" gorm:"index:idx_post_author;not null"`
	Author   User      `json:"author" gorm:"constraint:OnDelete:CASCADE"`
	GroupID  *uint     `json:"-" gorm:"index:idx_post_group"`
	Group    *Group    `json:"group" gorm:"constraint:OnDelete:SET NULL"`
	Image    string    `json:"image" gorm:"type:varchar(255)"` // 存储路径 posts/<filename>，可为空
}

func (Post) TableName() string { return "posts" }

func (p Post) String() string { return p.Text }
