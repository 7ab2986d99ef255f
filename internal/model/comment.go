package model

import "time"

type Comment struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	PostID   uint      `json:"post_id" gorm:"index:idx_comment_post;not null"`
	Post     *Post     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AuthorID uint      `json:"-" gorm:"not null"`
	Author   User      `json:"author" gorm:"constraint:OnDelete:CASCADE"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	Created  time.Time `json:"created" gorm:"autoCreateTime"`
}

func (Comment) TableName() string { return "comments" }
