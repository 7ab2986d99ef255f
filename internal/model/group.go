package model

// Group 帖子分组，slug 同时作为 URL 键
type Group struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"type:varchar(200);not null"`
	Slug        string `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string `json:"description" gorm:"type:text"`
}

func (Group) TableName() string { return "groups" }

func (g Group) String() string { return g.Title }
