package db

import (
	"time"

	"gorm.io/gorm"
)

// Post 定义了文章模型。LikeCount/CommentCount 为冗余计数，
// 由点赞/评论操作维护，供热门排序直接读取。
type Post struct {
	gorm.Model
	Title        string `gorm:"size:200;not null"`
	Content      string `gorm:"type:text"`
	Summary      string `gorm:"type:text"`
	CoverURL     string
	Category     string `gorm:"size:100;index"`
	Status       string `gorm:"size:20;index;default:draft"`
	PublishedAt  *time.Time
	UserID       uint
	User         User
	LikeCount    int64 `gorm:"default:0"`
	CommentCount int64 `gorm:"default:0"`
}
