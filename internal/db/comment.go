package db

import "gorm.io/gorm"

// Comment 定义了文章评论模型。访客评论时 UserID 为空，
// 仅保留昵称与邮箱。
type Comment struct {
	gorm.Model
	PostID      uint `gorm:"index;not null"`
	Post        Post
	UserID      *uint
	AuthorName  string `gorm:"size:100"`
	AuthorEmail string `gorm:"size:200"`
	Content     string `gorm:"type:text;not null"`
}
