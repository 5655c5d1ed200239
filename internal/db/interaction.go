package db

import "time"

// PostLike 记录访客对文章的点赞，post_id + visitor_token 唯一以支持切换。
type PostLike struct {
	ID           uint   `gorm:"primaryKey"`
	PostID       uint   `gorm:"uniqueIndex:idx_post_like_visitor"`
	VisitorToken string `gorm:"size:64;uniqueIndex:idx_post_like_visitor"`
	CreatedAt    time.Time
}

// TableName 指定自定义表名。
func (PostLike) TableName() string {
	return "post_likes"
}

// Bookmark 记录登录用户收藏的文章，user_id + post_id 唯一保证幂等。
type Bookmark struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"uniqueIndex:idx_bookmark_user_post"`
	PostID    uint `gorm:"uniqueIndex:idx_bookmark_user_post"`
	CreatedAt time.Time
}

// TableName 指定自定义表名。
func (Bookmark) TableName() string {
	return "bookmarks"
}
