package service

import (
	"errors"
	"strings"

	"github.com/gdgblog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidVisitor 表示点赞请求缺少访客标识。
var ErrInvalidVisitor = errors.New("invalid visitor token")

// InteractionService 负责点赞与收藏，并维护文章上的点赞计数。
type InteractionService struct {
	db *gorm.DB
}

// NewInteractionService 创建 InteractionService。
func NewInteractionService(gdb *gorm.DB) *InteractionService {
	return &InteractionService{db: gdb}
}

// LikeResult 描述一次点赞切换后的状态。
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

// ToggleLike 切换访客对文章的点赞状态，点赞计数同事务更新。
func (s *InteractionService) ToggleLike(postID uint, visitorToken string) (*LikeResult, error) {
	token := strings.TrimSpace(visitorToken)
	if token == "" || postID == 0 {
		return nil, ErrInvalidVisitor
	}

	var result LikeResult

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.Select("id, status").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if post.Status != "published" {
			return ErrPostNotFound
		}

		like := db.PostLike{PostID: postID, VisitorToken: token}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "visitor_token"}},
			DoNothing: true,
		}).Create(&like)
		if insert.Error != nil {
			return insert.Error
		}

		if insert.RowsAffected == 1 {
			result.Liked = true
			if err := tx.Model(&db.Post{}).
				Where("id = ?", postID).
				Update("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("post_id = ? AND visitor_token = ?", postID, token).
				Delete(&db.PostLike{}).Error; err != nil {
				return err
			}
			if err := tx.Model(&db.Post{}).
				Where("id = ? AND like_count > 0", postID).
				Update("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
				return err
			}
		}

		var count int64
		if err := tx.Model(&db.Post{}).
			Select("like_count").
			Where("id = ?", postID).
			Scan(&count).Error; err != nil {
			return err
		}
		result.LikeCount = count

		return nil
	}); err != nil {
		return nil, err
	}

	return &result, nil
}

// AddBookmark 为登录用户收藏文章，重复收藏保持幂等。
func (s *InteractionService) AddBookmark(userID, postID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		bookmark := db.Bookmark{UserID: userID, PostID: postID}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoNothing: true,
		}).Create(&bookmark).Error
	})
}

// RemoveBookmark 取消收藏，不存在时静默成功。
func (s *InteractionService) RemoveBookmark(userID, postID uint) error {
	return s.db.Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&db.Bookmark{}).Error
}

// ListBookmarks 返回用户收藏的文章，按收藏时间倒序。
func (s *InteractionService) ListBookmarks(userID uint) ([]db.Post, error) {
	var posts []db.Post
	if err := s.db.Model(&db.Post{}).
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.created_at desc").
		Preload("User").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}
