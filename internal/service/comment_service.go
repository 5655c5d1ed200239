package service

import (
	"errors"
	"strings"

	"github.com/gdgblog/internal/db"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrCommentEmpty    = errors.New("comment content is empty")
)

// CommentService 负责评论的增删查，并维护文章上的评论计数。
type CommentService struct {
	db *gorm.DB
}

// NewCommentService 创建 CommentService。
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{db: gdb}
}

// CommentInput 表示创建评论时接受的字段。
type CommentInput struct {
	PostID      uint
	UserID      *uint
	AuthorName  string
	AuthorEmail string
	Content     string
}

// Create 为已发布文章新增评论，内容经过净化，评论计数同事务更新。
func (s *CommentService) Create(input CommentInput) (*db.Comment, error) {
	content := strings.TrimSpace(textStripper.Sanitize(input.Content))
	if content == "" {
		return nil, ErrCommentEmpty
	}

	authorName := strings.TrimSpace(input.AuthorName)
	if authorName == "" {
		authorName = "匿名读者"
	}

	comment := db.Comment{
		PostID:      input.PostID,
		UserID:      input.UserID,
		AuthorName:  authorName,
		AuthorEmail: strings.TrimSpace(input.AuthorEmail),
		Content:     content,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.Select("id, status").First(&post, input.PostID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if post.Status != "published" {
			return ErrPostNotFound
		}

		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		return tx.Model(&db.Post{}).
			Where("id = ?", input.PostID).
			Update("comment_count", gorm.Expr("comment_count + 1")).Error
	}); err != nil {
		return nil, err
	}

	return &comment, nil
}

// ListForPost 返回指定文章的评论，按时间升序。
func (s *CommentService) ListForPost(postID uint) ([]db.Comment, error) {
	var comments []db.Comment
	if err := s.db.Where("post_id = ?", postID).
		Order("created_at asc").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Delete 删除评论并回退文章上的评论计数。
func (s *CommentService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var comment db.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}

		if err := tx.Delete(&comment).Error; err != nil {
			return err
		}

		return tx.Model(&db.Post{}).
			Where("id = ? AND comment_count > 0", comment.PostID).
			Update("comment_count", gorm.Expr("comment_count - 1")).Error
	})
}
