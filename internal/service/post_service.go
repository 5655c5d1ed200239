package service

import (
	"errors"
	"strings"
	"time"

	"github.com/gdgblog/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound        = errors.New("post not found")
	ErrInvalidPublishState = errors.New("post is missing required fields for publishing")
)

// PostService wraps post related database operations.
type PostService struct {
	db *gorm.DB
}

// NewPostService creates a PostService instance.
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb}
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Search   string
	Status   string
	Category string
	Page     int
	PerPage  int
}

// PostListResult aggregates paginated list data and counters.
type PostListResult struct {
	Posts          []db.Post
	Total          int64
	PublishedCount int64
	DraftCount     int64
	TotalPages     int
	Page           int
	PerPage        int
}

// PostInput represents fields accepted when creating or updating a post.
type PostInput struct {
	Title    string
	Content  string
	Summary  string
	CoverURL string
	Category string
	UserID   uint
}

// Get fetches a post by id with the author preloaded.
func (s *PostService) Get(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Preload("User").First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPublished fetches a post by id and treats drafts as missing.
func (s *PostService) GetPublished(id uint) (*db.Post, error) {
	post, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if post.Status != "published" {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// Create persists a new draft post.
func (s *PostService) Create(input PostInput) (*db.Post, error) {
	post := db.Post{
		Title:    strings.TrimSpace(input.Title),
		Content:  input.Content,
		Summary:  strings.TrimSpace(input.Summary),
		CoverURL: strings.TrimSpace(input.CoverURL),
		Category: strings.TrimSpace(input.Category),
		Status:   "draft",
		UserID:   input.UserID,
	}

	if err := s.db.Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Update applies updates to an existing post.
func (s *PostService) Update(id uint, input PostInput) (*db.Post, error) {
	var existing db.Post
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.Content = input.Content
	existing.Summary = strings.TrimSpace(input.Summary)
	existing.CoverURL = strings.TrimSpace(input.CoverURL)
	existing.Category = strings.TrimSpace(input.Category)

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// Publish 将文章置为已发布状态，标题与正文为空时拒绝发布。
func (s *PostService) Publish(id uint, publishedAt *time.Time) (*db.Post, error) {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if strings.TrimSpace(post.Title) == "" || strings.TrimSpace(post.Content) == "" {
		return nil, ErrInvalidPublishState
	}

	publishTime := time.Now()
	if publishedAt != nil && !publishedAt.IsZero() {
		publishTime = *publishedAt
	}

	post.Status = "published"
	post.PublishedAt = &publishTime

	if err := s.db.Save(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Unpublish 将文章退回草稿状态。
func (s *PostService) Unpublish(id uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	post.Status = "draft"
	post.PublishedAt = nil

	if err := s.db.Save(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Delete removes a post and its counters, comments and interactions.
func (s *PostService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&db.Post{}, id).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&db.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&db.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&db.PostStatistic{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&db.PostVisitor{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", id).Delete(&db.PostDailyStat{}).Error
	})
}

// List provides paginated posts with aggregated counters based on filters.
func (s *PostService) List(filter PostFilter) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}

	modelQuery := s.applyFilters(s.db.Model(&db.Post{}), filter, true)
	if err := modelQuery.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage

	var posts []db.Post
	dataQuery := s.applyFilters(s.db.Model(&db.Post{}).Preload("User"), filter, true)

	orderBy := "posts.created_at desc"
	if strings.EqualFold(filter.Status, "published") {
		orderBy = "posts.published_at desc, posts.id desc"
	}

	if err := dataQuery.Order(orderBy).Limit(result.PerPage).Offset(offset).Find(&posts).Error; err != nil {
		return nil, err
	}

	filterWithoutStatus := filter
	filterWithoutStatus.Status = ""

	publishedCounter := s.applyFilters(s.db.Model(&db.Post{}), filterWithoutStatus, false)
	if err := publishedCounter.Where("posts.status = ?", "published").Count(&result.PublishedCount).Error; err != nil {
		return nil, err
	}
	draftCounter := s.applyFilters(s.db.Model(&db.Post{}), filterWithoutStatus, false)
	if err := draftCounter.Where("posts.status = ?", "draft").Count(&result.DraftCount).Error; err != nil {
		return nil, err
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}

	result.Posts = posts
	return result, nil
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter, includeStatus bool) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("posts.title LIKE ? OR posts.content LIKE ?", like, like)
	}

	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("posts.category = ?", category)
	}

	if includeStatus {
		if status := strings.TrimSpace(filter.Status); status != "" {
			query = query.Where("posts.status = ?", status)
		}
	}

	return query
}
