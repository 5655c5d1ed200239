package service

import (
	"sort"
	"time"

	"github.com/gdgblog/internal/db"
	"gorm.io/gorm"
)

const (
	// DefaultTrendingLimit 是热门列表的默认长度。
	DefaultTrendingLimit = 6

	trendingExcerptLimit = 150
	recentWindowDays     = 7

	likeWeight       = 10
	commentWeight    = 20
	viewWeight       = 1
	recentViewWeight = 5

	// 时间衰减下限，超过 7 天的文章统一按 0.7 计算。
	decayFloor = 0.7

	defaultAuthorName = "GDG Admin"
)

// TrendingPost 描述热门列表中的单篇文章投影。
type TrendingPost struct {
	PostID       uint      `json:"id"`
	Title        string    `json:"title"`
	Excerpt      string    `json:"excerpt"`
	AuthorID     uint      `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	CoverURL     string    `json:"coverUrl"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"createdAt"`
	LikeCount    int64     `json:"likeCount"`
	CommentCount int64     `json:"commentCount"`
	Score        float64   `json:"score"`
}

// TrendingService 按时间衰减的综合互动得分对已发布文章排序。
// 每次调用都重新计算，不做缓存。
type TrendingService struct {
	db *gorm.DB
}

// NewTrendingService 创建 TrendingService。
func NewTrendingService(gdb *gorm.DB) *TrendingService {
	return &TrendingService{db: gdb}
}

// Top 返回得分最高的 limit 篇已发布文章。
func (s *TrendingService) Top(limit int, now time.Time) ([]TrendingPost, error) {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}

	var posts []db.Post
	if err := s.db.Preload("User").
		Where("status = ?", "published").
		Order("created_at desc").
		Find(&posts).Error; err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		return []TrendingPost{}, nil
	}

	postIDs := make([]uint, 0, len(posts))
	for i := range posts {
		postIDs = append(postIDs, posts[i].ID)
	}

	var stats []db.PostStatistic
	if err := s.db.Where("post_id IN ?", postIDs).Find(&stats).Error; err != nil {
		return nil, err
	}
	viewsByPost := make(map[uint]uint64, len(stats))
	for i := range stats {
		viewsByPost[stats[i].PostID] = stats[i].TotalViews
	}

	recentByPost, err := s.recentBucketCounts(postIDs, now)
	if err != nil {
		return nil, err
	}

	ranked := make([]TrendingPost, 0, len(posts))
	for i := range posts {
		post := posts[i]
		score := trendingScore(&post, viewsByPost[post.ID], recentByPost[post.ID], now)

		authorName := post.User.DisplayName
		if authorName == "" {
			authorName = defaultAuthorName
		}

		ranked = append(ranked, TrendingPost{
			PostID:       post.ID,
			Title:        post.Title,
			Excerpt:      PlainTextExcerpt(post.Content, trendingExcerptLimit),
			AuthorID:     post.UserID,
			AuthorName:   authorName,
			CoverURL:     post.CoverURL,
			Category:     post.Category,
			CreatedAt:    post.CreatedAt,
			LikeCount:    post.LikeCount,
			CommentCount: post.CommentCount,
			Score:        score,
		})
	}

	// 稳定排序保持同分文章的查询顺序
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked, nil
}

// recentBucketCounts 统计近 7 天窗口内每篇文章的日桶条数。
// 注意这里计的是桶的个数而非桶内浏览量之和。
func (s *TrendingService) recentBucketCounts(postIDs []uint, now time.Time) (map[uint]int64, error) {
	cutoff := now.AddDate(0, 0, -recentWindowDays)

	var rows []struct {
		PostID  uint
		Buckets int64
	}
	if err := s.db.Model(&db.PostDailyStat{}).
		Select("post_id, COUNT(*) AS buckets").
		Where("post_id IN ? AND date >= ?", postIDs, cutoff).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[uint]int64, len(rows))
	for _, row := range rows {
		result[row.PostID] = row.Buckets
	}
	return result, nil
}

// trendingScore 计算单篇文章的衰减互动得分。
// 新文章衰减系数为 1.0，发布 7 天线性降至 0.7 并封底。
func trendingScore(post *db.Post, totalViews uint64, recentBuckets int64, now time.Time) float64 {
	ageDays := now.Sub(post.CreatedAt).Hours() / 24

	decay := 1 - (ageDays/7)*0.3
	if decay < decayFloor {
		decay = decayFloor
	}

	raw := float64(post.LikeCount*likeWeight) +
		float64(post.CommentCount*commentWeight) +
		float64(totalViews)*viewWeight +
		float64(recentBuckets*recentViewWeight)

	return decay * raw
}
