package service

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/gdgblog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 识别的设备类别，未知类别不计入设备维度计数。
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// ErrInvalidViewEvent 表示浏览事件缺少必要字段。
var ErrInvalidViewEvent = errors.New("invalid visitor or post id")

// ViewEvent 描述一次浏览上报。TimeSpentSeconds 与 ScrollDepthPercent
// 必须同时提供才会参与均值更新。
type ViewEvent struct {
	VisitorToken       string
	TimeSpentSeconds   *float64
	ScrollDepthPercent *float64
	DeviceType         string
}

// AnalyticsService 负责处理文章浏览相关的统计逻辑。
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService 创建 AnalyticsService。
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb}
}

// RecordPostView 记录访客对文章的浏览，并返回最新的统计数据。
// 单篇文章的全部计数更新在同一事务内完成，避免并发丢失更新。
func (s *AnalyticsService) RecordPostView(postID uint, event ViewEvent, now time.Time) (*db.PostStatistic, error) {
	if strings.TrimSpace(event.VisitorToken) == "" || postID == 0 {
		return nil, ErrInvalidViewEvent
	}

	visitorToken := strings.TrimSpace(event.VisitorToken)
	device := normalizeDevice(event.DeviceType)
	dayStart := startOfDay(now)

	var stats db.PostStatistic

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var post db.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}

		visitor := db.PostVisitor{
			PostID:       postID,
			VisitorToken: visitorToken,
			LastViewedAt: now,
		}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "post_id"}, {Name: "visitor_token"}},
			DoNothing: true,
		}).Create(&visitor)
		if insert.Error != nil {
			return insert.Error
		}

		isNewVisitor := insert.RowsAffected == 1
		if !isNewVisitor {
			if err := tx.Model(&db.PostVisitor{}).
				Where("post_id = ? AND visitor_token = ?", postID, visitorToken).
				Update("last_viewed_at", now).Error; err != nil {
				return err
			}
		}

		bucket, err := s.findOrCreateDailyStat(tx, postID, dayStart)
		if err != nil {
			return err
		}

		bucket.Views++
		if isNewVisitor {
			bucket.UniqueViews++
		}
		switch device {
		case DeviceDesktop:
			bucket.DesktopViews++
		case DeviceMobile:
			bucket.MobileViews++
		case DeviceTablet:
			bucket.TabletViews++
		}

		if err := tx.Save(bucket).Error; err != nil {
			return err
		}

		statsResult := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("post_id = ?", postID).
			First(&stats)

		switch {
		case errors.Is(statsResult.Error, gorm.ErrRecordNotFound):
			stats = db.PostStatistic{PostID: postID}
			if err := tx.Create(&stats).Error; err != nil {
				return err
			}
		case statsResult.Error != nil:
			return statsResult.Error
		}

		stats.TotalViews++
		if isNewVisitor {
			stats.UniqueVisitors++
		}
		stats.LastViewedAt = now

		// 两项停留指标需同时上报才更新流式均值；
		// 样本数取自增后的总浏览量，重复访问同样计为独立样本。
		if event.TimeSpentSeconds != nil && event.ScrollDepthPercent != nil {
			n := float64(stats.TotalViews)
			stats.AvgTimeSpentSeconds = (stats.AvgTimeSpentSeconds*(n-1) + *event.TimeSpentSeconds) / n
			stats.AvgScrollDepthPercent = (stats.AvgScrollDepthPercent*(n-1) + *event.ScrollDepthPercent) / n
		}

		return tx.Save(&stats).Error
	}); err != nil {
		return nil, err
	}

	return &stats, nil
}

// findOrCreateDailyStat 按精确日期查找当日浏览桶，不存在则创建。
// post_id + date 唯一索引保证每天只有一个桶。
func (s *AnalyticsService) findOrCreateDailyStat(tx *gorm.DB, postID uint, dayStart time.Time) (*db.PostDailyStat, error) {
	var bucket db.PostDailyStat
	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("post_id = ? AND date = ?", postID, dayStart).
		First(&bucket)

	switch {
	case errors.Is(result.Error, gorm.ErrRecordNotFound):
		bucket = db.PostDailyStat{PostID: postID, Date: dayStart}
		if err := tx.Create(&bucket).Error; err != nil {
			return nil, err
		}
	case result.Error != nil:
		return nil, result.Error
	}

	return &bucket, nil
}

// PostStatsMap 返回指定文章的统计数据，未找到的文章不会出现在结果中。
func (s *AnalyticsService) PostStatsMap(postIDs []uint) (map[uint]*db.PostStatistic, error) {
	result := make(map[uint]*db.PostStatistic, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}

	var stats []db.PostStatistic
	if err := s.db.Where("post_id IN ?", postIDs).Find(&stats).Error; err != nil {
		return nil, err
	}

	for i := range stats {
		stat := stats[i]
		copy := stat
		result[stat.PostID] = &copy
	}

	return result, nil
}

// DeviceBreakdown 汇总全站各设备类别的浏览量。
type DeviceBreakdown struct {
	Desktop uint64 `json:"desktop"`
	Mobile  uint64 `json:"mobile"`
	Tablet  uint64 `json:"tablet"`
}

// DailyTrafficPoint 描述单日的全站浏览汇总。
type DailyTrafficPoint struct {
	Date        time.Time `json:"date"`
	Views       uint64    `json:"views"`
	UniqueViews uint64    `json:"uniqueViews"`
}

// SiteOverview 聚合站点层面的浏览统计，供运营面板使用。
type SiteOverview struct {
	TotalViews            uint64              `json:"totalViews"`
	TotalUniqueVisitors   uint64              `json:"totalUniqueVisitors"`
	PostCount             int64               `json:"postCount"`
	DeviceBreakdown       DeviceBreakdown     `json:"deviceBreakdown"`
	DailyTrend            []DailyTrafficPoint `json:"dailyTrend"`
	EngagementRatePercent float64             `json:"engagementRatePercent"`
}

const trendWindowDays = 30

// Overview 汇总全站浏览总量、设备分布与近 30 天的每日趋势。
func (s *AnalyticsService) Overview(now time.Time) (SiteOverview, error) {
	var overview SiteOverview

	var totals struct {
		TotalViews     uint64
		UniqueVisitors uint64
	}
	if err := s.db.Model(&db.PostStatistic{}).
		Select("COALESCE(SUM(total_views), 0) AS total_views, COALESCE(SUM(unique_visitors), 0) AS unique_visitors").
		Scan(&totals).Error; err != nil {
		return overview, err
	}
	overview.TotalViews = totals.TotalViews
	overview.TotalUniqueVisitors = totals.UniqueVisitors

	if err := s.db.Model(&db.Post{}).Count(&overview.PostCount).Error; err != nil {
		return overview, err
	}

	if err := s.db.Model(&db.PostDailyStat{}).
		Select("COALESCE(SUM(desktop_views), 0) AS desktop, COALESCE(SUM(mobile_views), 0) AS mobile, COALESCE(SUM(tablet_views), 0) AS tablet").
		Scan(&overview.DeviceBreakdown).Error; err != nil {
		return overview, err
	}

	cutoff := startOfDay(now).AddDate(0, 0, -(trendWindowDays - 1))
	var points []DailyTrafficPoint
	if err := s.db.Model(&db.PostDailyStat{}).
		Select("date, SUM(views) AS views, SUM(unique_views) AS unique_views").
		Where("date >= ?", cutoff).
		Group("date").
		Order("date asc").
		Scan(&points).Error; err != nil {
		return overview, err
	}
	overview.DailyTrend = points

	overview.EngagementRatePercent = engagementRate(overview.TotalViews, overview.TotalUniqueVisitors)

	return overview, nil
}

// engagementRate 计算独立访客占总浏览量的百分比，保留一位小数。
// 总量为 0 时以 1 兜底，避免除零。
func engagementRate(totalViews, uniqueVisitors uint64) float64 {
	denominator := totalViews
	if denominator == 0 {
		denominator = 1
	}
	rate := float64(uniqueVisitors) / float64(denominator) * 100
	return math.Round(rate*10) / 10
}

// startOfDay 返回 t 所在日期的本地零点，作为日桶边界。
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// normalizeDevice 将上报的设备类别收敛到已识别的枚举，
// 未识别的值返回空串并被静默忽略。
func normalizeDevice(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case DeviceDesktop:
		return DeviceDesktop
	case DeviceMobile:
		return DeviceMobile
	case DeviceTablet:
		return DeviceTablet
	default:
		return ""
	}
}
