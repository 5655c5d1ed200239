package db

import "time"

// PostStatistic 汇总文章维度的浏览数据。
// AvgTimeSpentSeconds/AvgScrollDepthPercent 为流式均值，
// 以总浏览量为样本数，不保存单次样本。
type PostStatistic struct {
	ID                    uint    `gorm:"primaryKey"`
	PostID                uint    `gorm:"uniqueIndex"`
	TotalViews            uint64  `gorm:"default:0"`
	UniqueVisitors        uint64  `gorm:"default:0"`
	AvgTimeSpentSeconds   float64 `gorm:"default:0"`
	AvgScrollDepthPercent float64 `gorm:"default:0"`
	LastViewedAt          time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (PostStatistic) TableName() string {
	return "post_statistics"
}

// PostVisitor 记录文章维度的访客集合，用于 UV 去重。
// 记录只增不删，post_id + visitor_token 唯一。
type PostVisitor struct {
	ID           uint   `gorm:"primaryKey"`
	PostID       uint   `gorm:"uniqueIndex:idx_post_visitor_token"`
	VisitorToken string `gorm:"size:64;uniqueIndex:idx_post_visitor_token"`
	LastViewedAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 指定自定义表名。
func (PostVisitor) TableName() string {
	return "post_visitors"
}

// PostDailyStat 记录文章每日的浏览桶。Date 为本地零点，
// post_id + date 唯一保证每天只有一个桶。
type PostDailyStat struct {
	ID           uint      `gorm:"primaryKey"`
	PostID       uint      `gorm:"uniqueIndex:idx_post_daily_date"`
	Date         time.Time `gorm:"uniqueIndex:idx_post_daily_date"`
	Views        uint64    `gorm:"default:0"`
	UniqueViews  uint64    `gorm:"default:0"`
	DesktopViews uint64    `gorm:"default:0"`
	MobileViews  uint64    `gorm:"default:0"`
	TabletViews  uint64    `gorm:"default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 指定自定义表名。
func (PostDailyStat) TableName() string {
	return "post_daily_stats"
}
